package main

import "feedback_rag/internal/cli"

func main() {
	cli.Execute()
}
