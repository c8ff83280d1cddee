package app

import (
	"context"
	"log"
)

// Answer генерирует ответ по найденным комментариям
func (a *App) Answer(ctx context.Context, question string, comments []string) (string, error) {
	log.Printf("🤖 Generating answer from %d comments", len(comments))

	answer, err := a.generator.Answer(ctx, question, comments)
	a.metrics.RecordGeneration(ctx, err == nil)
	if err != nil {
		return "", err
	}
	return answer, nil
}
