package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"feedback_rag/internal/app"
	"feedback_rag/internal/retriever"
)

var (
	queryText     string
	queryTopK     int
	queryGenerate bool
	queryFormat   string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search customer comments",
	Long: `Search the indexed comments. A section mentioned in the question restricts
the search to that section. Without -q questions are read from stdin, one per line.

Examples:
  feedback_rag query -q "¿Qué dicen del envío en la sección 2?"
  feedback_rag query -q "precio" --top-k 5 --generate --format yaml
  feedback_rag query < preguntas.txt`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question (stdin when empty)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of comments (default TOP_K)")
	queryCmd.Flags().BoolVarP(&queryGenerate, "generate", "g", false, "also generate an answer with the chat model")
	queryCmd.Flags().StringVar(&queryFormat, "format", "text", "output format: text, json or yaml")
}

func runQuery(cmd *cobra.Command, args []string) error {
	switch queryFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", queryFormat)
	}

	cfg := GetConfig()
	out := cmd.OutOrStdout()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	defer a.Close()

	if err := a.Init(ctx); err != nil {
		return err
	}

	if queryText == "" {
		return a.Console(ctx, cmd.InOrStdin(), out, queryTopK, queryGenerate)
	}

	result, err := a.Search(ctx, queryText, queryTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if !queryGenerate {
		return writeOutput(out, queryFormat, result)
	}

	answer, err := a.Answer(ctx, queryText, result.Documents)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	return writeOutput(out, queryFormat, app.ChatResponse{
		Pregunta:            result.Query,
		SeccionDetectada:    result.Section,
		RespuestasSimilares: result.Documents,
		RespuestaGenerada:   answer,
	})
}

func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	}

	switch r := v.(type) {
	case retriever.Result:
		writeDocuments(w, r.Section, r.Documents)
	case app.ChatResponse:
		writeDocuments(w, r.SeccionDetectada, r.RespuestasSimilares)
		fmt.Fprintf(w, "\n🤖 %s\n", r.RespuestaGenerada)
	default:
		return fmt.Errorf("cannot print %T as text", v)
	}
	return nil
}

func writeDocuments(w io.Writer, section *string, docs []string) {
	if section != nil {
		fmt.Fprintf(w, "Section: %s\n", *section)
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No comments found.")
		return
	}

	fmt.Fprintf(w, "Found %d comments:\n\n", len(docs))
	for i, d := range docs {
		fmt.Fprintf(w, "--- [%d] ---\n%s\n\n", i+1, d)
	}
}
