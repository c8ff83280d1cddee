package cli

import (
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"feedback_rag/internal/app"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed the dataset into the vector store",
	Long: `Load DATASET_PATH, pack the comments into token-limited batches and embed
them into the persistent collection. A completed build is not repeated unless
--force is given.

Examples:
  feedback_rag index
  feedback_rag index --force`,
	Args: cobra.NoArgs,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "drop the collection and rebuild it")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	out := cmd.OutOrStdout()

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	defer a.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding batches[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(out)
				}),
			)
		}
		bar.Set(done)
	}

	report, err := a.BuildIndex(ctx, indexForce || cfg.ForceReindex, progress)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if report.Skipped {
		fmt.Fprintf(out, "Index already built: %d comments in %d batches (use --force to rebuild)\n", report.Records, report.Batches)
		return nil
	}

	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Comments:  %d\n", report.Records)
	fmt.Fprintf(out, "  Batches:   %d\n", report.Batches)
	if report.Oversized > 0 {
		fmt.Fprintf(out, "  Oversized: %d (sent alone)\n", report.Oversized)
	}
	fmt.Fprintf(out, "  Took:      %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "\nCollection %q stored at: %s\n", cfg.Collection, cfg.DataDir)
	return nil
}
