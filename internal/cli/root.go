package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"feedback_rag/internal/config"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "feedback_rag",
	Short: "Answer questions about customer feedback with retrieval over embedded comments",
	Long: `feedback_rag indexes a table of customer comments into a persistent vector
store and answers questions about them, optionally restricted to the section
mentioned in the question ("sección 3", "seccion tres").

Example usage:
  feedback_rag index                         # Build the index once
  feedback_rag query -q "¿Qué opinan de la sección 2?"
  feedback_rag serve                         # HTTP API on LISTEN_ADDR`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}

		var err error
		cfg, err = config.Load(files...)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load (default is ./.env)")
}

func GetConfig() *config.Config {
	return cfg
}
