package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"feedback_rag/internal/app"
	"feedback_rag/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the index if needed and serve POST /chat",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// Контекст с сигналами завершения
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OtelEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
