package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/lookoutside/internal/app"
	"github.com/kjstillabower/lookoutside/internal/config"
	"github.com/kjstillabower/lookoutside/internal/observability"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lookoutside",
		Short:         "Chat weather bot: current conditions, forecasts and air quality",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newRunCmd(), newProvidersCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the app. The caller closes both.
func bootstrap(ctx context.Context) (*app.App, *zap.Logger, error) {
	logger, err := observability.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, logger, err
	}
	a, err := app.New(ctx, cfg, nil, logger)
	if err != nil {
		return nil, logger, err
	}
	return a, logger, nil
}
