package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kjstillabower/lookoutside/internal/observability"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP command service",
		Long:  "Serve POST /command for the chat bridge, plus /health and /metrics, until SIGINT or SIGTERM.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, logger, err := bootstrap(cmd.Context())
			if logger != nil {
				defer func() { _ = observability.SyncLogger(logger) }()
			}
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Error("store close", zap.Error(err))
				}
			}()
			return a.Serve(cmd.Context())
		},
	}
}
