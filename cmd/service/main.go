package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kjstillabower/lookoutside/internal/app"
	"github.com/kjstillabower/lookoutside/internal/config"
	"github.com/kjstillabower/lookoutside/internal/observability"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = observability.SyncLogger(logger) }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	a, err := app.New(context.Background(), cfg, nil, logger)
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("store close", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := a.Serve(ctx); err != nil {
		logger.Error("serve", zap.Error(err))
	}
}
