// Package app assembles providers, the preference store, the command dispatcher and the
// HTTP server from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/lookoutside/internal/bot"
	"github.com/kjstillabower/lookoutside/internal/client"
	"github.com/kjstillabower/lookoutside/internal/config"
	httphandler "github.com/kjstillabower/lookoutside/internal/http"
	"github.com/kjstillabower/lookoutside/internal/lifecycle"
	"github.com/kjstillabower/lookoutside/internal/observability"
	"github.com/kjstillabower/lookoutside/internal/service"
	"github.com/kjstillabower/lookoutside/internal/store"
)

// Version is reported by /health. Overridden at build time with -ldflags.
var Version = "dev"

// App owns everything built from a Config. Close releases the store.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      store.Store
	dispatcher *bot.Dispatcher
}

// New builds providers from reg, opens the store and wires the dispatcher.
// A nil reg uses the built-in adapters.
func New(ctx context.Context, cfg *config.Config, reg *client.Registry, logger *zap.Logger) (*App, error) {
	if reg == nil {
		reg = client.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	geocoder, err := reg.Geocoding(cfg.ClientConfig(cfg.Geocoding))
	if err != nil {
		return nil, fmt.Errorf("geocoding provider: %w", err)
	}
	weather, err := reg.Weather(cfg.ClientConfig(cfg.Weather))
	if err != nil {
		return nil, fmt.Errorf("weather provider: %w", err)
	}
	var airQuality client.AirQualityProvider
	if cfg.AirQuality.Enabled() {
		airQuality, err = reg.AirQuality(cfg.ClientConfig(cfg.AirQuality))
		if err != nil {
			return nil, fmt.Errorf("air quality provider: %w", err)
		}
	} else {
		logger.Info("air quality disabled; no AIRNOW_API_KEY configured")
	}

	st, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	logger.Info("preference store opened", zap.String("backend", cfg.StoreBackend))

	svc := service.New(geocoder, weather, airQuality, st, service.Defaults{
		Units:         cfg.DefaultUnits,
		SunriseSunset: cfg.SunriseSunset,
		MaxQueryLen:   cfg.MaxQueryLen,
		CommandPrefix: cfg.CommandPrefix,
	}, logger)

	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		dispatcher: bot.NewDispatcher(svc, logger, cfg.CommandPrefix),
	}, nil
}

// Dispatcher returns the command dispatcher.
func (a *App) Dispatcher() *bot.Dispatcher {
	return a.dispatcher
}

// Handler returns the HTTP router with health checks tied to the store.
func (a *App) Handler() http.Handler {
	var limiter *rate.Limiter
	if a.cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(a.cfg.RateLimitRPS), a.cfg.RateLimitBurst)
	}
	h := httphandler.NewHandler(a.dispatcher, &httphandler.HealthConfig{
		OverloadWindow:       a.cfg.OverloadWindow,
		OverloadThresholdPct: a.cfg.OverloadThresholdPct,
		RateLimitRPS:         a.cfg.RateLimitRPS,
		DegradedWindow:       a.cfg.DegradedWindow,
		DegradedErrorPct:     a.cfg.DegradedErrorPct,
		StorePing:            a.store.Ping,
	}, a.logger, Version)
	return httphandler.NewRouter(h, httphandler.RouterConfig{
		RequestTimeout: a.cfg.RequestTimeout,
		Limiter:        limiter,
	}, a.logger)
}

// Serve listens on the configured port until ctx is cancelled, then drains: health
// flips to shutting-down, new commands get 503, the server stops accepting, and running
// commands get ShutdownInFlightTimeout to finish.
func (a *App) Serve(ctx context.Context) error {
	observability.RegisterTrafficGauges(a.cfg.OverloadWindow)

	srv := &http.Server{
		Addr:         ":" + a.cfg.ServerPort,
		Handler:      a.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: a.cfg.RequestTimeout + 5*time.Second,
	}

	lifecycle.MarkStarted(time.Now())
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("version", Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	a.logger.Info("waiting for in-flight commands", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, a.cfg.ShutdownInFlightCheckInterval); err != nil {
		a.logger.Warn("in-flight commands not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}
	a.logger.Info("shutdown complete")
	return nil
}

// Close releases the preference store.
func (a *App) Close() error {
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close %s store: %w", a.cfg.StoreBackend, err)
	}
	return nil
}
