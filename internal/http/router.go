package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/lookoutside/internal/observability"
)

// RouterConfig configures the middleware applied to the command route.
type RouterConfig struct {
	RequestTimeout time.Duration
	// Limiter is nil when rate limiting is disabled.
	Limiter *rate.Limiter
}

// NewRouter wires the routes: POST /command behind shutdown draining, rate limiting and a
// request deadline, plus GET /health and /metrics.
func NewRouter(h *Handler, cfg RouterConfig, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)

	var command http.Handler = http.HandlerFunc(h.PostCommand)
	command = TimeoutMiddleware(cfg.RequestTimeout)(command)
	command = RateLimitMiddleware(cfg.Limiter)(command)
	command = CommandDrainMiddleware(command)
	router.Handle("/command", command).Methods(http.MethodPost)
	return router
}
