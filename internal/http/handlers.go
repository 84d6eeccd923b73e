package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/lookoutside/internal/bot"
	"github.com/kjstillabower/lookoutside/internal/lifecycle"
	"github.com/kjstillabower/lookoutside/internal/observability"
	"github.com/kjstillabower/lookoutside/internal/traffic"
	"github.com/kjstillabower/lookoutside/internal/validation"
)

const maxCommandBody = 16 << 10

// Dispatcher runs one chat command.
type Dispatcher interface {
	Handle(ctx context.Context, req bot.Request) ([]bot.Message, error)
}

// HealthConfig holds thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	// StorePing, when set, is called to check preference store reachability.
	StorePing func(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	dispatcher       Dispatcher
	healthConfig     *HealthConfig
	logger           *zap.Logger
	version          string
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(dispatcher Dispatcher, healthConfig *HealthConfig, logger *zap.Logger, version string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if version == "" {
		version = "dev"
	}
	return &Handler{
		dispatcher:   dispatcher,
		healthConfig: healthConfig,
		logger:       logger,
		version:      version,
	}
}

type commandRequest struct {
	User    string `json:"user"`
	Text    string `json:"text"`
	Private bool   `json:"private"`
}

type commandResponse struct {
	Messages []bot.Message `json:"messages"`
}

// PostCommand handles POST /command. The chat bridge posts each message addressed to the
// bot and relays the returned messages.
func (h *Handler) PostCommand(w http.ResponseWriter, r *http.Request) {
	var body commandRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody))
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with user and text")
		return
	}
	user, err := validation.ValidateUser(body.User)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_USER", err.Error())
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, r, http.StatusBadRequest, "INVALID_COMMAND", "text is required")
		return
	}

	msgs, err := h.dispatcher.Handle(r.Context(), bot.Request{User: user, Text: body.Text, Private: body.Private})
	if errors.Is(err, bot.ErrUnknownCommand) {
		writeError(w, r, http.StatusBadRequest, "UNKNOWN_COMMAND", "unknown command; try weather, forecast, aqi, setlocation or weatherset")
		return
	}
	if err != nil {
		observability.LoggerFromContext(r.Context(), h.logger).Error("command dispatch failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "command failed")
		return
	}
	if msgs == nil {
		msgs = []bot.Message{}
	}
	writeJSON(w, http.StatusOK, commandResponse{Messages: msgs})
}

type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result, checks := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "lookoutside",
		"version":   h.version,
		"checks":    checks,
		"uptime":    lifecycle.Uptime(time.Now()).Truncate(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > store unreachable > overloaded > degraded > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) (healthResult, map[string]string) {
	checks := map[string]string{}
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}, checks
	}
	if h.healthConfig == nil {
		return healthResult{"healthy", http.StatusOK, ""}, checks
	}
	cfg := h.healthConfig

	if cfg.StorePing != nil {
		if err := cfg.StorePing(ctx); err != nil {
			checks["store"] = "unhealthy"
			return healthResult{"degraded", http.StatusServiceUnavailable, "store_unreachable"}, checks
		}
		checks["store"] = "healthy"
	}

	if cfg.RateLimitRPS > 0 && cfg.OverloadWindow > 0 && cfg.OverloadThresholdPct > 0 {
		threshold := float64(cfg.RateLimitRPS) * cfg.OverloadWindow.Seconds() * float64(cfg.OverloadThresholdPct) / 100
		if float64(traffic.DenialCount(cfg.OverloadWindow)) > threshold {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}, checks
		}
	}

	checks["providers"] = "healthy"
	if cfg.DegradedWindow > 0 && cfg.DegradedErrorPct > 0 {
		errs, total := traffic.ErrorRate(cfg.DegradedWindow)
		if total > 0 && float64(errs)*100/float64(total) >= float64(cfg.DegradedErrorPct) {
			checks["providers"] = "unhealthy"
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}, checks
		}
	}
	return healthResult{"healthy", http.StatusOK, ""}, checks
}
