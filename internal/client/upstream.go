package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kjstillabower/lookoutside/internal/observability"
)

const (
	defaultTimeout = 3 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config configures one provider adapter. Every adapter receives its own Config
// rather than reading process-wide settings.
type Config struct {
	Provider string
	APIKey   string
	// BaseURL overrides the provider's default endpoint (used for regional endpoints and tests).
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig

	// Air quality search radius policy. Zero values use the adapter defaults.
	MaxAttempts int
	StartRadius int
	RadiusStep  int
}

// BreakerConfig controls the circuit breaker wrapped around each provider.
// A zero FailureThreshold disables the breaker.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

// errServerStatus marks 5xx responses as breaker failures while still handing the
// response to the adapter.
var errServerStatus = errors.New("server error status")

// upstream is the HTTP plumbing shared by all adapters: timeout, circuit breaker and metrics.
type upstream struct {
	provider string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

type response struct {
	status int
	body   []byte
}

func newUpstream(provider string, timeout time.Duration, bc BreakerConfig) *upstream {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	u := &upstream{
		provider: provider,
		client:   &http.Client{Timeout: timeout},
	}
	if bc.FailureThreshold > 0 {
		threshold := bc.FailureThreshold
		u.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        provider,
			MaxRequests: bc.HalfOpenRequests,
			Timeout:     bc.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				observability.RecordCircuitBreakerTransition(name, from.String(), to.String())
			},
		})
		observability.CircuitBreakerState.WithLabelValues(provider).Set(0)
	}
	return u
}

// get issues a GET for target. Transport failures and an open breaker come back as
// *UpstreamError; any HTTP status is returned to the caller to interpret.
func (u *upstream) get(ctx context.Context, target *url.URL) (response, error) {
	if u.breaker == nil {
		return u.do(ctx, target)
	}

	var resp response
	_, err := u.breaker.Execute(func() (interface{}, error) {
		r, err := u.do(ctx, target)
		if err != nil {
			return nil, err
		}
		resp = r
		if r.status >= 500 {
			return nil, fmt.Errorf("%w: HTTP %d", errServerStatus, r.status)
		}
		return nil, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.UpstreamErrorsTotal.WithLabelValues(u.provider, string(ErrorCategoryCircuitOpen)).Inc()
		return response{}, &UpstreamError{Provider: u.provider, Err: ErrCircuitOpen}
	case err != nil && !errors.Is(err, errServerStatus):
		return response{}, err
	}
	return resp, nil
}

func (u *upstream) do(ctx context.Context, target *url.URL) (response, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if corrID := observability.CorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(u.provider, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(u.provider, "error").Observe(time.Since(start).Seconds())
		upErr := &UpstreamError{Provider: u.provider, Err: err}
		observability.UpstreamErrorsTotal.WithLabelValues(u.provider, string(CategorizeError(upErr))).Inc()
		return response{}, upErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(u.provider, status).Inc()
	observability.UpstreamDuration.WithLabelValues(u.provider, status).Observe(time.Since(start).Seconds())
	if err != nil {
		return response{}, &UpstreamError{Provider: u.provider, Status: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}
	return response{status: resp.StatusCode, body: body}, nil
}

// statusError builds the *UpstreamError for a non-success response. message is the
// text extracted from the provider's error payload, if any.
func (u *upstream) statusError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	err := &UpstreamError{Provider: u.provider, Status: status, Message: message}
	observability.UpstreamErrorsTotal.WithLabelValues(u.provider, string(CategorizeError(err))).Inc()
	return err
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	}
	return "error"
}

func parseBaseURL(raw, fallback string) (*url.URL, error) {
	if raw == "" {
		raw = fallback
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host required", raw)
	}
	return u, nil
}

// withQuery returns a copy of base with params merged into its query string.
func withQuery(base *url.URL, params url.Values) *url.URL {
	u := *base
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return &u
}
