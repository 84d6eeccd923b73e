package http

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/kjstillabower/lookoutside/internal/lifecycle"
)

// commandDrain counts commands being dispatched. Only /command is tracked: health and
// metrics scrapes must keep answering while a shutdown waits for commands to finish.
type commandDrain struct {
	active atomic.Int64
}

// track admits a command unless shutdown has begun, returning the release func.
func (d *commandDrain) track() (release func(), ok bool) {
	if lifecycle.IsShuttingDown() {
		return nil, false
	}
	d.active.Add(1)
	return func() { d.active.Add(-1) }, true
}

func (d *commandDrain) count() int64 {
	return d.active.Load()
}

// wait polls every interval until no command is running or ctx is done.
func (d *commandDrain) wait(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for d.count() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

var commands = &commandDrain{}

// CommandDrainMiddleware counts the wrapped command handler for shutdown draining and
// turns new commands away with 503 once the service is shutting down.
func CommandDrainMiddleware(next http.Handler) http.Handler {
	return commandDrainMiddleware(commands, next)
}

func commandDrainMiddleware(d *commandDrain, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		release, ok := d.track()
		if !ok {
			w.Header().Set("Retry-After", "5")
			writeError(w, r, http.StatusServiceUnavailable, "SHUTTING_DOWN", "service is shutting down")
			return
		}
		defer release()
		next.ServeHTTP(w, r)
	})
}

// InFlightCount returns the number of commands still being dispatched.
func InFlightCount() int64 {
	return commands.count()
}

// WaitForInFlight blocks until running commands finish or ctx is done.
func WaitForInFlight(ctx context.Context, checkInterval time.Duration) error {
	return commands.wait(ctx, checkInterval)
}
