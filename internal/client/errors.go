package client

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream matches every *UpstreamError.
	ErrUpstream = errors.New("upstream failure")
	// ErrNotFound is returned when geocoding yields no match or an air quality search
	// exhausts its radius budget.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedProvider matches every *UnsupportedProviderError.
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrInvalidAPIKey       = errors.New("invalid API key")
	ErrCircuitOpen         = errors.New("circuit breaker open")
)

// UpstreamError reports a failed call to a provider: a non-success HTTP status, a
// transport failure (Status 0), or an open circuit breaker.
type UpstreamError struct {
	Provider string
	Status   int
	// Message is taken from the provider's error payload when one was returned.
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// UnsupportedProviderError is returned when a configured provider name has no registered adapter.
type UnsupportedProviderError struct {
	Kind string // geocoding, weather or air quality
	Name string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported %s provider %q", e.Kind, e.Name)
}

func (e *UnsupportedProviderError) Is(target error) bool { return target == ErrUnsupportedProvider }
