package client

import (
	"context"
	"errors"
	"net"
)

// ErrorCategory is a stable label for error classification in metrics.
type ErrorCategory string

const (
	ErrorCategoryTimeout       ErrorCategory = "timeout"
	ErrorCategoryNetwork       ErrorCategory = "network"
	ErrorCategoryCircuitOpen   ErrorCategory = "circuit_open"
	ErrorCategoryInvalidAPIKey ErrorCategory = "invalid_api_key"
	ErrorCategoryNotFound      ErrorCategory = "not_found"
	ErrorCategoryRateLimited   ErrorCategory = "rate_limited"
	ErrorCategoryUpstream4xx   ErrorCategory = "upstream_4xx"
	ErrorCategoryUpstream5xx   ErrorCategory = "upstream_5xx"
	ErrorCategoryParsing       ErrorCategory = "parsing"
	ErrorCategoryUnsupported   ErrorCategory = "unsupported_provider"
	ErrorCategoryUnknown       ErrorCategory = "unknown"
)

var errParse = errors.New("parse response")

// CategorizeError maps an error to a stable ErrorCategory for metrics.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorCategoryTimeout
		}
		return ErrorCategoryNetwork
	}
	if errors.Is(err, ErrCircuitOpen) {
		return ErrorCategoryCircuitOpen
	}
	if errors.Is(err, ErrInvalidAPIKey) {
		return ErrorCategoryInvalidAPIKey
	}
	if errors.Is(err, ErrNotFound) {
		return ErrorCategoryNotFound
	}
	if errors.Is(err, ErrUnsupportedProvider) {
		return ErrorCategoryUnsupported
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		switch {
		case upErr.Status == 401 || upErr.Status == 403:
			return ErrorCategoryInvalidAPIKey
		case upErr.Status == 429:
			return ErrorCategoryRateLimited
		case upErr.Status >= 500:
			return ErrorCategoryUpstream5xx
		case upErr.Status >= 400:
			return ErrorCategoryUpstream4xx
		}
	}
	if errors.Is(err, errParse) {
		return ErrorCategoryParsing
	}
	return ErrorCategoryUnknown
}
