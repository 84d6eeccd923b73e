package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kjstillabower/lookoutside/internal/client"
	"github.com/kjstillabower/lookoutside/internal/service"
	"github.com/kjstillabower/lookoutside/internal/validation"
)

// Command outcomes recorded in metrics.
const (
	outcomeOK             = "ok"
	outcomeUserError      = "user_error"
	outcomeNotFound       = "not_found"
	outcomeUpstreamError  = "upstream_error"
	outcomeConfigError    = "config_error"
	outcomeInternalError  = "internal_error"
	outcomeUnknownCommand = "unknown_command"
)

func classify(err error) string {
	switch {
	case errors.Is(err, client.ErrUnsupportedProvider),
		errors.Is(err, client.ErrInvalidAPIKey),
		errors.Is(err, service.ErrAirQualityUnavailable):
		return outcomeConfigError
	case errors.Is(err, service.ErrMissingInput),
		errors.Is(err, service.ErrInvalidPreference),
		errors.Is(err, validation.ErrQueryTooLong),
		errors.Is(err, validation.ErrQueryInvalidChars):
		return outcomeUserError
	case errors.Is(err, client.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, client.ErrUpstream),
		errors.Is(err, context.DeadlineExceeded):
		return outcomeUpstreamError
	}
	return outcomeInternalError
}

// errorText maps a command error to the line shown to the user.
func (d *Dispatcher) errorText(command string, err error) string {
	p := d.prefix

	var invalid *service.InvalidPreferenceError
	var upErr *client.UpstreamError
	switch {
	case errors.Is(err, service.ErrNoLocation):
		if command == "aqi" {
			return fmt.Sprintf("I don't know where you live. Tell me where you live by saying %ssetlocation Los Angeles, for example.", p)
		}
		return fmt.Sprintf("I don't know where you live. Give me a location, like %s%s London, or tell me where you live by saying %ssetlocation London, for example.", p, command, p)
	case errors.Is(err, service.ErrMissingInput):
		return `Give me a location, like "London" or "90210".`
	case errors.As(err, &invalid):
		if invalid.UnknownKey {
			return fmt.Sprintf("sorry, %s isn't a setting I know. Please use %s.", invalid.Key, listOptions(invalid.Options))
		}
		return fmt.Sprintf("sorry, %s isn't a valid option for %s. Please use %s.", invalid.Value, invalid.Key, listOptions(invalid.Options))
	case errors.Is(err, validation.ErrQueryTooLong), errors.Is(err, validation.ErrQueryInvalidChars):
		return "That doesn't look like a place I can look up."
	case errors.Is(err, client.ErrUnsupportedProvider),
		errors.Is(err, client.ErrInvalidAPIKey),
		errors.Is(err, service.ErrAirQualityUnavailable):
		return "The weather module is not configured correctly. Please let the bot owner know."
	case errors.Is(err, client.ErrNotFound):
		if command == "aqi" {
			return "I couldn't find any air quality readings near there."
		}
		return "I couldn't find that location."
	case errors.Is(err, client.ErrCircuitOpen):
		return "The weather service is having trouble right now. Please try again in a minute."
	case errors.As(err, &upErr):
		if upErr.Status != 0 && upErr.Message != "" {
			return fmt.Sprintf("Sorry, %s returned an error: %s", upErr.Provider, upErr.Message)
		}
		return fmt.Sprintf("Sorry, I couldn't reach %s right now.", upErr.Provider)
	case errors.Is(err, context.DeadlineExceeded):
		return "Sorry, that took too long. Please try again."
	}
	return "Sorry, something went wrong."
}

// listOptions renders "a", "a or b", or "a, b, or c".
func listOptions(opts []string) string {
	switch len(opts) {
	case 0:
		return ""
	case 1:
		return opts[0]
	case 2:
		return opts[0] + " or " + opts[1]
	}
	return strings.Join(opts[:len(opts)-1], ", ") + ", or " + opts[len(opts)-1]
}
