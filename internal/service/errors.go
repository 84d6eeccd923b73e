package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingInput matches every *MissingInputError.
	ErrMissingInput = errors.New("missing input")
	// ErrNoLocation is wrapped by the MissingInputError returned when a command has no
	// location argument and the user never saved one.
	ErrNoLocation = errors.New("no saved location")
	// ErrInvalidPreference matches every *InvalidPreferenceError.
	ErrInvalidPreference = errors.New("invalid preference")
	// ErrAirQualityUnavailable is returned by AirQuality when no provider is configured.
	ErrAirQualityUnavailable = errors.New("air quality provider not configured")
)

// MissingInputError reports a required argument that was blank.
type MissingInputError struct {
	Field string
	Err   error
}

func (e *MissingInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("missing %s: %v", e.Field, e.Err)
	}
	return "missing " + e.Field
}

func (e *MissingInputError) Unwrap() error { return e.Err }

func (e *MissingInputError) Is(target error) bool { return target == ErrMissingInput }

// InvalidPreferenceError reports an unknown preference key or an out-of-domain value.
// Options lists the accepted keys when UnknownKey is set, otherwise the accepted values.
type InvalidPreferenceError struct {
	Key        string
	Value      string
	Options    []string
	UnknownKey bool
}

func (e *InvalidPreferenceError) Error() string {
	if e.UnknownKey {
		return fmt.Sprintf("unknown preference %q (valid: %s)", e.Key, strings.Join(e.Options, ", "))
	}
	return fmt.Sprintf("invalid value %q for %s (valid: %s)", e.Value, e.Key, strings.Join(e.Options, ", "))
}

func (e *InvalidPreferenceError) Is(target error) bool { return target == ErrInvalidPreference }
