package service

import (
	"context"
	"fmt"

	"github.com/kjstillabower/lookoutside/internal/models"
	"github.com/kjstillabower/lookoutside/internal/store"
)

// PreferenceKeys are the keys accepted by SetPreference, in help order.
var PreferenceKeys = []string{"units", "condition", "humidity", "sunrise", "wind", "aqi", "reset"}

var (
	unitOptions   = []string{string(models.UnitsMetric), string(models.UnitsImperial), string(models.UnitsBoth)}
	toggleOptions = []string{"true", "false"}
	resetOptions  = []string{"true"}
)

// SetPreference validates and stores one display preference. reset=true clears units,
// every toggle and the nag counter; the saved location is kept.
func (s *Service) SetPreference(ctx context.Context, user, key, value string) (Reply, error) {
	k, v := normalizeKey(key), normalizeKey(value)

	switch k {
	case "units":
		mode, ok := models.ParseUnitMode(v)
		if !ok {
			return Reply{}, &InvalidPreferenceError{Key: k, Value: value, Options: unitOptions}
		}
		if err := store.SaveUnits(ctx, s.store, user, mode); err != nil {
			return Reply{}, err
		}
	case "condition", "humidity", "sunrise", "wind", "aqi":
		var on bool
		switch v {
		case "true":
			on = true
		case "false":
		default:
			return Reply{}, &InvalidPreferenceError{Key: k, Value: value, Options: toggleOptions}
		}
		if err := store.SaveToggle(ctx, s.store, user, k, on); err != nil {
			return Reply{}, err
		}
	case "reset":
		if v != "true" {
			return Reply{}, &InvalidPreferenceError{Key: k, Value: value, Options: resetOptions}
		}
		if err := store.ResetPreferences(ctx, s.store, user); err != nil {
			return Reply{}, err
		}
		return Reply{Text: "Preferences reset to default"}, nil
	default:
		return Reply{}, &InvalidPreferenceError{Key: key, Value: value, Options: PreferenceKeys, UnknownKey: true}
	}
	return Reply{Text: fmt.Sprintf("Preference set %s: %s", k, v)}, nil
}
