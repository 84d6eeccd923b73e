package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kjstillabower/lookoutside/internal/models"
)

// toggleKeys maps user-facing toggle names to store keys.
var toggleKeys = map[string]string{
	"condition": KeyShowCondition,
	"humidity":  KeyShowHumidity,
	"sunrise":   KeyShowSunrise,
	"wind":      KeyShowWind,
	"aqi":       KeyShowAQI,
}

// ResetKeys are cleared by ResetPreferences. Location is kept.
var ResetKeys = []string{
	KeyUnits,
	KeyShowCondition,
	KeyShowHumidity,
	KeyShowSunrise,
	KeyShowWind,
	KeyShowAQI,
	KeyNag,
}

// ToggleKey returns the store key for a toggle name such as "humidity".
func ToggleKey(name string) (string, bool) {
	k, ok := toggleKeys[name]
	return k, ok
}

// LoadPreferences reads every preference for user. Malformed stored values are
// treated as unset.
func LoadPreferences(ctx context.Context, s Store, user string) (models.UserPreferences, error) {
	var prefs models.UserPreferences
	raw := make(map[string]string)
	keys := append([]string{KeyLatitude, KeyLongitude, KeyLocation}, ResetKeys...)
	for _, k := range keys {
		v, ok, err := s.Get(ctx, user, k)
		if err != nil {
			return models.UserPreferences{}, fmt.Errorf("load preferences: %w", err)
		}
		if ok {
			raw[k] = v
		}
	}

	if mode, ok := models.ParseUnitMode(raw[KeyUnits]); ok {
		prefs.Units = mode
	}
	prefs.ShowCondition = parseToggle(raw, KeyShowCondition)
	prefs.ShowHumidity = parseToggle(raw, KeyShowHumidity)
	prefs.ShowSunrise = parseToggle(raw, KeyShowSunrise)
	prefs.ShowWind = parseToggle(raw, KeyShowWind)
	prefs.ShowAQI = parseToggle(raw, KeyShowAQI)
	if n, err := strconv.Atoi(raw[KeyNag]); err == nil && n >= 0 {
		prefs.Nag = n % models.NagCycle
	}

	lat, latErr := strconv.ParseFloat(raw[KeyLatitude], 64)
	lon, lonErr := strconv.ParseFloat(raw[KeyLongitude], 64)
	if latErr == nil && lonErr == nil {
		prefs.Location = &models.ResolvedLocation{Latitude: lat, Longitude: lon, Label: raw[KeyLocation]}
	}
	return prefs, nil
}

func parseToggle(raw map[string]string, key string) *bool {
	v, ok := raw[key]
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}

// SaveLocation persists coordinates and label together.
func SaveLocation(ctx context.Context, s Store, user string, loc models.ResolvedLocation) error {
	values := [][2]string{
		{KeyLatitude, strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
		{KeyLongitude, strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
		{KeyLocation, loc.Label},
	}
	for _, kv := range values {
		if err := s.Set(ctx, user, kv[0], kv[1]); err != nil {
			return fmt.Errorf("save location: %w", err)
		}
	}
	return nil
}

func SaveUnits(ctx context.Context, s Store, user string, mode models.UnitMode) error {
	if err := s.Set(ctx, user, KeyUnits, string(mode)); err != nil {
		return fmt.Errorf("save units: %w", err)
	}
	return nil
}

// SaveToggle stores a toggle by name ("condition", "humidity", "sunrise", "wind", "aqi").
func SaveToggle(ctx context.Context, s Store, user, name string, on bool) error {
	key, ok := ToggleKey(name)
	if !ok {
		return fmt.Errorf("unknown toggle %q", name)
	}
	if err := s.Set(ctx, user, key, strconv.FormatBool(on)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

func SaveNag(ctx context.Context, s Store, user string, nag int) error {
	if err := s.Set(ctx, user, KeyNag, strconv.Itoa(nag)); err != nil {
		return fmt.Errorf("save nag counter: %w", err)
	}
	return nil
}

// ResetPreferences clears units, display toggles and the nag counter.
func ResetPreferences(ctx context.Context, s Store, user string) error {
	if err := s.Delete(ctx, user, ResetKeys...); err != nil {
		return fmt.Errorf("reset preferences: %w", err)
	}
	return nil
}
