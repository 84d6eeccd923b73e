package models

// UnitMode selects which unit system replies are rendered in. The zero value means unset.
type UnitMode string

const (
	UnitsUnset    UnitMode = ""
	UnitsMetric   UnitMode = "metric"
	UnitsImperial UnitMode = "imperial"
	UnitsBoth     UnitMode = "both"
)

// ParseUnitMode returns the UnitMode for s and whether s was a settable value.
func ParseUnitMode(s string) (UnitMode, bool) {
	switch UnitMode(s) {
	case UnitsMetric, UnitsImperial, UnitsBoth:
		return UnitMode(s), true
	}
	return UnitsUnset, false
}

// NagCycle is the modulus of the preference reminder counter.
const NagCycle = 10

// UserPreferences is the per-user state loaded once per request.
// Every toggle is nil when the user never set it; nil behaves as shown.
type UserPreferences struct {
	Units         UnitMode
	ShowCondition *bool
	ShowHumidity  *bool
	ShowSunrise   *bool
	ShowWind      *bool
	ShowAQI       *bool
	Nag           int

	// Location is the saved location, nil when the user never ran setlocation.
	Location *ResolvedLocation
}

// EffectiveUnits returns the user's unit mode, falling back to fallback and then to both.
func (p UserPreferences) EffectiveUnits(fallback UnitMode) UnitMode {
	if p.Units != UnitsUnset {
		return p.Units
	}
	if fallback != UnitsUnset {
		return fallback
	}
	return UnitsBoth
}

// UnitsConfigured reports whether the user explicitly chose a unit mode.
func (p UserPreferences) UnitsConfigured() bool {
	return p.Units != UnitsUnset
}

func (p UserPreferences) ConditionShown() bool { return shown(p.ShowCondition, true) }
func (p UserPreferences) HumidityShown() bool  { return shown(p.ShowHumidity, true) }
func (p UserPreferences) WindShown() bool      { return shown(p.ShowWind, true) }
func (p UserPreferences) AQIShown() bool       { return shown(p.ShowAQI, true) }

// SunriseShown applies def when the user has no sunrise/sunset preference.
func (p UserPreferences) SunriseShown(def bool) bool { return shown(p.ShowSunrise, def) }

func shown(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
