package service

import (
	"fmt"
	"strings"

	"github.com/kjstillabower/lookoutside/internal/format"
	"github.com/kjstillabower/lookoutside/internal/models"
)

// renderWeather builds "<label>: <temp>[, <condition>][, Humidity: n%][, Sunrise: x Sunset: y][, <wind>]".
func renderWeather(cur models.CurrentWeather, prefs models.UserPreferences, units models.UnitMode, sunriseDefault bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", cur.Location, format.Temperature(units, cur.Temp))
	if prefs.ConditionShown() {
		b.WriteString(", " + cur.Condition)
	}
	if prefs.HumidityShown() {
		b.WriteString(", " + format.Humidity(cur.Humidity))
	}
	if prefs.SunriseShown(sunriseDefault) {
		fmt.Fprintf(&b, ", Sunrise: %s Sunset: %s", cur.Sunrise, cur.Sunset)
	}
	if prefs.WindShown() {
		b.WriteString(", " + format.Wind(units, cur.Wind.Speed, cur.Wind.Bearing))
	}
	return b.String()
}

// renderForecast builds "<label> :: <dow> - <summary> - <high> / <low> :: ...".
func renderForecast(set models.ForecastSet, units models.UnitMode) string {
	var b strings.Builder
	b.WriteString(set.Location)
	for _, d := range set.Days {
		fmt.Fprintf(&b, " :: %s - %s - %s / %s",
			d.DayOfWeek, d.Summary,
			format.Temperature(units, d.HighTemp),
			format.Temperature(units, d.LowTemp))
	}
	return b.String()
}

// renderPollutants builds "O3 <status> (AQI: <n>) PM2.5 <status> (AQI: <n>)", leaving out
// every part whose field is absent. Returns "" when nothing was reported.
func renderPollutants(s models.AirQualitySample) string {
	var parts []string
	if s.O3Status != nil {
		parts = append(parts, "O3 "+*s.O3Status)
	}
	if s.O3AQI != nil {
		parts = append(parts, fmt.Sprintf("(AQI: %d)", *s.O3AQI))
	}
	if s.PMStatus != nil {
		parts = append(parts, "PM2.5 "+*s.PMStatus)
	}
	if s.PMAQI != nil {
		parts = append(parts, fmt.Sprintf("(AQI: %d)", *s.PMAQI))
	}
	return strings.Join(parts, " ")
}

// renderAirQuality prefixes the pollutant readings with "<area>, <state>: ".
func renderAirQuality(s models.AirQualitySample) string {
	var where []string
	if s.ReportingArea != nil {
		where = append(where, *s.ReportingArea)
	}
	if s.State != nil {
		where = append(where, *s.State)
	}
	readings := renderPollutants(s)
	if readings == "" {
		readings = "no pollutant readings reported"
	}
	if len(where) == 0 {
		return readings
	}
	return strings.Join(where, ", ") + ": " + readings
}
