package format

import (
	"fmt"
	"math"
	"testing"

	"github.com/kjstillabower/lookoutside/internal/models"
)

func TestTemperature(t *testing.T) {
	tests := []struct {
		name string
		mode models.UnitMode
		c    float64
		want string
	}{
		{"both", models.UnitsBoth, 21.4, "21°C (71°F)"},
		{"unset behaves like both", models.UnitsUnset, 0, "0°C (32°F)"},
		{"metric", models.UnitsMetric, -6.6, "-7°C"},
		{"imperial", models.UnitsImperial, 100, "212°F"},
		{"nan", models.UnitsBoth, math.NaN(), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Temperature(tt.mode, tt.c); got != tt.want {
				t.Errorf("Temperature(%q, %v) = %q, want %q", tt.mode, tt.c, got, tt.want)
			}
		})
	}
}

// TestTemperature_BothEmbedsRoundedValues checks the both-units rendering over a sweep of inputs.
func TestTemperature_BothEmbedsRoundedValues(t *testing.T) {
	for c := -40.0; c <= 45; c += 0.35 {
		want := fmt.Sprintf("%d°C (%d°F)", int(math.Round(c)), int(math.Round(c*9/5+32)))
		if got := Temperature(models.UnitsBoth, c); got != want {
			t.Fatalf("Temperature(both, %v) = %q, want %q", c, got, want)
		}
	}
}

func TestHumidity(t *testing.T) {
	tests := []struct {
		h    float64
		want string
	}{
		{0, "Humidity: 0%"},
		{0.65, "Humidity: 65%"},
		{0.804, "Humidity: 80%"},
		{1, "Humidity: 100%"},
	}
	for _, tt := range tests {
		if got := Humidity(tt.h); got != tt.want {
			t.Errorf("Humidity(%v) = %q, want %q", tt.h, got, tt.want)
		}
	}
}

func TestHumidityPercent_RoundTrip(t *testing.T) {
	for pct := 0; pct <= 100; pct++ {
		h := float64(pct) / 100
		if got := HumidityPercent(h); got != pct {
			t.Errorf("HumidityPercent(%v) = %d, want %d", h, got, pct)
		}
	}
}

func TestCompassArrow_SectorBoundaries(t *testing.T) {
	tests := []struct {
		bearing float64
		want    string
	}{
		{0, "↓"},
		{360, "↓"},
		{720, "↓"},
		{-10, "↓"},
		{22.5, "↓"},
		{22.6, "↙"},
		{45, "↙"},
		{67.5, "↙"},
		{67.6, "←"},
		{112.5, "←"},
		{112.6, "↖"},
		{157.5, "↖"},
		{157.6, "↑"},
		{180, "↑"},
		{202.5, "↑"},
		{202.6, "↗"},
		{247.5, "↗"},
		{247.6, "→"},
		{292.5, "→"},
		{292.6, "↘"},
		{337.5, "↘"},
		{337.6, "↓"},
		{359.9, "↓"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.bearing), func(t *testing.T) {
			if got := CompassArrow(tt.bearing); got != tt.want {
				t.Errorf("CompassArrow(%v) = %q, want %q", tt.bearing, got, tt.want)
			}
		})
	}
	if CompassArrow(360) != CompassArrow(0) {
		t.Error("360° and 0° should map to the same arrow")
	}
}

func TestWindDescription(t *testing.T) {
	tests := []struct {
		knots int
		want  string
	}{
		{0, "Calm"},
		{1, "Light air"},
		{6, "Light breeze"},
		{10, "Gentle breeze"},
		{15, "Moderate breeze"},
		{21, "Fresh breeze"},
		{27, "Strong breeze"},
		{33, "Near gale"},
		{40, "Gale"},
		{47, "Strong gale"},
		{55, "Storm"},
		{63, "Violent storm"},
		{64, "Hurricane"},
	}
	for _, tt := range tests {
		if got := WindDescription(tt.knots); got != tt.want {
			t.Errorf("WindDescription(%d) = %q, want %q", tt.knots, got, tt.want)
		}
	}
}

func TestWind(t *testing.T) {
	tests := []struct {
		name    string
		mode    models.UnitMode
		speed   float64
		bearing float64
		want    string
	}{
		{"both", models.UnitsBoth, 3.21, 90, "Light breeze 3.2 m/s (7 mph) (←)"},
		{"metric", models.UnitsMetric, 3.21, 90, "Light breeze 3.2 m/s (←)"},
		{"imperial", models.UnitsImperial, 3.21, 90, "Light breeze 7 mph (←)"},
		{"calm", models.UnitsBoth, 0, 0, "Calm 0.0 m/s (0 mph) (↓)"},
		{"hurricane", models.UnitsMetric, 40, 200, "Hurricane 40.0 m/s (↑)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wind(tt.mode, tt.speed, tt.bearing); got != tt.want {
				t.Errorf("Wind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClockTime(t *testing.T) {
	// 2021-06-21T12:00:00Z
	const epoch = 1624276800
	tests := []struct {
		zone string
		want string
	}{
		{"UTC", "12:00 PM"},
		{"America/Chicago", "07:00 AM"},
		{"Asia/Tokyo", "09:00 PM"},
		{"Not/AZone", "12:00 PM"},
		{"", "12:00 PM"},
	}
	for _, tt := range tests {
		if got := ClockTime(epoch, tt.zone); got != tt.want {
			t.Errorf("ClockTime(%d, %q) = %q, want %q", epoch, tt.zone, got, tt.want)
		}
	}
}
