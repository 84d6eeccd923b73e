// Package format renders raw weather values into the short strings used in chat replies.
package format

import (
	"fmt"
	"math"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/kjstillabower/lookoutside/internal/models"
)

// CelsiusToFahrenheit converts a °C reading to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}

// Temperature renders c (°C) in the given unit mode. Unset behaves like both.
func Temperature(mode models.UnitMode, c float64) string {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return "unknown"
	}
	cr := int(math.Round(c))
	fr := int(math.Round(CelsiusToFahrenheit(c)))
	switch mode {
	case models.UnitsMetric:
		return fmt.Sprintf("%d°C", cr)
	case models.UnitsImperial:
		return fmt.Sprintf("%d°F", fr)
	default:
		return fmt.Sprintf("%d°C (%d°F)", cr, fr)
	}
}

// HumidityPercent converts a [0,1] fraction to a whole percent.
func HumidityPercent(h float64) int {
	return int(math.Round(h * 100))
}

// Humidity renders a [0,1] humidity fraction.
func Humidity(h float64) string {
	if math.IsNaN(h) {
		return "Humidity: unknown"
	}
	return fmt.Sprintf("Humidity: %d%%", HumidityPercent(h))
}

// beaufort maps an upper knots bound (exclusive) to a description.
var beaufort = []struct {
	below int
	name  string
}{
	{1, "Calm"},
	{4, "Light air"},
	{7, "Light breeze"},
	{11, "Gentle breeze"},
	{16, "Moderate breeze"},
	{22, "Fresh breeze"},
	{28, "Strong breeze"},
	{34, "Near gale"},
	{41, "Gale"},
	{48, "Strong gale"},
	{56, "Storm"},
	{64, "Violent storm"},
}

// WindDescription returns the Beaufort-like category for a speed in knots.
func WindDescription(knots int) string {
	for _, b := range beaufort {
		if knots < b.below {
			return b.name
		}
	}
	return "Hurricane"
}

// Arrows point the way the wind blows, so a north wind (0°) is a down arrow.
var arrows = [8]string{"↓", "↙", "←", "↖", "↑", "↗", "→", "↘"}

// CompassArrow maps a bearing in degrees to one of 8 arrows. Each sector is 45° wide and
// centered on a cardinal or intercardinal direction; the upper sector edge is inclusive.
func CompassArrow(bearing float64) string {
	b := math.Mod(bearing, 360)
	if b < 0 {
		b += 360
	}
	if b <= 22.5 || b > 337.5 {
		return arrows[0]
	}
	idx := int(math.Ceil((b-22.5)/45)) % 8
	return arrows[idx]
}

// Wind renders speed (m/s) and bearing as "<description> <speed> (<arrow>)".
func Wind(mode models.UnitMode, speed, bearing float64) string {
	ms := math.Round(speed*10) / 10
	mph := int(math.Round(ms * 2.237))
	knots := int(math.Round(ms * 1.94384))

	msStr := strconv.FormatFloat(ms, 'f', 1, 64)
	var speedStr string
	switch mode {
	case models.UnitsMetric:
		speedStr = fmt.Sprintf("%s m/s", msStr)
	case models.UnitsImperial:
		speedStr = fmt.Sprintf("%d mph", mph)
	default:
		speedStr = fmt.Sprintf("%s m/s (%d mph)", msStr, mph)
	}
	return fmt.Sprintf("%s %s (%s)", WindDescription(knots), speedStr, CompassArrow(bearing))
}

// ClockTime renders a unix timestamp as 12-hour local time in the named IANA zone.
// Unknown zones fall back to UTC.
func ClockTime(epoch int64, zone string) string {
	loc, err := time.LoadLocation(zone)
	if err != nil || zone == "" {
		loc = time.UTC
	}
	return time.Unix(epoch, 0).UTC().In(loc).Format("03:04 PM")
}
