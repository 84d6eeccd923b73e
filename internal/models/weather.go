package models

// ResolvedLocation is a geocoded place. Label is the human-readable name shown in replies.
type ResolvedLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
}

// Wind holds speed in m/s and bearing in compass degrees (0 = north).
type Wind struct {
	Speed   float64 `json:"speed"`
	Bearing float64 `json:"bearing"`
}

// CurrentWeather is the normalized current-conditions record. Temp is in °C and
// Humidity is a fraction in [0,1]. Sunrise and Sunset are already localized clock strings.
type CurrentWeather struct {
	Location  string  `json:"location"`
	Temp      float64 `json:"temp"`
	Condition string  `json:"condition"`
	Humidity  float64 `json:"humidity"`
	Wind      Wind    `json:"wind"`
	Sunrise   string  `json:"sunrise"`
	Sunset    string  `json:"sunset"`
}

type ForecastDay struct {
	DayOfWeek string  `json:"dow"`
	Summary   string  `json:"summary"`
	HighTemp  float64 `json:"highTemp"`
	LowTemp   float64 `json:"lowTemp"`
}

// ForecastSet holds at most MaxForecastDays entries in the order the provider returned them.
type ForecastSet struct {
	Location string        `json:"location"`
	Days     []ForecastDay `json:"days"`
}

// MaxForecastDays is the number of daily entries kept from a provider forecast.
const MaxForecastDays = 4

// AirQualitySample is a partial record: a nil field means the provider did not report it.
type AirQualitySample struct {
	ReportingArea *string `json:"reportingArea,omitempty"`
	State         *string `json:"state,omitempty"`
	O3AQI         *int    `json:"o3Aqi,omitempty"`
	O3Status      *string `json:"o3Status,omitempty"`
	PMAQI         *int    `json:"pmAqi,omitempty"`
	PMStatus      *string `json:"pmStatus,omitempty"`
}

// Empty reports whether no field was populated.
func (s AirQualitySample) Empty() bool {
	return s.ReportingArea == nil && s.State == nil &&
		s.O3AQI == nil && s.O3Status == nil &&
		s.PMAQI == nil && s.PMStatus == nil
}
