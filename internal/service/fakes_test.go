package service

import (
	"context"

	"github.com/kjstillabower/lookoutside/internal/client"
	"github.com/kjstillabower/lookoutside/internal/models"
)

type fakeGeocoder struct {
	places  map[string]models.ResolvedLocation
	err     error
	queries []string
}

func (f *fakeGeocoder) Resolve(ctx context.Context, query string) (models.ResolvedLocation, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return models.ResolvedLocation{}, f.err
	}
	loc, ok := f.places[query]
	if !ok {
		return models.ResolvedLocation{}, client.ErrNotFound
	}
	return loc, nil
}

type fakeWeather struct {
	current  models.CurrentWeather
	forecast models.ForecastSet
	err      error
	asked    []models.ResolvedLocation
}

func (f *fakeWeather) Current(ctx context.Context, loc models.ResolvedLocation) (models.CurrentWeather, error) {
	f.asked = append(f.asked, loc)
	if f.err != nil {
		return models.CurrentWeather{}, f.err
	}
	cur := f.current
	cur.Location = loc.Label
	return cur, nil
}

func (f *fakeWeather) Forecast(ctx context.Context, loc models.ResolvedLocation) (models.ForecastSet, error) {
	f.asked = append(f.asked, loc)
	if f.err != nil {
		return models.ForecastSet{}, f.err
	}
	set := f.forecast
	set.Location = loc.Label
	return set, nil
}

type fakeAirQuality struct {
	sample models.AirQualitySample
	err    error
	calls  int
}

func (f *fakeAirQuality) Lookup(ctx context.Context, lat, lon float64) (models.AirQualitySample, error) {
	f.calls++
	return f.sample, f.err
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

var oshkosh = models.ResolvedLocation{Latitude: 44.0247, Longitude: -88.5426, Label: "Oshkosh, Wisconsin, US"}

func newFakes() (*fakeGeocoder, *fakeWeather, *fakeAirQuality) {
	geo := &fakeGeocoder{places: map[string]models.ResolvedLocation{
		"Oshkosh": oshkosh,
		"Fremont":  {Latitude: 37.55, Longitude: -121.98, Label: "Fremont, California, US"},
	}}
	weather := &fakeWeather{
		current: models.CurrentWeather{
			Temp:      20,
			Condition: "Clear",
			Humidity:  0.5,
			Wind:      models.Wind{Speed: 3, Bearing: 0},
			Sunrise:   "05:30 AM",
			Sunset:    "08:15 PM",
		},
		forecast: models.ForecastSet{Days: []models.ForecastDay{
			{DayOfWeek: "Monday", Summary: "Clear", HighTemp: 20, LowTemp: 10},
			{DayOfWeek: "Tuesday", Summary: "Rain", HighTemp: 15, LowTemp: 5},
		}},
	}
	air := &fakeAirQuality{sample: models.AirQualitySample{
		ReportingArea: strPtr("Fremont"),
		State:         strPtr("CA"),
		O3AQI:         intPtr(28),
		O3Status:      strPtr("Good"),
		PMAQI:         intPtr(18),
		PMStatus:      strPtr("Good"),
	}}
	return geo, weather, air
}
