package client

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kjstillabower/lookoutside/internal/models"
)

func TestRegistry_UnsupportedProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.Geocoding(Config{Provider: "mapquest", APIKey: "k"})
	var upErr *UnsupportedProviderError
	if !errors.As(err, &upErr) {
		t.Fatalf("Geocoding() error = %v, want *UnsupportedProviderError", err)
	}
	if upErr.Kind != "geocoding" || upErr.Name != "mapquest" {
		t.Errorf("UnsupportedProviderError = %+v", upErr)
	}
	if !errors.Is(err, ErrUnsupportedProvider) {
		t.Error("expected errors.Is(err, ErrUnsupportedProvider)")
	}

	if _, err := r.Weather(Config{Provider: "darksky"}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("Weather() error = %v, want ErrUnsupportedProvider", err)
	}
	if _, err := r.AirQuality(Config{Provider: "purpleair"}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("AirQuality() error = %v, want ErrUnsupportedProvider", err)
	}
}

func TestRegistry_BuiltinNames(t *testing.T) {
	geo, weather, aq := NewRegistry().Names()
	if diff := cmp.Diff([]string{"google", "locationiq"}, geo); diff != "" {
		t.Errorf("geocoding names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"openweathermap"}, weather); diff != "" {
		t.Errorf("weather names (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"airnow"}, aq); diff != "" {
		t.Errorf("air quality names (-want +got):\n%s", diff)
	}
}

func TestRegistry_BuildsByNormalizedName(t *testing.T) {
	r := NewRegistry()
	w, err := r.Weather(Config{Provider: " OpenWeatherMap ", APIKey: "k"})
	if err != nil {
		t.Fatalf("Weather() error = %v", err)
	}
	if _, ok := w.(*OpenWeatherMap); !ok {
		t.Errorf("Weather() = %T, want *OpenWeatherMap", w)
	}
}

func TestRegistry_PropagatesFactoryError(t *testing.T) {
	_, err := NewRegistry().AirQuality(Config{Provider: "airnow"})
	if !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("AirQuality() error = %v, want ErrInvalidAPIKey", err)
	}
}

type stubWeather struct{}

func (stubWeather) Current(context.Context, models.ResolvedLocation) (models.CurrentWeather, error) {
	return models.CurrentWeather{Condition: "Clear"}, nil
}

func (stubWeather) Forecast(context.Context, models.ResolvedLocation) (models.ForecastSet, error) {
	return models.ForecastSet{}, nil
}

func TestRegistry_RegisterAddsProvider(t *testing.T) {
	r := NewRegistry()
	r.RegisterWeather("stub", func(Config) (WeatherProvider, error) { return stubWeather{}, nil })

	w, err := r.Weather(Config{Provider: "STUB"})
	if err != nil {
		t.Fatalf("Weather() error = %v", err)
	}
	got, _ := w.Current(context.Background(), models.ResolvedLocation{})
	if got.Condition != "Clear" {
		t.Errorf("Condition = %q, want Clear", got.Condition)
	}
	_, names, _ := r.Names()
	if diff := cmp.Diff([]string{"openweathermap", "stub"}, names); diff != "" {
		t.Errorf("weather names (-want +got):\n%s", diff)
	}
}
