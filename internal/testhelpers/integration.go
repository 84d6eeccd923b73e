//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/lookoutside/internal/client"
	"github.com/kjstillabower/lookoutside/internal/models"
	"github.com/kjstillabower/lookoutside/internal/service"
	"github.com/kjstillabower/lookoutside/internal/store"
)

// IntegrationTestConfig holds configuration for tests against live providers.
type IntegrationTestConfig struct {
	GeocodingAPIKey  string
	WeatherAPIKey    string
	AirQualityAPIKey string
	Store            store.Config
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test unless GEOCODING_API_KEY and WEATHER_API_KEY are set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	geoKey := os.Getenv("GEOCODING_API_KEY")
	weatherKey := os.Getenv("WEATHER_API_KEY")
	if geoKey == "" || weatherKey == "" {
		t.Skip("GEOCODING_API_KEY and WEATHER_API_KEY not set, skipping integration test")
	}

	backend := os.Getenv("INTEGRATION_STORE_BACKEND")
	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		GeocodingAPIKey:  geoKey,
		WeatherAPIKey:    weatherKey,
		AirQualityAPIKey: os.Getenv("AIRNOW_API_KEY"),
		Store: store.Config{
			Backend:      backend,
			DSN:          os.Getenv("STORE_DSN"),
			Memcached:    memcachedAddr,
			Timeout:      500 * time.Millisecond,
			MaxIdleConns: 2,
		},
	}
}

// SetupIntegrationService builds a service backed by the live LocationIQ, OpenWeatherMap
// and (when keyed) AirNow adapters. An unreachable store falls back to memory.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) (*service.Service, store.Store) {
	t.Helper()
	reg := client.NewRegistry()
	geo, err := reg.Geocoding(client.Config{Provider: "locationiq", APIKey: cfg.GeocodingAPIKey, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("geocoding provider: %v", err)
	}
	weather, err := reg.Weather(client.Config{Provider: "openweathermap", APIKey: cfg.WeatherAPIKey, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("weather provider: %v", err)
	}
	var air client.AirQualityProvider
	if cfg.AirQualityAPIKey != "" {
		air, err = reg.AirQuality(client.Config{Provider: "airnow", APIKey: cfg.AirQualityAPIKey, Timeout: 5 * time.Second})
		if err != nil {
			t.Fatalf("air quality provider: %v", err)
		}
	}

	st, err := store.Open(context.Background(), cfg.Store)
	if err == nil {
		err = st.Ping(context.Background())
	}
	if err != nil {
		t.Logf("store %q not available (%v), using memory", cfg.Store.Backend, err)
		st = store.NewMemoryStore()
	}
	t.Cleanup(func() { _ = st.Close() })

	svc := service.New(geo, weather, air, st, service.Defaults{Units: models.UnitsBoth, SunriseSunset: true}, zaptest.NewLogger(t))
	return svc, st
}

// UniqueUser returns a nick no other test run shares, so live stores need no cleanup.
func UniqueUser(t *testing.T) string {
	return "it-" + time.Now().Format("150405.000000")
}
