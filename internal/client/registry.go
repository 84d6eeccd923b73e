package client

import (
	"sort"
	"strings"
	"sync"
)

type (
	GeocodingFactory  func(cfg Config) (GeocodingProvider, error)
	WeatherFactory    func(cfg Config) (WeatherProvider, error)
	AirQualityFactory func(cfg Config) (AirQualityProvider, error)
)

// Registry maps provider names to adapter constructors for each capability.
// Adding a provider is a Register call; callers select one by the configured name.
type Registry struct {
	mu         sync.RWMutex
	geocoding  map[string]GeocodingFactory
	weather    map[string]WeatherFactory
	airQuality map[string]AirQualityFactory
}

// NewRegistry returns a Registry with the built-in adapters registered.
func NewRegistry() *Registry {
	r := &Registry{
		geocoding:  make(map[string]GeocodingFactory),
		weather:    make(map[string]WeatherFactory),
		airQuality: make(map[string]AirQualityFactory),
	}
	r.RegisterGeocoding("locationiq", func(cfg Config) (GeocodingProvider, error) { return NewLocationIQ(cfg) })
	r.RegisterGeocoding("google", func(cfg Config) (GeocodingProvider, error) { return NewGoogleGeocoder(cfg) })
	r.RegisterWeather("openweathermap", func(cfg Config) (WeatherProvider, error) { return NewOpenWeatherMap(cfg) })
	r.RegisterAirQuality("airnow", func(cfg Config) (AirQualityProvider, error) { return NewAirNow(cfg) })
	return r
}

func (r *Registry) RegisterGeocoding(name string, f GeocodingFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.geocoding[normalizeName(name)] = f
}

func (r *Registry) RegisterWeather(name string, f WeatherFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weather[normalizeName(name)] = f
}

func (r *Registry) RegisterAirQuality(name string, f AirQualityFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.airQuality[normalizeName(name)] = f
}

// Geocoding builds the geocoding adapter named by cfg.Provider.
func (r *Registry) Geocoding(cfg Config) (GeocodingProvider, error) {
	r.mu.RLock()
	f, ok := r.geocoding[normalizeName(cfg.Provider)]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedProviderError{Kind: "geocoding", Name: cfg.Provider}
	}
	return f(cfg)
}

// Weather builds the weather adapter named by cfg.Provider.
func (r *Registry) Weather(cfg Config) (WeatherProvider, error) {
	r.mu.RLock()
	f, ok := r.weather[normalizeName(cfg.Provider)]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedProviderError{Kind: "weather", Name: cfg.Provider}
	}
	return f(cfg)
}

// AirQuality builds the air quality adapter named by cfg.Provider.
func (r *Registry) AirQuality(cfg Config) (AirQualityProvider, error) {
	r.mu.RLock()
	f, ok := r.airQuality[normalizeName(cfg.Provider)]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedProviderError{Kind: "air quality", Name: cfg.Provider}
	}
	return f(cfg)
}

// Names lists registered provider names per capability, sorted. Used by config validation
// and help output.
func (r *Registry) Names() (geocoding, weather, airQuality []string) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.geocoding), sortedKeys(r.weather), sortedKeys(r.airQuality)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
