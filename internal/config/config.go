package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/lookoutside/internal/client"
	"github.com/kjstillabower/lookoutside/internal/models"
	"github.com/kjstillabower/lookoutside/internal/store"
	"github.com/kjstillabower/lookoutside/internal/validation"
)

// Config holds service configuration loaded from .env, YAML and env.
type Config struct {
	ServerPort    string
	CommandPrefix string

	Geocoding  Upstream
	Weather    Upstream
	AirQuality Upstream

	DefaultUnits  models.UnitMode
	SunriseSunset bool
	MaxQueryLen   int

	StoreBackend          string
	StoreDSN              string
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenRequests uint32

	RateLimitRPS   int
	RateLimitBurst int

	RequestTimeout time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration

	OverloadWindow       time.Duration
	OverloadThresholdPct int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
}

// Upstream configures one provider adapter.
type Upstream struct {
	Provider string
	APIKey   string
	URL      string
	Timeout  time.Duration

	// Air quality radius policy; zero means adapter default.
	MaxAttempts int
	StartRadius int
	RadiusStep  int
}

// Enabled reports whether a provider is configured. Only air quality is optional.
func (u Upstream) Enabled() bool {
	return u.Provider != "" && u.APIKey != ""
}

type upstreamFile struct {
	Provider    string `yaml:"provider"`
	URL         string `yaml:"url"`
	Timeout     string `yaml:"timeout"`
	MaxAttempts int    `yaml:"max_attempts"`
	StartRadius int    `yaml:"start_radius"`
	RadiusStep  int    `yaml:"radius_step"`
}

type fileConfig struct {
	Server struct {
		Port          string `yaml:"port"`
		CommandPrefix string `yaml:"command_prefix"`
	} `yaml:"server"`

	Geocoding  upstreamFile `yaml:"geocoding"`
	AirQuality upstreamFile `yaml:"air_quality"`
	Weather    struct {
		Provider      string `yaml:"provider"`
		URL           string `yaml:"url"`
		Timeout       string `yaml:"timeout"`
		Units         string `yaml:"units"`
		SunriseSunset *bool  `yaml:"sunrise_sunset"`
		MaxQueryLen   int    `yaml:"max_query_length"`
	} `yaml:"weather"`

	Store struct {
		Backend   string `yaml:"backend"`
		DSN       string `yaml:"dsn"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"store"`

	CircuitBreaker struct {
		FailureThreshold *int   `yaml:"failure_threshold"`
		OpenTimeout      string `yaml:"open_timeout"`
		HalfOpenRequests int    `yaml:"half_open_requests"`
	} `yaml:"circuit_breaker"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`

	Health struct {
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
		DegradedWindow       string `yaml:"degraded_window"`
		DegradedErrorPct     int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`
}

type secretsFile struct {
	GeocodingAPIKey  string `yaml:"geocoding_api_key"`
	WeatherAPIKey    string `yaml:"weather_api_key"`
	AirQualityAPIKey string `yaml:"airnow_api_key"`
	StoreDSN         string `yaml:"store_dsn"`
}

// Load reads .env (when present), then config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml relative to the working directory. Environment variables win over
// both files. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadDir(cwd)
}

// LoadDir is Load rooted at dir instead of the working directory.
func LoadDir(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := filepath.Join(dir, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	var sec secretsFile
	secretsData, err := os.ReadFile(filepath.Join(dir, "config", "secrets.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read secrets file: %w", err)
		}
	} else if err := yaml.Unmarshal(secretsData, &sec); err != nil {
		return nil, fmt.Errorf("parse secrets file: %w", err)
	}

	cfg := &Config{}
	cfg.ServerPort = firstNonEmpty(os.Getenv("PORT"), fc.Server.Port, "8080")
	cfg.CommandPrefix = firstNonEmpty(fc.Server.CommandPrefix, ".")

	cfg.Geocoding = upstreamFrom(fc.Geocoding, "locationiq", firstNonEmpty(os.Getenv("GEOCODING_API_KEY"), sec.GeocodingAPIKey))
	cfg.Weather = upstreamFrom(upstreamFile{Provider: fc.Weather.Provider, URL: fc.Weather.URL, Timeout: fc.Weather.Timeout}, "openweathermap", firstNonEmpty(os.Getenv("WEATHER_API_KEY"), sec.WeatherAPIKey))
	cfg.AirQuality = upstreamFrom(fc.AirQuality, "airnow", firstNonEmpty(os.Getenv("AIRNOW_API_KEY"), sec.AirQualityAPIKey))

	if cfg.Geocoding.APIKey == "" {
		return nil, fmt.Errorf("GEOCODING_API_KEY required (set env or config/secrets.yaml geocoding_api_key)")
	}
	if cfg.Weather.APIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env or config/secrets.yaml weather_api_key)")
	}

	units := strings.ToLower(strings.TrimSpace(fc.Weather.Units))
	if units != "" {
		mode, ok := models.ParseUnitMode(units)
		if !ok {
			return nil, fmt.Errorf("weather.units must be metric, imperial or both, got %q", fc.Weather.Units)
		}
		cfg.DefaultUnits = mode
	} else {
		cfg.DefaultUnits = models.UnitsBoth
	}
	cfg.SunriseSunset = true
	if fc.Weather.SunriseSunset != nil {
		cfg.SunriseSunset = *fc.Weather.SunriseSunset
	}
	cfg.MaxQueryLen = fc.Weather.MaxQueryLen
	if cfg.MaxQueryLen <= 0 {
		cfg.MaxQueryLen = validation.DefaultMaxQueryLen
	}

	cfg.StoreBackend = strings.TrimSpace(strings.ToLower(os.Getenv("STORE_BACKEND")))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = strings.TrimSpace(strings.ToLower(fc.Store.Backend))
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = store.BackendMemory
	}
	cfg.StoreDSN = firstNonEmpty(os.Getenv("STORE_DSN"), sec.StoreDSN, fc.Store.DSN)
	cfg.MemcachedAddrs = firstNonEmpty(strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS")), strings.TrimSpace(fc.Store.Memcached.Addrs), "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Store.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Store.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.BreakerFailureThreshold = 5
	if fc.CircuitBreaker.FailureThreshold != nil {
		if *fc.CircuitBreaker.FailureThreshold < 0 {
			return nil, fmt.Errorf("circuit_breaker.failure_threshold must not be negative")
		}
		cfg.BreakerFailureThreshold = uint32(*fc.CircuitBreaker.FailureThreshold)
	}
	cfg.BreakerOpenTimeout = parseDuration(fc.CircuitBreaker.OpenTimeout, 30*time.Second)
	cfg.BreakerHalfOpenRequests = 1
	if fc.CircuitBreaker.HalfOpenRequests > 0 {
		cfg.BreakerHalfOpenRequests = uint32(fc.CircuitBreaker.HalfOpenRequests)
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 20
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 40
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	cfg.OverloadWindow = parseDuration(fc.Health.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = fc.Health.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}
	cfg.DegradedWindow = parseDuration(fc.Health.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}

	if err := validate(cfg, client.NewRegistry()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ClientConfig builds the adapter configuration for u with the shared breaker settings.
func (c *Config) ClientConfig(u Upstream) client.Config {
	return client.Config{
		Provider:    u.Provider,
		APIKey:      u.APIKey,
		BaseURL:     u.URL,
		Timeout:     u.Timeout,
		MaxAttempts: u.MaxAttempts,
		StartRadius: u.StartRadius,
		RadiusStep:  u.RadiusStep,
		Breaker: client.BreakerConfig{
			FailureThreshold: c.BreakerFailureThreshold,
			OpenTimeout:      c.BreakerOpenTimeout,
			HalfOpenRequests: c.BreakerHalfOpenRequests,
		},
	}
}

// StoreConfig builds the preference store configuration.
func (c *Config) StoreConfig() store.Config {
	return store.Config{
		Backend:      c.StoreBackend,
		DSN:          c.StoreDSN,
		Memcached:    c.MemcachedAddrs,
		Timeout:      c.MemcachedTimeout,
		MaxIdleConns: c.MemcachedMaxIdleConns,
	}
}

func upstreamFrom(f upstreamFile, defaultProvider, apiKey string) Upstream {
	return Upstream{
		Provider:    strings.ToLower(firstNonEmpty(strings.TrimSpace(f.Provider), defaultProvider)),
		APIKey:      apiKey,
		URL:         strings.TrimSpace(f.URL),
		Timeout:     parseDurationOrZero(f.Timeout, 3*time.Second),
		MaxAttempts: f.MaxAttempts,
		StartRadius: f.StartRadius,
		RadiusStep:  f.RadiusStep,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Zero or negative durations are returned as-is so validate can reject them.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate checks provider names against reg, upstream timeouts, and the store backend.
// RequestTimeout is raised above the slowest upstream timeout when needed.
func validate(cfg *Config, reg *client.Registry) error {
	geocoding, weather, airQuality := reg.Names()
	checks := []struct {
		section string
		u       Upstream
		names   []string
	}{
		{"geocoding", cfg.Geocoding, geocoding},
		{"weather", cfg.Weather, weather},
		{"air_quality", cfg.AirQuality, airQuality},
	}
	for _, c := range checks {
		if !slices.Contains(c.names, c.u.Provider) {
			return fmt.Errorf("%s.provider must be one of %s, got %q", c.section, strings.Join(c.names, ", "), c.u.Provider)
		}
		if c.u.Timeout <= 0 {
			return fmt.Errorf("%s.timeout must be positive", c.section)
		}
		if cfg.RequestTimeout <= c.u.Timeout {
			cfg.RequestTimeout = c.u.Timeout + time.Second
		}
	}
	if !slices.Contains(store.Backends(), cfg.StoreBackend) {
		return fmt.Errorf("store.backend must be one of %s, got %q", strings.Join(store.Backends(), ", "), cfg.StoreBackend)
	}
	if (cfg.StoreBackend == store.BackendSQLite || cfg.StoreBackend == store.BackendPostgres) && cfg.StoreDSN == "" {
		return fmt.Errorf("store.dsn required for %s backend", cfg.StoreBackend)
	}
	return nil
}
