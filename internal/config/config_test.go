package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kjstillabower/lookoutside/internal/client"
	"github.com/kjstillabower/lookoutside/internal/models"
	"github.com/kjstillabower/lookoutside/internal/store"
)

const minimalEnvYAML = `
server:
  port: "8080"
geocoding:
  provider: locationiq
  timeout: "2s"
weather:
  provider: openweathermap
  timeout: "2s"
request:
  timeout: "5s"
`

const testSecrets = "geocoding_api_key: geo-key\nweather_api_key: weather-key\n"

func TestLoadDir_FailsWhenNoWeatherKey(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, "geocoding_api_key: geo-key\n")

	cfg, err := LoadDir(dir)
	if err == nil {
		t.Fatal("LoadDir() expected error when no weather key, got nil")
	}
	if cfg != nil {
		t.Fatalf("LoadDir() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "WEATHER_API_KEY") {
		t.Errorf("LoadDir() error = %v, want message containing WEATHER_API_KEY", err)
	}
}

func TestLoadDir_FailsWhenNoGeocodingKey(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, "weather_api_key: weather-key\n")

	_, err := LoadDir(dir)
	if err == nil || !strings.Contains(err.Error(), "GEOCODING_API_KEY") {
		t.Fatalf("LoadDir() error = %v, want message containing GEOCODING_API_KEY", err)
	}
}

func TestLoadDir_SecretsAndDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, testSecrets)

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.Geocoding.APIKey != "geo-key" || cfg.Weather.APIKey != "weather-key" {
		t.Errorf("keys = %q/%q, want values from secrets file", cfg.Geocoding.APIKey, cfg.Weather.APIKey)
	}
	if cfg.AirQuality.Enabled() {
		t.Error("AirQuality.Enabled() = true without an AirNow key")
	}
	if cfg.AirQuality.Provider != "airnow" {
		t.Errorf("AirQuality.Provider = %q, want airnow default", cfg.AirQuality.Provider)
	}
	if cfg.AirQuality.Timeout != 3*time.Second {
		t.Errorf("AirQuality.Timeout = %v, want 3s default", cfg.AirQuality.Timeout)
	}
	if cfg.DefaultUnits != models.UnitsBoth {
		t.Errorf("DefaultUnits = %q, want both", cfg.DefaultUnits)
	}
	if !cfg.SunriseSunset {
		t.Error("SunriseSunset = false, want true by default")
	}
	if cfg.StoreBackend != store.BackendMemory {
		t.Errorf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
	if cfg.CommandPrefix != "." {
		t.Errorf("CommandPrefix = %q, want .", cfg.CommandPrefix)
	}
	if cfg.MaxQueryLen != 100 {
		t.Errorf("MaxQueryLen = %d, want 100", cfg.MaxQueryLen)
	}
	if cfg.BreakerFailureThreshold != 5 {
		t.Errorf("BreakerFailureThreshold = %d, want 5", cfg.BreakerFailureThreshold)
	}
}

func TestLoadDir_EnvOverridesSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEATHER_API_KEY", "env-weather")
	t.Setenv("AIRNOW_API_KEY", "env-airnow")
	t.Setenv("STORE_BACKEND", "Memcached")
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	writeSecretsFile(t, dir, testSecrets)

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.Weather.APIKey != "env-weather" {
		t.Errorf("Weather.APIKey = %q, want env value", cfg.Weather.APIKey)
	}
	if !cfg.AirQuality.Enabled() {
		t.Error("AirQuality.Enabled() = false with AIRNOW_API_KEY set")
	}
	if cfg.StoreBackend != store.BackendMemcached {
		t.Errorf("StoreBackend = %q, want memcached", cfg.StoreBackend)
	}
}

func TestLoadDir_DotEnvLoadedFirst(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GEOCODING_API_KEY=dotenv-geo\nWEATHER_API_KEY=dotenv-weather\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.Geocoding.APIKey != "dotenv-geo" || cfg.Weather.APIKey != "dotenv-weather" {
		t.Errorf("keys = %q/%q, want values from .env", cfg.Geocoding.APIKey, cfg.Weather.APIKey)
	}
}

func TestLoadDir_EnvFileNotFound(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV_NAME", "nonexistent")

	cfg, err := LoadDir(t.TempDir())
	if err == nil {
		t.Fatal("LoadDir() expected error for missing env file, got nil")
	}
	if cfg != nil {
		t.Fatalf("LoadDir() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("LoadDir() error = %v, want message about config file not found", err)
	}
}

func TestLoadDir_InvalidYAML(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		secrets string
		want    string
	}{
		{name: "config", config: "not: valid: yaml: [[[", secrets: testSecrets, want: "parse config file"},
		{name: "secrets", config: minimalEnvYAML, secrets: "not valid: yaml: [[[", want: "parse secrets file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			writeEnvFile(t, dir, tt.config)
			writeSecretsFile(t, dir, tt.secrets)

			cfg, err := LoadDir(dir)
			if err == nil || cfg != nil {
				t.Fatalf("LoadDir() = %+v, %v; want error", cfg, err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadDir() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadDir_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		env   map[string]string
		want  string
	}{
		{
			name:  "unknown geocoding provider",
			extra: "geocoding:\n  provider: mapquest\n",
			want:  "geocoding.provider must be one of google, locationiq",
		},
		{
			name:  "zero weather timeout",
			extra: "weather:\n  timeout: \"0s\"\n",
			want:  "weather.timeout must be positive",
		},
		{
			name: "unknown store backend",
			env:  map[string]string{"STORE_BACKEND": "redis"},
			want: "store.backend must be one of",
		},
		{
			name:  "sqlite without dsn",
			extra: "store:\n  backend: sqlite\n",
			want:  "store.dsn required for sqlite",
		},
		{
			name:  "bad default units",
			extra: "weather:\n  units: kelvin\n",
			want:  "weather.units",
		},
		{
			name:  "negative breaker threshold",
			extra: "circuit_breaker:\n  failure_threshold: -1\n",
			want:  "failure_threshold",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			writeEnvFile(t, dir, "request:\n  timeout: \"5s\"\n"+tt.extra)
			writeSecretsFile(t, dir, testSecrets)

			cfg, err := LoadDir(dir)
			if err == nil {
				t.Fatalf("LoadDir() = %+v, want error", cfg)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadDir() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadDir_DurationFallbacks(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML+`
shutdown:
  timeout: "invalid"
circuit_breaker:
  open_timeout: ""
`)
	writeSecretsFile(t, dir, testSecrets)

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s fallback", cfg.ShutdownTimeout)
	}
	if cfg.BreakerOpenTimeout != 30*time.Second {
		t.Errorf("BreakerOpenTimeout = %v, want 30s fallback", cfg.BreakerOpenTimeout)
	}
}

func TestLoadDir_RequestTimeoutRaisedAboveUpstream(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, `
weather:
  timeout: "4s"
request:
  timeout: "2s"
`)
	writeSecretsFile(t, dir, testSecrets)

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s (slowest upstream + 1s)", cfg.RequestTimeout)
	}
}

func TestLoadDir_HealthAndAirQualitySections(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeEnvFile(t, dir, minimalEnvYAML+`
air_quality:
  provider: AirNow
  url: "http://airnow.test"
  max_attempts: 4
  start_radius: 10
  radius_step: 10
health:
  overload_window: "30s"
  overload_threshold_pct: 90
  degraded_window: "2m"
  degraded_error_pct: 10
`)
	writeSecretsFile(t, dir, testSecrets+"airnow_api_key: air-key\n")

	cfg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	aq := cfg.AirQuality
	if aq.Provider != "airnow" || aq.URL != "http://airnow.test" || aq.MaxAttempts != 4 || aq.StartRadius != 10 || aq.RadiusStep != 10 {
		t.Errorf("AirQuality = %+v", aq)
	}
	if cfg.OverloadWindow != 30*time.Second || cfg.OverloadThresholdPct != 90 {
		t.Errorf("overload = %v/%d, want 30s/90", cfg.OverloadWindow, cfg.OverloadThresholdPct)
	}
	if cfg.DegradedWindow != 2*time.Minute || cfg.DegradedErrorPct != 10 {
		t.Errorf("degraded = %v/%d, want 2m/10", cfg.DegradedWindow, cfg.DegradedErrorPct)
	}

	cc := cfg.ClientConfig(aq)
	want := client.Config{
		Provider:    "airnow",
		APIKey:      "air-key",
		BaseURL:     "http://airnow.test",
		Timeout:     3 * time.Second,
		MaxAttempts: 4,
		StartRadius: 10,
		RadiusStep:  10,
		Breaker: client.BreakerConfig{
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
			HalfOpenRequests: 1,
		},
	}
	if cc != want {
		t.Errorf("ClientConfig() = %+v, want %+v", cc, want)
	}
}

func TestLoad_ProjectDevConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEOCODING_API_KEY", "geo")
	t.Setenv("WEATHER_API_KEY", "weather")
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(findProjectRoot(t)); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWD) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort == "" || cfg.StoreBackend == "" {
		t.Errorf("Load() did not populate config from config/dev.yaml")
	}
	sc := cfg.StoreConfig()
	if sc.Backend != cfg.StoreBackend || sc.DSN != cfg.StoreDSN {
		t.Errorf("StoreConfig() = %+v, want backend/dsn from config", sc)
	}
}

// clearEnv unsets every variable Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ENV_NAME", "PORT", "GEOCODING_API_KEY", "WEATHER_API_KEY", "AIRNOW_API_KEY",
		"STORE_BACKEND", "STORE_DSN", "MEMCACHED_ADDRS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "dev.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func writeSecretsFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "secrets.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write secrets file: %v", err)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "config", "dev.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("config/dev.yaml not found (run tests from project root)")
		}
		dir = parent
	}
}
