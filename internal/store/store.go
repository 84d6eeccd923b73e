package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Preference keys. Values are stored as strings; an absent key means unset.
const (
	KeyLatitude      = "latitude"
	KeyLongitude     = "longitude"
	KeyLocation      = "location"
	KeyUnits         = "weather-units"
	KeyShowCondition = "weather-show-condition"
	KeyShowHumidity  = "weather-show-humidity"
	KeyShowSunrise   = "weather-show-sunriseset"
	KeyShowWind      = "weather-show-wind"
	KeyShowAQI       = "weather-show-aqi"
	KeyNag           = "weather-config-nag"
)

// Backend names accepted by Open.
const (
	BackendMemory    = "memory"
	BackendSQLite    = "sqlite"
	BackendPostgres  = "postgres"
	BackendMemcached = "memcached"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Store is a per-user key/value preference store.
type Store interface {
	Get(ctx context.Context, user, key string) (string, bool, error)
	Set(ctx context.Context, user, key, value string) error
	Delete(ctx context.Context, user string, keys ...string) error
	// Ping checks backend reachability. Used for health checks.
	Ping(ctx context.Context) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	// DSN is the sqlite file path or postgres connection string.
	DSN string
	// Memcached is a comma-separated server list.
	Memcached    string
	Timeout      time.Duration
	MaxIdleConns int
}

// Backends lists the names Open accepts.
func Backends() []string {
	return []string{BackendMemory, BackendSQLite, BackendPostgres, BackendMemcached}
}

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite:
		return OpenSQL(ctx, DialectSQLite, cfg.DSN)
	case BackendPostgres:
		return OpenSQL(ctx, DialectPostgres, cfg.DSN)
	case BackendMemcached:
		return NewMemcachedStore(cfg.Memcached, cfg.Timeout, cfg.MaxIdleConns)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}

// normalizeUser folds nick case so "Nick" and "nick" share preferences.
func normalizeUser(user string) string {
	return strings.ToLower(strings.TrimSpace(user))
}
