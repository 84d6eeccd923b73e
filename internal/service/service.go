package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/lookoutside/internal/client"
	"github.com/kjstillabower/lookoutside/internal/models"
	"github.com/kjstillabower/lookoutside/internal/observability"
	"github.com/kjstillabower/lookoutside/internal/store"
	"github.com/kjstillabower/lookoutside/internal/validation"
)

// Reply is the outcome of one command. Text goes to where the command was issued;
// Private lines go to the user directly.
type Reply struct {
	Text    string
	Private []string
}

// preferenceHint is sent privately the first time in each nag cycle that a user without
// a unit preference asks for the weather.
func preferenceHint(prefix string) []string {
	return []string{
		"I noticed that you have not told me how you like to see your weather!  You can tailor your experience by using the " + prefix + "weatherset (or " + prefix + "wset) command.",
		"You can set your units to Imperial (US), Metric (EU), or both, as well as setting any of the following features to true (shown) or false: condition | humidity | sunrise | wind | aqi. Use " + prefix + "help weatherset for more info!",
		"Don't worry if you don't have time, I'll remind you later (but not too often!)",
	}
}

// Defaults are server-wide fallbacks for users without a preference.
type Defaults struct {
	Units         models.UnitMode
	SunriseSunset bool
	MaxQueryLen   int
	// CommandPrefix is quoted in the preference hint. Empty means ".".
	CommandPrefix string
}

// Service answers weather, forecast, air quality and preference commands for one user at a time.
type Service struct {
	geocoder   client.GeocodingProvider
	weather    client.WeatherProvider
	airQuality client.AirQualityProvider // nil disables air quality
	store      store.Store
	defaults   Defaults
	logger     *zap.Logger
}

// New creates a Service. airQuality may be nil.
func New(geocoder client.GeocodingProvider, weather client.WeatherProvider, airQuality client.AirQualityProvider, st store.Store, defaults Defaults, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaults.CommandPrefix == "" {
		defaults.CommandPrefix = "."
	}
	return &Service{
		geocoder:   geocoder,
		weather:    weather,
		airQuality: airQuality,
		store:      st,
		defaults:   defaults,
		logger:     logger,
	}
}

// Weather reports current conditions at query, or at the saved location when query is blank.
func (s *Service) Weather(ctx context.Context, user, query string) (Reply, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx, s.logger)

	prefs, err := store.LoadPreferences(ctx, s.store, user)
	if err != nil {
		return Reply{}, err
	}
	loc, err := s.resolve(ctx, query, prefs)
	if err != nil {
		return Reply{}, err
	}
	cur, err := s.weather.Current(ctx, loc)
	if err != nil {
		return Reply{}, fmt.Errorf("current weather for %s: %w", loc.Label, err)
	}

	var reply Reply
	if !prefs.UnitsConfigured() {
		if prefs.Nag == 0 {
			reply.Private = preferenceHint(s.defaults.CommandPrefix)
			observability.PreferenceHintsTotal.Inc()
		}
		next := (prefs.Nag + 1) % models.NagCycle
		if err := store.SaveNag(ctx, s.store, user, next); err != nil {
			logger.Warn("save nag counter failed", zap.String("user", user), zap.Error(err))
		}
	}

	units := prefs.EffectiveUnits(s.defaults.Units)
	text := renderWeather(cur, prefs, units, s.defaults.SunriseSunset)
	if prefs.AQIShown() && s.airQuality != nil {
		sample, err := s.airQuality.Lookup(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			logger.Warn("air quality lookup failed, omitting from weather",
				zap.String("location", loc.Label), zap.Error(err))
		} else if readings := renderPollutants(sample); readings != "" {
			text += ", " + readings
		}
	}
	reply.Text = text

	logger.Debug("weather served", zap.String("location", loc.Label), zap.Duration("duration", time.Since(start)))
	return reply, nil
}

// Forecast reports the next days' summary and high/low temperatures.
func (s *Service) Forecast(ctx context.Context, user, query string) (Reply, error) {
	prefs, err := store.LoadPreferences(ctx, s.store, user)
	if err != nil {
		return Reply{}, err
	}
	loc, err := s.resolve(ctx, query, prefs)
	if err != nil {
		return Reply{}, err
	}
	set, err := s.weather.Forecast(ctx, loc)
	if err != nil {
		return Reply{}, fmt.Errorf("forecast for %s: %w", loc.Label, err)
	}
	return Reply{Text: renderForecast(set, prefs.EffectiveUnits(s.defaults.Units))}, nil
}

// AirQuality reports the nearest O3 and PM2.5 readings.
func (s *Service) AirQuality(ctx context.Context, user, query string) (Reply, error) {
	if s.airQuality == nil {
		return Reply{}, ErrAirQualityUnavailable
	}
	prefs, err := store.LoadPreferences(ctx, s.store, user)
	if err != nil {
		return Reply{}, err
	}
	loc, err := s.resolve(ctx, query, prefs)
	if err != nil {
		return Reply{}, err
	}
	sample, err := s.airQuality.Lookup(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		return Reply{}, fmt.Errorf("air quality for %s: %w", loc.Label, err)
	}
	return Reply{Text: renderAirQuality(sample)}, nil
}

// SetLocation geocodes query and saves it as the user's location. A blank query writes nothing.
func (s *Service) SetLocation(ctx context.Context, user, query string) (Reply, error) {
	q, err := validation.NormalizeQuery(query, s.defaults.MaxQueryLen)
	if err != nil {
		return Reply{}, err
	}
	if q == "" {
		return Reply{}, &MissingInputError{Field: "location"}
	}
	loc, err := s.geocoder.Resolve(ctx, q)
	if err != nil {
		return Reply{}, fmt.Errorf("geocode %q: %w", q, err)
	}
	if err := store.SaveLocation(ctx, s.store, user, loc); err != nil {
		return Reply{}, err
	}
	observability.LoggerFromContext(ctx, s.logger).Info("location saved",
		zap.String("user", user), zap.String("location", loc.Label))
	return Reply{Text: "I now have you at " + loc.Label}, nil
}

// resolve geocodes a non-blank query, or falls back to the saved location.
func (s *Service) resolve(ctx context.Context, query string, prefs models.UserPreferences) (models.ResolvedLocation, error) {
	q, err := validation.NormalizeQuery(query, s.defaults.MaxQueryLen)
	if err != nil {
		return models.ResolvedLocation{}, err
	}
	if q != "" {
		loc, err := s.geocoder.Resolve(ctx, q)
		if err != nil {
			return models.ResolvedLocation{}, fmt.Errorf("geocode %q: %w", q, err)
		}
		return loc, nil
	}
	if prefs.Location == nil {
		return models.ResolvedLocation{}, &MissingInputError{Field: "location", Err: ErrNoLocation}
	}
	return *prefs.Location, nil
}

// normalizeKey lowercases a preference key or value for comparison.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
