package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kjstillabower/lookoutside/internal/models"
	"github.com/kjstillabower/lookoutside/internal/observability"
)

// AirQualityProvider returns the nearest pollutant observations for coordinates.
type AirQualityProvider interface {
	Lookup(ctx context.Context, lat, lon float64) (models.AirQualitySample, error)
}

const airNowURL = "https://www.airnowapi.org/aq/observation/latLong/current/"

const (
	defaultMaxAttempts = 10
	defaultStartRadius = 5
	defaultRadiusStep  = 5
)

// AirNow implements AirQualityProvider with the AirNow current-observation API. When
// a search finds nothing it widens the radius by RadiusStep miles, up to MaxAttempts searches.
type AirNow struct {
	apiKey      string
	baseURL     *url.URL
	up          *upstream
	maxAttempts int
	startRadius int
	radiusStep  int
}

func NewAirNow(cfg Config) (*AirNow, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: airnow API key is required", ErrInvalidAPIKey)
	}
	base, err := parseBaseURL(cfg.BaseURL, airNowURL)
	if err != nil {
		return nil, err
	}
	a := &AirNow{
		apiKey:      cfg.APIKey,
		baseURL:     base,
		up:          newUpstream("airnow", cfg.Timeout, cfg.Breaker),
		maxAttempts: cfg.MaxAttempts,
		startRadius: cfg.StartRadius,
		radiusStep:  cfg.RadiusStep,
	}
	if a.maxAttempts <= 0 {
		a.maxAttempts = defaultMaxAttempts
	}
	if a.startRadius <= 0 {
		a.startRadius = defaultStartRadius
	}
	if a.radiusStep <= 0 {
		a.radiusStep = defaultRadiusStep
	}
	return a, nil
}

type airNowObservation struct {
	ReportingArea string `json:"ReportingArea"`
	StateCode     string `json:"StateCode"`
	ParameterName string `json:"ParameterName"`
	AQI           int    `json:"AQI"`
	Category      struct {
		Name string `json:"Name"`
	} `json:"Category"`
}

// Lookup searches outward from startRadius. Non-success responses and empty result sets
// both widen the search; an open circuit breaker or a cancelled context stops it.
func (a *AirNow) Lookup(ctx context.Context, lat, lon float64) (models.AirQualitySample, error) {
	radius := a.startRadius
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		obs, err := a.search(ctx, lat, lon, radius)
		if err != nil {
			if ctx.Err() != nil {
				return models.AirQualitySample{}, ctx.Err()
			}
			if errors.Is(err, ErrCircuitOpen) {
				return models.AirQualitySample{}, err
			}
		}
		if len(obs) > 0 {
			observability.AirQualityAttempts.Observe(float64(attempt))
			return sampleFromObservations(obs), nil
		}
		radius += a.radiusStep
	}
	observability.AirQualityAttempts.Observe(float64(a.maxAttempts))
	lastRadius := a.startRadius + (a.maxAttempts-1)*a.radiusStep
	return models.AirQualitySample{}, fmt.Errorf("%w: no air quality observations within %d miles", ErrNotFound, lastRadius)
}

func (a *AirNow) search(ctx context.Context, lat, lon float64, radius int) ([]airNowObservation, error) {
	params := url.Values{}
	params.Set("format", "application/json")
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 2, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 2, 64))
	params.Set("distance", strconv.Itoa(radius))
	params.Set("API_KEY", a.apiKey)

	resp, err := a.up.get(ctx, withQuery(a.baseURL, params))
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp.status) {
		return nil, a.up.statusError(resp.status, "")
	}
	var obs []airNowObservation
	if err := json.Unmarshal(resp.body, &obs); err != nil {
		return nil, fmt.Errorf("%w: %v", errParse, err)
	}
	return obs, nil
}

// sampleFromObservations copies populated fields only. Observations are matched to the O3
// and PM2.5 slots by parameter name; unnamed ones fill the slots in order.
func sampleFromObservations(obs []airNowObservation) models.AirQualitySample {
	var sample models.AirQualitySample
	var o3, pm *airNowObservation
	for i := range obs {
		o := &obs[i]
		switch o.ParameterName {
		case "O3":
			if o3 == nil {
				o3 = o
			}
		case "PM2.5":
			if pm == nil {
				pm = o
			}
		default:
			if i == 0 && o3 == nil {
				o3 = o
			} else if i == 1 && pm == nil {
				pm = o
			}
		}
	}

	first := obs[0]
	sample.ReportingArea = nonEmpty(first.ReportingArea)
	sample.State = nonEmpty(first.StateCode)
	if o3 != nil {
		sample.O3AQI = nonZero(o3.AQI)
		sample.O3Status = nonEmpty(o3.Category.Name)
	}
	if pm != nil {
		sample.PMAQI = nonZero(pm.AQI)
		sample.PMStatus = nonEmpty(pm.Category.Name)
	}
	return sample
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}
