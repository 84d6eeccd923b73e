package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/kjstillabower/lookoutside/internal/format"
	"github.com/kjstillabower/lookoutside/internal/models"
)

// WeatherProvider fetches current conditions and a short daily forecast for coordinates.
type WeatherProvider interface {
	Current(ctx context.Context, loc models.ResolvedLocation) (models.CurrentWeather, error)
	Forecast(ctx context.Context, loc models.ResolvedLocation) (models.ForecastSet, error)
}

const openWeatherMapURL = "https://api.openweathermap.org/data/2.5/onecall"

const (
	excludeForCurrent  = "minutely,hourly,daily"
	excludeForForecast = "current,minutely,hourly"
)

// OpenWeatherMap implements WeatherProvider with the OpenWeatherMap one-call API.
type OpenWeatherMap struct {
	apiKey  string
	baseURL *url.URL
	up      *upstream
}

func NewOpenWeatherMap(cfg Config) (*OpenWeatherMap, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openweathermap API key is required", ErrInvalidAPIKey)
	}
	base, err := parseBaseURL(cfg.BaseURL, openWeatherMapURL)
	if err != nil {
		return nil, err
	}
	return &OpenWeatherMap{
		apiKey:  cfg.APIKey,
		baseURL: base,
		up:      newUpstream("openweathermap", cfg.Timeout, cfg.Breaker),
	}, nil
}

type owmCondition struct {
	Main string `json:"main"`
}

type oneCallResponse struct {
	Timezone string `json:"timezone"`
	Current  *struct {
		Temp      float64        `json:"temp"`
		Humidity  float64        `json:"humidity"`
		WindSpeed float64        `json:"wind_speed"`
		WindDeg   float64        `json:"wind_deg"`
		Sunrise   int64          `json:"sunrise"`
		Sunset    int64          `json:"sunset"`
		Weather   []owmCondition `json:"weather"`
	} `json:"current"`
	Daily []struct {
		Dt   int64 `json:"dt"`
		Temp struct {
			Min float64 `json:"min"`
			Max float64 `json:"max"`
		} `json:"temp"`
		Weather []owmCondition `json:"weather"`
	} `json:"daily"`
}

func (c *OpenWeatherMap) Current(ctx context.Context, loc models.ResolvedLocation) (models.CurrentWeather, error) {
	payload, err := c.oneCall(ctx, loc, excludeForCurrent)
	if err != nil {
		return models.CurrentWeather{}, err
	}
	if payload.Current == nil {
		return models.CurrentWeather{}, fmt.Errorf("%w: missing current section", errParse)
	}
	cur := payload.Current
	return models.CurrentWeather{
		Location:  loc.Label,
		Temp:      cur.Temp,
		Condition: conditionName(cur.Weather),
		Humidity:  cur.Humidity / 100,
		Wind:      models.Wind{Speed: cur.WindSpeed, Bearing: cur.WindDeg},
		Sunrise:   format.ClockTime(cur.Sunrise, payload.Timezone),
		Sunset:    format.ClockTime(cur.Sunset, payload.Timezone),
	}, nil
}

// Forecast keeps the first models.MaxForecastDays daily entries in provider order.
func (c *OpenWeatherMap) Forecast(ctx context.Context, loc models.ResolvedLocation) (models.ForecastSet, error) {
	payload, err := c.oneCall(ctx, loc, excludeForForecast)
	if err != nil {
		return models.ForecastSet{}, err
	}

	zone, err := time.LoadLocation(payload.Timezone)
	if err != nil || payload.Timezone == "" {
		zone = time.UTC
	}
	daily := payload.Daily
	if len(daily) > models.MaxForecastDays {
		daily = daily[:models.MaxForecastDays]
	}
	set := models.ForecastSet{Location: loc.Label, Days: make([]models.ForecastDay, 0, len(daily))}
	for _, d := range daily {
		set.Days = append(set.Days, models.ForecastDay{
			DayOfWeek: time.Unix(d.Dt, 0).In(zone).Weekday().String(),
			Summary:   conditionName(d.Weather),
			HighTemp:  d.Temp.Max,
			LowTemp:   d.Temp.Min,
		})
	}
	return set, nil
}

func (c *OpenWeatherMap) oneCall(ctx context.Context, loc models.ResolvedLocation, exclude string) (oneCallResponse, error) {
	params := url.Values{}
	params.Set("appid", c.apiKey)
	params.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	params.Set("units", "metric")
	params.Set("exclude", exclude)

	resp, err := c.up.get(ctx, withQuery(c.baseURL, params))
	if err != nil {
		return oneCallResponse{}, err
	}
	if !isSuccess(resp.status) {
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(resp.body, &payload)
		return oneCallResponse{}, c.up.statusError(resp.status, payload.Message)
	}

	var payload oneCallResponse
	if err := json.Unmarshal(resp.body, &payload); err != nil {
		return oneCallResponse{}, fmt.Errorf("%w: %v", errParse, err)
	}
	return payload, nil
}

func conditionName(items []owmCondition) string {
	if len(items) == 0 || items[0].Main == "" {
		return "Unknown"
	}
	return items[0].Main
}
