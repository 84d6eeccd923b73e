package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kjstillabower/lookoutside/internal/models"
)

// GeocodingProvider resolves a free-text query to coordinates and a display label.
type GeocodingProvider interface {
	Resolve(ctx context.Context, query string) (models.ResolvedLocation, error)
}

const locationIQURL = "https://us1.locationiq.com/v1/search.php"

// LocationIQ geocodes with the LocationIQ search API. Point BaseURL at the EU endpoint for EU users.
type LocationIQ struct {
	apiKey  string
	baseURL *url.URL
	up      *upstream
}

func NewLocationIQ(cfg Config) (*LocationIQ, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: locationiq API key is required", ErrInvalidAPIKey)
	}
	base, err := parseBaseURL(cfg.BaseURL, locationIQURL)
	if err != nil {
		return nil, err
	}
	return &LocationIQ{
		apiKey:  cfg.APIKey,
		baseURL: base,
		up:      newUpstream("locationiq", cfg.Timeout, cfg.Breaker),
	}, nil
}

type locationIQPlace struct {
	Lat     string            `json:"lat"`
	Lon     string            `json:"lon"`
	Address map[string]string `json:"address"`
}

// Resolve returns the first match for query. An empty result list is ErrNotFound.
func (g *LocationIQ) Resolve(ctx context.Context, query string) (models.ResolvedLocation, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	resp, err := g.up.get(ctx, withQuery(g.baseURL, params))
	if err != nil {
		return models.ResolvedLocation{}, err
	}
	if !isSuccess(resp.status) {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(resp.body, &payload)
		return models.ResolvedLocation{}, g.up.statusError(resp.status, payload.Error)
	}

	var places []locationIQPlace
	if err := json.Unmarshal(resp.body, &places); err != nil {
		return models.ResolvedLocation{}, fmt.Errorf("%w: %v", errParse, err)
	}
	if len(places) == 0 {
		return models.ResolvedLocation{}, fmt.Errorf("%w: no geocoding match for %q", ErrNotFound, query)
	}

	place := places[0]
	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return models.ResolvedLocation{}, fmt.Errorf("%w: latitude %q", errParse, place.Lat)
	}
	lon, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return models.ResolvedLocation{}, fmt.Errorf("%w: longitude %q", errParse, place.Lon)
	}
	return models.ResolvedLocation{
		Latitude:  lat,
		Longitude: lon,
		Label:     addressLabel(place.Address),
	}, nil
}

// addressLabel picks the most specific populated place name: city, town, county, then
// city_district. The first three are followed by state and country code; the district
// form carries only the country code.
func addressLabel(addr map[string]string) string {
	cc := strings.ToUpper(addr["country_code"])
	for _, key := range []string{"city", "town", "county"} {
		if name := addr[key]; name != "" {
			return joinLabel(name, addr["state"], cc)
		}
	}
	if district := addr["city_district"]; district != "" {
		return joinLabel(district, cc)
	}
	return "Unknown"
}

func joinLabel(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
