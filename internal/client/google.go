package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"
	"github.com/kelvins/geocoder/structs"

	"github.com/kjstillabower/lookoutside/internal/models"
)

// GoogleGeocoder resolves locations with the Google Geocoding API. One forward lookup
// returns both the coordinates and the address components used for the label.
type GoogleGeocoder struct {
	apiKey  string
	baseURL *url.URL
	up      *upstream
}

func NewGoogleGeocoder(cfg Config) (*GoogleGeocoder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: google geocoding API key is required", ErrInvalidAPIKey)
	}
	base, err := parseBaseURL(cfg.BaseURL, strings.TrimSuffix(geocoder.ApiUrl, "?"))
	if err != nil {
		return nil, err
	}
	return &GoogleGeocoder{
		apiKey:  cfg.APIKey,
		baseURL: base,
		up:      newUpstream("google", cfg.Timeout, cfg.Breaker),
	}, nil
}

// googleStatusCodes maps non-OK API statuses, which arrive with HTTP 200, onto HTTP
// codes so they categorise like the other providers' errors.
var googleStatusCodes = map[string]int{
	"REQUEST_DENIED":   http.StatusForbidden,
	"OVER_QUERY_LIMIT": http.StatusTooManyRequests,
	"INVALID_REQUEST":  http.StatusBadRequest,
}

// Resolve returns the first match for query. ZERO_RESULTS or an empty list is ErrNotFound.
func (g *GoogleGeocoder) Resolve(ctx context.Context, query string) (models.ResolvedLocation, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	resp, err := g.up.get(ctx, withQuery(g.baseURL, params))
	if err != nil {
		return models.ResolvedLocation{}, err
	}

	var payload structs.Results
	decodeErr := json.Unmarshal(resp.body, &payload)
	if !isSuccess(resp.status) {
		return models.ResolvedLocation{}, g.up.statusError(resp.status, payload.ErrorMessage)
	}
	if decodeErr != nil {
		return models.ResolvedLocation{}, fmt.Errorf("%w: %v", errParse, decodeErr)
	}

	status := strings.ToUpper(payload.Status)
	switch {
	case status == "ZERO_RESULTS", status == "OK" && len(payload.Results) == 0:
		return models.ResolvedLocation{}, fmt.Errorf("%w: no geocoding match for %q", ErrNotFound, query)
	case status != "OK":
		code, ok := googleStatusCodes[status]
		if !ok {
			code = http.StatusBadGateway
		}
		msg := payload.ErrorMessage
		if msg == "" {
			msg = status
		}
		return models.ResolvedLocation{}, g.up.statusError(code, msg)
	}

	result := payload.Results[0]
	return models.ResolvedLocation{
		Latitude:  result.Geometry.Location.Lat,
		Longitude: result.Geometry.Location.Lng,
		Label:     googleLabel(result.AddressComponents),
	}, nil
}

// googleLabel mirrors the LocationIQ ladder: city, county, then district. Country is the
// short ISO code.
func googleLabel(components []structs.Address) string {
	var city, county, district, state, cc string
	for _, c := range components {
		for _, t := range c.Types {
			switch t {
			case "locality", "postal_town":
				if city == "" {
					city = c.LongName
				}
			case "administrative_area_level_2":
				county = c.LongName
			case "sublocality", "sublocality_level_1":
				district = c.LongName
			case "administrative_area_level_1":
				state = c.LongName
			case "country":
				cc = strings.ToUpper(c.ShortName)
			}
		}
	}
	switch {
	case city != "":
		return joinLabel(city, state, cc)
	case county != "":
		return joinLabel(county, state, cc)
	case district != "":
		return joinLabel(district, cc)
	}
	return "Unknown"
}
