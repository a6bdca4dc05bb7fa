// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/baseyfare/pasahe/metrics"
	"github.com/baseyfare/pasahe/spatial"
	"github.com/baseyfare/pasahe/utils/httputils"
)

// DefaultGoogleEndpoint is the Geocoding API JSON endpoint.
const DefaultGoogleEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleOptions configures a GoogleReverseGeocoder.
type GoogleOptions struct {
	// Endpoint overrides DefaultGoogleEndpoint.
	Endpoint string
	// Language of the formatted address; defaults to "en".
	Language string
	// Trace, when set, receives a dump of every HTTP exchange.
	Trace io.Writer
	// UserAgent sent with every request.
	UserAgent string
}

// GoogleReverseGeocoder uses the Google Maps Geocoding API.
type GoogleReverseGeocoder struct {
	apiKey     string
	endpoint   string
	language   string
	httpClient *http.Client
}

// NewGoogleReverseGeocoder creates a new Google Maps reverse geocoder.
func NewGoogleReverseGeocoder(apiKey string, opts GoogleOptions) *GoogleReverseGeocoder {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultGoogleEndpoint
	}

	language := opts.Language
	if language == "" {
		language = "en"
	}

	var rt http.RoundTripper = &httputils.LoggingRoundTripper{
		Transport:    http.DefaultTransport,
		Writer:       opts.Trace,
		DumpBody:     true,
		RedactParams: []string{"key"},
	}

	if opts.UserAgent != "" {
		rt = &httputils.AppendRequestHeadersRoundTripper{
			Transport: rt,
			Headers:   map[string]string{"User-Agent": opts.UserAgent},
		}
	}

	return &GoogleReverseGeocoder{
		apiKey:   apiKey,
		endpoint: endpoint,
		language: language,
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: rt,
		},
	}
}

type googleMapsResponse struct {
	Results []struct {
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
		FormattedAddress string   `json:"formatted_address"`
		Types            []string `json:"types"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

// ReverseGeocode implements ReverseGeocoder.
func (g *GoogleReverseGeocoder) ReverseGeocode(ctx context.Context, c spatial.Coordinate) (*ReverseGeocodingResult, error) {
	start := time.Now()

	result, err := g.reverseGeocode(ctx, c)

	metrics.OracleDuration.Observe(time.Since(start).Seconds())
	metrics.OracleRequests.WithLabelValues(outcome(err)).Inc()

	return result, err
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}

	return string(ErrorTypeOf(err))
}

func (g *GoogleReverseGeocoder) reverseGeocode(ctx context.Context, c spatial.Coordinate) (*ReverseGeocodingResult, error) {
	if g.apiKey == "" {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "google maps API key is not configured"}
	}

	params := url.Values{}
	params.Set("latlng", c.String())
	params.Set("key", g.apiKey)
	params.Set("language", g.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building reverse geocoding request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		return nil, httpStatusError(resp.StatusCode)
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	if gmResp.Status != "OK" {
		return nil, apiStatusError(gmResp.Status, gmResp.ErrorMessage)
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("no results for %s", c)}
	}

	// Results come most specific first. Components missing from the first
	// result are taken from the following ones.
	first := gmResp.Results[0]
	components := map[string]string{}

	for _, r := range gmResp.Results {
		for _, ac := range r.AddressComponents {
			for _, t := range ac.Types {
				if _, seen := components[t]; !seen {
					components[t] = ac.LongName
				}
			}
		}
	}

	return &ReverseGeocodingResult{
		FormattedAddress: first.FormattedAddress,
		Municipality:     firstNonEmpty(components["locality"], components["administrative_area_level_3"]),
		Province:         firstNonEmpty(components["administrative_area_level_2"], components["administrative_area_level_1"]),
		Country:          components["country"],
		PlaceTypes:       first.Types,
		Provider:         "google_maps",
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
