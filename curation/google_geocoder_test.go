// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseyfare/pasahe/spatial"
)

const baseyHallResponse = `{
  "results": [
    {
      "address_components": [
        {"long_name": "Basey Municipal Hall", "short_name": "Basey Municipal Hall", "types": ["establishment", "point_of_interest"]},
        {"long_name": "Basey", "short_name": "Basey", "types": ["locality", "political"]},
        {"long_name": "Samar", "short_name": "Samar", "types": ["administrative_area_level_2", "political"]},
        {"long_name": "Eastern Visayas", "short_name": "Eastern Visayas", "types": ["administrative_area_level_1", "political"]},
        {"long_name": "Philippines", "short_name": "PH", "types": ["country", "political"]}
      ],
      "formatted_address": "Basey Municipal Hall, Basey, Samar, Philippines",
      "types": ["establishment", "point_of_interest"]
    }
  ],
  "status": "OK"
}`

const ruralResponse = `{
  "results": [
    {
      "address_components": [
        {"long_name": "Guirang", "short_name": "Guirang", "types": ["administrative_area_level_5", "political"]}
      ],
      "formatted_address": "Guirang, Basey, Samar, Philippines",
      "types": ["administrative_area_level_5", "political"]
    },
    {
      "address_components": [
        {"long_name": "Basey", "short_name": "Basey", "types": ["administrative_area_level_3", "political"]},
        {"long_name": "Samar", "short_name": "Samar", "types": ["administrative_area_level_2", "political"]},
        {"long_name": "Philippines", "short_name": "PH", "types": ["country", "political"]}
      ],
      "formatted_address": "Basey, Samar, Philippines",
      "types": ["administrative_area_level_3", "political"]
    }
  ],
  "status": "OK"
}`

// newGoogleTestServer serves a canned Geocoding API answer and returns a
// function yielding the last request received.
func newGoogleTestServer(t *testing.T, status int, body string) (*httptest.Server, func() *http.Request) {
	t.Helper()

	var (
		mu   sync.Mutex
		last *http.Request
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last = r.Clone(context.Background())
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, func() *http.Request {
		mu.Lock()
		defer mu.Unlock()

		return last
	}
}

func TestGoogleReverseGeocode(t *testing.T) {
	srv, lastRequest := newGoogleTestServer(t, http.StatusOK, baseyHallResponse)

	var trace bytes.Buffer

	g := NewGoogleReverseGeocoder("test-key", GoogleOptions{
		Endpoint:  srv.URL,
		Trace:     &trace,
		UserAgent: "pasahe-test",
	})

	got, err := g.ReverseGeocode(context.Background(), spatial.Coordinate{Lat: 11.282621, Lng: 125.068848})
	require.NoError(t, err)

	want := &ReverseGeocodingResult{
		FormattedAddress: "Basey Municipal Hall, Basey, Samar, Philippines",
		Municipality:     "Basey",
		Province:         "Samar",
		Country:          "Philippines",
		PlaceTypes:       []string{"establishment", "point_of_interest"},
		Provider:         "google_maps",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReverseGeocode() mismatch (-want +got):\n%s", diff)
	}

	last := lastRequest()
	require.NotNil(t, last)

	q := last.URL.Query()
	assert.Equal(t, "11.282621,125.068848", q.Get("latlng"))
	assert.Equal(t, "test-key", q.Get("key"))
	assert.Equal(t, "en", q.Get("language"))
	assert.Equal(t, "pasahe-test", last.Header.Get("User-Agent"))

	assert.Contains(t, trace.String(), "< RESPONSE: [")
	assert.NotContains(t, trace.String(), "test-key", "the API key must not be traced")
}

func TestGoogleReverseGeocodeFallbackComponents(t *testing.T) {
	srv, _ := newGoogleTestServer(t, http.StatusOK, ruralResponse)
	g := NewGoogleReverseGeocoder("test-key", GoogleOptions{Endpoint: srv.URL})

	got, err := g.ReverseGeocode(context.Background(), spatial.Coordinate{Lat: 11.3, Lng: 125.1})
	require.NoError(t, err)

	assert.Equal(t, "Basey", got.Municipality, "administrative_area_level_3 stands in for locality")
	assert.Equal(t, "Samar", got.Province)
	assert.Equal(t, "Philippines", got.Country)
	assert.Equal(t, "Guirang, Basey, Samar, Philippines", got.FormattedAddress)
	assert.Equal(t, []string{"administrative_area_level_5", "political"}, got.PlaceTypes)
}

func TestGoogleReverseGeocodeWithoutKey(t *testing.T) {
	g := NewGoogleReverseGeocoder("", GoogleOptions{Endpoint: "http://127.0.0.1:0"})

	_, err := g.ReverseGeocode(context.Background(), spatial.Coordinate{Lat: 11.28, Lng: 125.06})

	var geoErr *GeocodingError
	require.True(t, errors.As(err, &geoErr))
	assert.Equal(t, ErrorTypeInvalidRequest, geoErr.Type)
}

func TestGoogleReverseGeocodeTimeout(t *testing.T) {
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	g := NewGoogleReverseGeocoder("test-key", GoogleOptions{Endpoint: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.ReverseGeocode(ctx, spatial.Coordinate{Lat: 11.28, Lng: 125.06})
	require.Error(t, err)
	assert.True(t, IsTimeoutError(err), "error %v should be a timeout", err)
	assert.True(t, strings.Contains(err.Error(), "reverse geocoding request failed"))
}
