// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseyfare/pasahe/boundary"
	"github.com/baseyfare/pasahe/fare"
	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/baseyfare/pasahe/spatial"
)

func testLocations() *gazetteer.Gazetteer {
	return gazetteer.New(gazetteer.Metadata{Municipality: "Basey", Province: "Samar"}, []gazetteer.NamedLocation{
		{Name: "Poblacion I", Coordinate: spatial.Coordinate{Lat: 11.28, Lng: 125.065}, Category: gazetteer.CategoryZone, Verified: true},
		{Name: "Buscada", Coordinate: spatial.Coordinate{Lat: 11.29, Lng: 125.07}, Category: gazetteer.CategoryZone, Verified: true},
		{Name: "Basey Church", Coordinate: spatial.Coordinate{Lat: 11.2822, Lng: 125.0691}, Category: gazetteer.CategoryLandmark},
		{Name: "Sitio Cogon", Coordinate: spatial.Coordinate{Lat: 11.29, Lng: 125.075}, Category: gazetteer.CategorySitio},
	})
}

// setupServerTest initializes a gin router over test zones, locations, a
// fake oracle and an in-memory registry.
func setupServerTest(t *testing.T) (*gin.Engine, gazetteer.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	idx := newTestIndex(t)

	engine, err := fare.NewEngine(fare.DefaultSchedule())
	require.NoError(t, err)

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	registry := gazetteer.NewRepository(db)
	require.NoError(t, registry.CreateSchema())

	server := NewServer(
		idx,
		fare.NewQuoter(engine, boundary.NewAnalyzer(idx)),
		testLocations(),
		NewPipeline(idx, baseyOracle(), PipelineOptions{}),
		registry,
	)

	return server.Router(), registry
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())

	return v
}

func TestHealthz(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[map[string]any](t, w)
	assert.Equal(t, "ok", got["status"])
	assert.EqualValues(t, 3, got["zones"])
	assert.EqualValues(t, 4, got["locations"])
}

func TestListZones(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/zones?urban_core=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Zones []struct {
			Name string `json:"name"`
			Code string `json:"code"`
		} `json:"zones"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "BRGY_1", got.Zones[0].Code)

	w = doJSON(t, router, http.MethodGet, "/api/zones?q=nino", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "Sto. Niño", got.Zones[0].Name)
}

func TestLookupZone(t *testing.T) {
	router, _ := setupServerTest(t)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantZone string
	}{
		{name: "coordinates", path: "/api/zones/lookup?coordinates=11.28,125.065", wantCode: http.StatusOK, wantZone: "BRGY_1"},
		{name: "lat and lng", path: "/api/zones/lookup?lat=11.29&lng=125.07", wantCode: http.StatusOK, wantZone: "BRGY_3"},
		{name: "unmapped", path: "/api/zones/lookup?coordinates=11.2,125.1", wantCode: http.StatusOK},
		{name: "malformed", path: "/api/zones/lookup?coordinates=not,a,coord", wantCode: http.StatusBadRequest},
		{name: "missing", path: "/api/zones/lookup", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.wantCode, w.Code, "body: %s", w.Body.String())

			if tt.wantCode != http.StatusOK {
				assert.Contains(t, decode[map[string]string](t, w), "error")

				return
			}

			var got struct {
				Zone *struct {
					Code string `json:"code"`
				} `json:"zone"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))

			if tt.wantZone == "" {
				assert.Nil(t, got.Zone)
			} else {
				require.NotNil(t, got.Zone)
				assert.Equal(t, tt.wantZone, got.Zone.Code)
			}
		})
	}
}

func TestNeighbors(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/zones/BRGY_1/neighbors?max_km=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Neighbors []struct {
			Zone struct {
				Code string `json:"code"`
			} `json:"zone"`
			DistanceKm float64 `json:"distance_km"`
		} `json:"neighbors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got.Neighbors, 2)
	assert.LessOrEqual(t, got.Neighbors[0].DistanceKm, got.Neighbors[1].DistanceKm)

	w = doJSON(t, router, http.MethodGet, "/api/zones/nowhere/neighbors", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/zones/BRGY_1/neighbors?max_km=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportZones(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/zones/geojson", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/geo+json", w.Header().Get("Content-Type"))

	var got struct {
		Type     string `json:"type"`
		Features []any  `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "FeatureCollection", got.Type)
	assert.Len(t, got.Features, 3)
}

func TestZoneCache(t *testing.T) {
	router, _ := setupServerTest(t)

	doJSON(t, router, http.MethodGet, "/api/zones/lookup?coordinates=11.28,125.065", nil)
	doJSON(t, router, http.MethodGet, "/api/zones/lookup?coordinates=11.28,125.065", nil)

	w := doJSON(t, router, http.MethodGet, "/api/zones/cache", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats struct {
		Size int `json:"size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Size)

	w = doJSON(t, router, http.MethodDelete, "/api/zones/cache", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/zones/cache", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Zero(t, stats.Size)
}

func TestQuoteFare(t *testing.T) {
	router, _ := setupServerTest(t)

	// about 2.45 km in a straight line
	routeKm := 4.0

	w := doJSON(t, router, http.MethodPost, "/api/fare", gin.H{
		"origin":            gin.H{"lat": 11.28, "lng": 125.065},
		"destination":       gin.H{"lat": 11.29, "lng": 125.085},
		"profile":           "senior citizen",
		"route_distance_km": routeKm,
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	got := decode[fare.Quote](t, w)
	assert.Equal(t, fare.DistanceRoute, got.DistanceSource)
	assert.InDelta(t, 18.0, got.Subtotal, 1e-9)
	assert.InDelta(t, 0.2, got.DiscountRate, 1e-9)
	assert.InDelta(t, 14.4, got.TotalFare, 1e-9)
	assert.True(t, got.CrossesBoundary)
	require.NotNil(t, got.OriginZone)
	assert.Equal(t, "BRGY_1", got.OriginZone.Code)
}

func TestQuoteFareErrors(t *testing.T) {
	router, _ := setupServerTest(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "bad rate", body: gin.H{"origin": gin.H{"lat": 11.28, "lng": 125.065}, "destination": gin.H{"lat": 11.29, "lng": 125.07}, "discount_rate": 0.5}},
		{name: "bad profile", body: gin.H{"origin": gin.H{"lat": 11.28, "lng": 125.065}, "destination": gin.H{"lat": 11.29, "lng": 125.07}, "profile": "vip"}},
		{name: "bad latitude", body: gin.H{"origin": gin.H{"lat": 95, "lng": 125.065}, "destination": gin.H{"lat": 11.29, "lng": 125.07}}},
		{name: "not json", body: "origin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/fare", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", w.Body.String())
		})
	}
}

func TestListProfiles(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/fare/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[[]map[string]any](t, w)
	assert.Len(t, got, len(fare.Profiles()))
}

func TestAnalyzeRoute(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/routes/analyze", gin.H{
		"points": []gin.H{
			{"lat": 11.28, "lng": 125.065},
			{"lat": 11.29, "lng": 125.07},
			{"lat": 11.2, "lng": 125.1},
			{"lat": 11.28, "lng": 125.085},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var got struct {
		BoundaryCrossings  int     `json:"boundary_crossings"`
		UnmappedPoints     int     `json:"unmapped_points"`
		Points             int     `json:"points"`
		DistanceKm         float64 `json:"distance_km"`
		WithinMunicipality bool    `json:"within_municipality"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.BoundaryCrossings)
	assert.Equal(t, 1, got.UnmappedPoints)
	assert.Equal(t, 4, got.Points)
	assert.Greater(t, got.DistanceKm, 0.0)
	assert.False(t, got.WithinMunicipality)
}

func TestAnalyzeRouteErrors(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/routes/analyze", gin.H{"points": []gin.H{{"lat": 11.28, "lng": 125.065}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/routes/analyze", gin.H{"polyline": "_p~iF~ps|U_ulL"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListLocations(t *testing.T) {
	router, _ := setupServerTest(t)

	type listResponse struct {
		Locations []gazetteer.NamedLocation `json:"locations"`
		Count     int                       `json:"count"`
	}

	w := doJSON(t, router, http.MethodGet, "/api/locations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, decode[listResponse](t, w).Count)

	w = doJSON(t, router, http.MethodGet, "/api/locations?category=barangay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[listResponse](t, w).Count)

	w = doJSON(t, router, http.MethodGet, "/api/locations?q=church", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[listResponse](t, w)
	require.Equal(t, 1, got.Count)
	assert.Equal(t, "Basey Church", got.Locations[0].Name)

	w = doJSON(t, router, http.MethodGet, "/api/locations?q=nothing-like-this", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"count":0,"locations":[]}`, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/locations?grouped=true", nil)
	require.Equal(t, http.StatusOK, w.Code)

	grouped := decode[gazetteer.Grouped](t, w)
	assert.Len(t, grouped.Zones, 2)
	assert.Len(t, grouped.Landmarks, 1)
	assert.Len(t, grouped.Sitios, 1)

	w = doJSON(t, router, http.MethodGet, "/api/locations?category=castle", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocationStats(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/locations/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[gazetteer.Stats](t, w)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 2, got.Verified)
}

func TestSuggestLocations(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodGet, "/api/locations/suggest?q=Buskada", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[[]gazetteer.Suggestion](t, w)
	require.NotEmpty(t, got)
	assert.Equal(t, "Buscada", got[0].Location.Name)

	w = doJSON(t, router, http.MethodGet, "/api/locations/suggest", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateLocationEndpoint(t *testing.T) {
	router, _ := setupServerTest(t)

	w := doJSON(t, router, http.MethodPost, "/api/locations/validate", LocationValidationRequest{
		Name:        "Basey Municipal Hall",
		Coordinates: "11.28,125.065",
		Category:    "landmark",
		Description: "Seat of the municipal government",
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	got := decode[Verdict](t, w)
	assert.True(t, got.IsValid)
	assert.Equal(t, ConfidenceHigh, got.ExternalConfidence)

	w = doJSON(t, router, http.MethodPost, "/api/locations/validate", LocationValidationRequest{
		Name:        "Bad",
		Coordinates: "11.28,125.065",
		Category:    "castle",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterLocation(t *testing.T) {
	router, registry := setupServerTest(t)

	// valid: saved
	w := doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"name":        "Basey Municipal Hall",
		"coordinates": "11.28,125.065",
		"category":    "landmark",
		"description": "Seat of the municipal government",
		"verified":    true,
		"source":      "survey",
	})
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	// invalid: refused without override
	invalid := gin.H{
		"name":        "Sitio Mystery",
		"coordinates": "11.2,125.1",
		"category":    "sitio",
	}

	w = doJSON(t, router, http.MethodPost, "/api/locations", invalid)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, "body: %s", w.Body.String())

	// invalid: saved with override and justification
	invalid["override"] = true
	invalid["justification"] = "not yet in the barangay map"

	w = doJSON(t, router, http.MethodPost, "/api/locations", invalid)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	n, err := registry.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := registry.List(nil, 10, 0)
	require.NoError(t, err)

	for _, r := range records {
		if r.Name == "Sitio Mystery" {
			assert.False(t, r.Verified)
			assert.Equal(t, "not yet in the barangay map", r.Notes)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := setupServerTest(t)

	doJSON(t, router, http.MethodGet, "/healthz", nil)

	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pasahe_http_requests_total")
}
