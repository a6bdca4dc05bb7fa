// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/baseyfare/pasahe/boundary"
	"github.com/baseyfare/pasahe/fare"
	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/baseyfare/pasahe/metrics"
	"github.com/baseyfare/pasahe/spatial"
	"github.com/gin-gonic/gin"
)

const (
	defaultNeighborKm       = 5.0
	defaultSuggestLimit     = 5
	defaultSuggestThreshold = 0.5
)

// Server exposes zone lookups, fare quotes, route analysis and the
// location authoring workflow over HTTP.
type Server struct {
	zones     *boundary.Index
	analyzer  *boundary.Analyzer
	quoter    *fare.Quoter
	places    *gazetteer.Gazetteer
	suggester *gazetteer.Suggester
	pipeline  *Pipeline
	registry  gazetteer.Repository
}

// NewServer wires the handlers. registry may be nil, in which case
// locations cannot be registered over HTTP.
func NewServer(zones *boundary.Index, quoter *fare.Quoter, places *gazetteer.Gazetteer, pipeline *Pipeline, registry gazetteer.Repository) *Server {
	return &Server{
		zones:     zones,
		analyzer:  boundary.NewAnalyzer(zones),
		quoter:    quoter,
		places:    places,
		suggester: gazetteer.NewSuggester(places),
		pipeline:  pipeline,
		registry:  registry,
	}
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()
	r.Use(metrics.Middleware())

	r.GET("/healthz", s.health)
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/zones", s.listZones)
	api.GET("/zones/lookup", s.lookupZone)
	api.GET("/zones/geojson", s.exportZones)
	api.GET("/zones/cache", s.cacheStats)
	api.DELETE("/zones/cache", s.resetCache)
	api.GET("/zones/:code/neighbors", s.neighbors)
	api.POST("/fare", s.quoteFare)
	api.GET("/fare/profiles", s.listProfiles)
	api.POST("/routes/analyze", s.analyzeRoute)
	api.GET("/locations", s.listLocations)
	api.GET("/locations/stats", s.locationStats)
	api.GET("/locations/suggest", s.suggestLocations)
	api.POST("/locations/validate", s.validateLocation)
	api.POST("/locations", s.registerLocation)

	return r
}

// Run serves on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("Serving %d zones and %d named locations on %s", s.zones.Len(), s.places.Len(), addr)

	return s.Router().Run(addr)
}

// respondError maps caller mistakes to 400 and everything else to 500.
func respondError(ctx *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, spatial.ErrInvalidInput) {
		status = http.StatusBadRequest
	} else {
		log.Printf("%s %s: %v", ctx.Request.Method, ctx.Request.URL.Path, err)
	}

	ctx.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"zones":     s.zones.Len(),
		"locations": s.places.Len(),
	})
}

func (s *Server) listZones(ctx *gin.Context) {
	urbanCore, _ := strconv.ParseBool(ctx.Query("urban_core"))

	zones := s.zones.AllZones(boundary.Filter{
		UrbanCoreOnly: urbanCore,
		SearchTerm:    ctx.Query("q"),
	})

	ctx.JSON(http.StatusOK, gin.H{"zones": zones, "count": len(zones)})
}

// queryCoordinate reads either ?coordinates=lat,lng or ?lat=&lng=.
func queryCoordinate(ctx *gin.Context) (spatial.Coordinate, error) {
	if raw := ctx.Query("coordinates"); raw != "" {
		return spatial.ParseCoordinate(raw)
	}

	lat, lng := ctx.Query("lat"), ctx.Query("lng")
	if lat == "" || lng == "" {
		return spatial.Coordinate{}, fmt.Errorf("%w: coordinates or lat and lng query parameters are required", spatial.ErrInvalidInput)
	}

	return spatial.ParseCoordinate(lat + "," + lng)
}

func (s *Server) lookupZone(ctx *gin.Context) {
	c, err := queryCoordinate(ctx)
	if err != nil {
		respondError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"coordinate": c, "zone": s.zones.FindZoneCached(c)})
}

func (s *Server) exportZones(ctx *gin.Context) {
	fc := boundary.ExportGeoJSON(s.zones.AllZones(boundary.Filter{}))

	data, err := fc.MarshalJSON()
	if err != nil {
		respondError(ctx, fmt.Errorf("encoding zones: %w", err))

		return
	}

	ctx.Data(http.StatusOK, "application/geo+json", data)
}

func (s *Server) cacheStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.zones.CacheStats())
}

func (s *Server) resetCache(ctx *gin.Context) {
	s.zones.ResetCache()
	ctx.Status(http.StatusNoContent)
}

func (s *Server) neighbors(ctx *gin.Context) {
	zone := s.zones.Zone(ctx.Param("code"))
	if zone == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("zone %q not found", ctx.Param("code"))})

		return
	}

	maxKm := defaultNeighborKm

	if raw := ctx.Query("max_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			respondError(ctx, fmt.Errorf("%w: max_km must be a non-negative number", spatial.ErrInvalidInput))

			return
		}

		maxKm = v
	}

	ctx.JSON(http.StatusOK, gin.H{"zone": zone, "neighbors": s.zones.NeighborsOf(zone, maxKm)})
}

type fareRequest struct {
	Origin                 spatial.Coordinate `json:"origin"`
	Destination            spatial.Coordinate `json:"destination"`
	DiscountRate           float64            `json:"discount_rate"`
	Profile                string             `json:"profile"`
	RouteDistanceKm        *float64           `json:"route_distance_km"`
	ApplyBoundarySurcharge bool               `json:"apply_boundary_surcharge"`
}

func (s *Server) quoteFare(ctx *gin.Context) {
	var req fareRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, fmt.Errorf("%w: %v", spatial.ErrInvalidInput, err))

		return
	}

	rate := req.DiscountRate

	if req.Profile != "" {
		p, err := fare.ParseProfile(req.Profile)
		if err != nil {
			respondError(ctx, err)

			return
		}

		rate = p.Rate()
	}

	q, err := s.quoter.Quote(fare.QuoteRequest{
		Origin:                 req.Origin,
		Destination:            req.Destination,
		DiscountRate:           rate,
		RouteDistanceKm:        req.RouteDistanceKm,
		ApplyBoundarySurcharge: req.ApplyBoundarySurcharge,
	})
	if err != nil {
		respondError(ctx, err)

		return
	}

	ctx.JSON(http.StatusOK, q)
}

func (s *Server) listProfiles(ctx *gin.Context) {
	profiles := fare.Profiles()

	out := make([]gin.H, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, gin.H{"profile": p, "discount_rate": p.Rate()})
	}

	ctx.JSON(http.StatusOK, out)
}

type routeRequest struct {
	Points   []spatial.Coordinate `json:"points"`
	Polyline string               `json:"polyline"`
}

// RouteAnalysis is the response of the route analysis endpoint.
type RouteAnalysis struct {
	boundary.Crossing

	Points             int     `json:"points"`
	DistanceKm         float64 `json:"distance_km"`
	WithinMunicipality bool    `json:"within_municipality"`
}

func (s *Server) analyzeRoute(ctx *gin.Context) {
	var req routeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, fmt.Errorf("%w: %v", spatial.ErrInvalidInput, err))

		return
	}

	points := req.Points

	if strings.TrimSpace(req.Polyline) != "" {
		decoded, err := spatial.DecodePolyline(req.Polyline)
		if err != nil {
			respondError(ctx, err)

			return
		}

		points = decoded
	}

	if len(points) < 2 {
		respondError(ctx, fmt.Errorf("%w: a route needs at least two points", spatial.ErrInvalidInput))

		return
	}

	for _, p := range points {
		if err := p.Validate(); err != nil {
			respondError(ctx, err)

			return
		}
	}

	var distance float64
	for i := 1; i < len(points); i++ {
		distance += spatial.HaversineKm(points[i-1], points[i])
	}

	ctx.JSON(http.StatusOK, RouteAnalysis{
		Crossing:           s.analyzer.Analyze(points),
		Points:             len(points),
		DistanceKm:         distance,
		WithinMunicipality: s.analyzer.WithinMunicipality(points),
	})
}

func (s *Server) listLocations(ctx *gin.Context) {
	if grouped, _ := strconv.ParseBool(ctx.Query("grouped")); grouped {
		ctx.JSON(http.StatusOK, s.places.Grouped())

		return
	}

	var locs []gazetteer.NamedLocation

	switch {
	case ctx.Query("q") != "":
		locs = s.places.Search(ctx.Query("q"))
	default:
		locs = s.places.All()
	}

	if raw := ctx.Query("category"); raw != "" {
		category, err := gazetteer.ParseCategory(raw)
		if err != nil {
			respondError(ctx, err)

			return
		}

		filtered := locs[:0:0]

		for _, loc := range locs {
			if loc.Category == category {
				filtered = append(filtered, loc)
			}
		}

		locs = filtered
	}

	if locs == nil {
		locs = []gazetteer.NamedLocation{}
	}

	ctx.JSON(http.StatusOK, gin.H{"locations": locs, "count": len(locs)})
}

func (s *Server) locationStats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, s.places.Stats())
}

func (s *Server) suggestLocations(ctx *gin.Context) {
	query := ctx.Query("q")
	if strings.TrimSpace(query) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})

		return
	}

	limit := defaultSuggestLimit
	if v, err := strconv.Atoi(ctx.Query("limit")); err == nil && v > 0 {
		limit = v
	}

	threshold := defaultSuggestThreshold
	if v, err := strconv.ParseFloat(ctx.Query("threshold"), 64); err == nil && v >= 0 && v <= 1 {
		threshold = v
	}

	suggestions := s.suggester.Suggest(query, threshold, limit)
	if suggestions == nil {
		suggestions = []gazetteer.Suggestion{}
	}

	ctx.JSON(http.StatusOK, suggestions)
}

func (s *Server) validateLocation(ctx *gin.Context) {
	var req LocationValidationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, fmt.Errorf("%w: %v", spatial.ErrInvalidInput, err))

		return
	}

	if req.Category != "" {
		category, err := gazetteer.ParseCategory(string(req.Category))
		if err != nil {
			respondError(ctx, err)

			return
		}

		req.Category = category
	}

	ctx.JSON(http.StatusOK, s.pipeline.Validate(ctx.Request.Context(), req))
}

type registerRequest struct {
	LocationValidationRequest

	Verified bool   `json:"verified"`
	Source   string `json:"source"`
	Address  string `json:"address"`
	Type     string `json:"type"`

	// Override persists an invalid location; Justification is then
	// mandatory and stored as the record notes.
	Override      bool   `json:"override"`
	Justification string `json:"justification"`
}

func (s *Server) registerLocation(ctx *gin.Context) {
	if s.registry == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "location registry is not configured"})

		return
	}

	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondError(ctx, fmt.Errorf("%w: %v", spatial.ErrInvalidInput, err))

		return
	}

	if req.Category == "" {
		req.Category = gazetteer.CategoryLandmark
	}

	category, err := gazetteer.ParseCategory(string(req.Category))
	if err != nil {
		respondError(ctx, err)

		return
	}

	req.Category = category

	verdict := s.pipeline.Validate(ctx.Request.Context(), req.LocationValidationRequest)

	if !verdict.IsValid {
		if !req.Override || strings.TrimSpace(req.Justification) == "" {
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "location failed validation; set override with a justification to save anyway",
				"verdict": verdict,
			})

			return
		}

		log.Printf("Registering %q despite failed validation: %s", req.Name, req.Justification)
	}

	if verdict.Coordinate == nil {
		respondError(ctx, fmt.Errorf("%w: coordinates are required", spatial.ErrInvalidInput))

		return
	}

	rec := &gazetteer.Record{
		NamedLocation: gazetteer.NamedLocation{
			Name:       strings.TrimSpace(req.Name),
			Coordinate: *verdict.Coordinate,
			Category:   category,
			Verified:   req.Verified && verdict.IsValid,
			Source:     req.Source,
			Address:    req.Address,
			Type:       req.Type,
		},
		Notes: req.Justification,
	}

	if err := s.registry.Save(rec); err != nil {
		respondError(ctx, err)

		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"record": rec, "verdict": verdict})
}
