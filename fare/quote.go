// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package fare

import (
	"strconv"

	"github.com/baseyfare/pasahe/boundary"
	"github.com/baseyfare/pasahe/metrics"
	"github.com/baseyfare/pasahe/spatial"
)

// Distance sources reported on a Quote.
const (
	DistanceStraightLine = "straight_line"
	DistanceRoute        = "route"
)

// Trip lengths that trigger recommendations, in km.
const (
	shortTripKm = 2
	longTripKm  = 10
)

// QuoteRequest is the input of a fare quote.
type QuoteRequest struct {
	Origin       spatial.Coordinate `json:"origin"`
	Destination  spatial.Coordinate `json:"destination"`
	DiscountRate float64            `json:"discount_rate"`

	// RouteDistanceKm is the road distance from a directions service. When
	// nil the straight-line distance is used.
	RouteDistanceKm *float64 `json:"route_distance_km,omitempty"`

	// ApplyBoundarySurcharge asks for the surcharge when the trip crosses a
	// zone boundary.
	ApplyBoundarySurcharge bool `json:"apply_boundary_surcharge"`
}

// Quote is a priced trip with its zone context.
type Quote struct {
	Breakdown

	OriginZone      *boundary.Zone `json:"origin_zone"`
	DestinationZone *boundary.Zone `json:"destination_zone"`
	CrossesBoundary bool           `json:"crosses_boundary"`
	DistanceSource  string         `json:"distance_source"`
	Recommendations []string       `json:"recommendations"`
}

// Quoter prices trips between two coordinates. It never calls the
// reverse geocoding oracle.
type Quoter struct {
	engine   *Engine
	analyzer *boundary.Analyzer
}

// NewQuoter returns a quoter using engine for prices and analyzer for
// zone context.
func NewQuoter(engine *Engine, analyzer *boundary.Analyzer) *Quoter {
	return &Quoter{engine: engine, analyzer: analyzer}
}

// Quote prices the trip in req.
func (q *Quoter) Quote(req QuoteRequest) (Quote, error) {
	if err := req.Origin.Validate(); err != nil {
		return Quote{}, err
	}

	if err := req.Destination.Validate(); err != nil {
		return Quote{}, err
	}

	distance := spatial.HaversineKm(req.Origin, req.Destination)
	source := DistanceStraightLine

	if req.RouteDistanceKm != nil {
		if err := spatial.CheckRouteDistance(req.Origin, req.Destination, *req.RouteDistanceKm); err != nil {
			return Quote{}, err
		}

		distance = *req.RouteDistanceKm
		source = DistanceRoute
	}

	pair := q.analyzer.AnalyzePair(req.Origin, req.Destination)

	b, err := q.engine.Calculate(distance, req.DiscountRate, req.ApplyBoundarySurcharge && pair.CrossesBoundary)
	if err != nil {
		return Quote{}, err
	}

	metrics.FareQuotes.WithLabelValues(source, strconv.FormatBool(pair.CrossesBoundary)).Inc()

	return Quote{
		Breakdown:       b,
		OriginZone:      pair.Origin,
		DestinationZone: pair.Destination,
		CrossesBoundary: pair.CrossesBoundary,
		DistanceSource:  source,
		Recommendations: recommendations(pair, distance),
	}, nil
}

func recommendations(pair boundary.PairCrossing, distanceKm float64) []string {
	if pair.Origin == nil || pair.Destination == nil {
		return []string{"Route includes areas outside mapped barangay boundaries"}
	}

	var recs []string

	if pair.Origin == pair.Destination {
		recs = append(recs, "Intra-barangay trip, local rates may apply")
	}

	if pair.Origin.IsUrbanCore || pair.Destination.IsUrbanCore {
		recs = append(recs, "Route includes the poblacion, standard urban rates apply")
	}

	if distanceKm > longTripKm {
		recs = append(recs, "Long distance trip, consider alternative transportation")
	}

	if distanceKm < shortTripKm {
		recs = append(recs, "Short trip, walking might be feasible")
	}

	return recs
}
