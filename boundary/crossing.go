// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package boundary

import "github.com/baseyfare/pasahe/spatial"

// ZoneFinder resolves a point to its zone, or nil when unmapped.
type ZoneFinder interface {
	FindZoneCached(p spatial.Coordinate) *Zone
}

// Crossing summarizes the zones a route passes through.
type Crossing struct {
	// ZonesCrossed holds each zone once, in order of first entry.
	ZonesCrossed      []*Zone `json:"zones_crossed"`
	BoundaryCrossings int     `json:"boundary_crossings"`
	UnmappedPoints    int     `json:"unmapped_points"`
}

// PairCrossing is the two-point form used by fare quotes.
type PairCrossing struct {
	Origin          *Zone `json:"origin_zone"`
	Destination     *Zone `json:"destination_zone"`
	CrossesBoundary bool  `json:"crosses_boundary"`
}

// Analyzer counts zone boundary crossings along routes.
type Analyzer struct {
	zones ZoneFinder
}

// NewAnalyzer returns an analyzer resolving points with zones.
func NewAnalyzer(zones ZoneFinder) *Analyzer {
	return &Analyzer{zones: zones}
}

// Analyze walks the route in order. Each change between consecutive
// resolved zones counts as one crossing; unmapped points are skipped
// without forgetting the last resolved zone, so a route that leaves the
// dataset and comes back into the same zone does not count a crossing.
func (a *Analyzer) Analyze(points []spatial.Coordinate) Crossing {
	var (
		c    Crossing
		last *Zone
	)

	seen := make(map[*Zone]bool)

	for _, p := range points {
		z := a.zones.FindZoneCached(p)
		if z == nil {
			c.UnmappedPoints++

			continue
		}

		if !seen[z] {
			seen[z] = true
			c.ZonesCrossed = append(c.ZonesCrossed, z)
		}

		if last != nil && last != z {
			c.BoundaryCrossings++
		}

		last = z
	}

	return c
}

// AnalyzePair resolves both ends. CrossesBoundary is true only when both
// ends are mapped and lie in different zones.
func (a *Analyzer) AnalyzePair(origin, destination spatial.Coordinate) PairCrossing {
	o := a.zones.FindZoneCached(origin)
	d := a.zones.FindZoneCached(destination)

	return PairCrossing{
		Origin:          o,
		Destination:     d,
		CrossesBoundary: o != nil && d != nil && o != d,
	}
}

// WithinMunicipality reports whether every point of the route resolves to
// a zone.
func (a *Analyzer) WithinMunicipality(points []spatial.Coordinate) bool {
	for _, p := range points {
		if a.zones.FindZoneCached(p) == nil {
			return false
		}
	}

	return len(points) > 0
}
