// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

// Package boundary resolves coordinates to the barangays (zones) of the
// municipality and analyses routes across them.
package boundary

import (
	"fmt"

	"github.com/baseyfare/pasahe/spatial"
)

// Zone is a barangay with its outline and the metadata derived from it at
// load time. Zones are immutable once loaded.
type Zone struct {
	Name        string             `json:"name"`
	Code        string             `json:"code"`
	IsUrbanCore bool               `json:"is_urban_core"`
	Polygon     spatial.Polygon    `json:"-"`
	Centroid    spatial.Coordinate `json:"centroid"`
	BBox        spatial.BBox       `json:"bbox"`
	AreaKm2     float64            `json:"area_km2"`
}

// String returns "Name (Code)".
func (z *Zone) String() string {
	if z == nil {
		return "<unmapped>"
	}

	return fmt.Sprintf("%s (%s)", z.Name, z.Code)
}

// Contains reports whether p is inside the zone.
func (z *Zone) Contains(p spatial.Coordinate) bool {
	return z.BBox.Contains(p) && z.Polygon.Contains(p)
}

// ZoneRecord is a zone as read from a dataset, before validation.
type ZoneRecord struct {
	Name        string
	Code        string
	IsUrbanCore bool
	Polygon     spatial.Polygon

	// Source identifies the record in its dataset, e.g. "feature 12".
	Source string
}

// Defect describes a dataset record that was discarded or is suspicious.
type Defect struct {
	Source string `json:"source"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

func (d Defect) String() string {
	if d.Name == "" {
		return fmt.Sprintf("%s: %s", d.Source, d.Reason)
	}

	return fmt.Sprintf("%s (%s): %s", d.Source, d.Name, d.Reason)
}

func newZone(r ZoneRecord) (*Zone, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("%w: missing name", spatial.ErrInvalidInput)
	}

	if r.Code == "" {
		return nil, fmt.Errorf("%w: missing code", spatial.ErrInvalidInput)
	}

	centroid, err := spatial.Centroid(r.Polygon.Outer)
	if err != nil {
		return nil, err
	}

	bbox, err := spatial.BoundingBox(r.Polygon.Outer)
	if err != nil {
		return nil, err
	}

	area, err := spatial.RingAreaKm2(r.Polygon.Outer)
	if err != nil {
		return nil, err
	}

	// Degenerate holes cannot exclude anything.
	holes := make([]spatial.Ring, 0, len(r.Polygon.Holes))
	for _, h := range r.Polygon.Holes {
		if h.Validate() == nil {
			holes = append(holes, h)
		}
	}

	for _, h := range holes {
		if a, err := spatial.RingAreaKm2(h); err == nil {
			area -= a
		}
	}

	return &Zone{
		Name:        r.Name,
		Code:        r.Code,
		IsUrbanCore: r.IsUrbanCore,
		Polygon:     spatial.Polygon{Outer: r.Polygon.Outer, Holes: holes},
		Centroid:    centroid,
		BBox:        bbox,
		AreaKm2:     area,
	}, nil
}
