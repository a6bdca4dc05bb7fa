// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// Ring is a sequence of vertices. A closed ring repeats its first vertex at
// the end; open rings are closed implicitly when edges are traversed.
type Ring []Coordinate

// Polygon is an outer ring with zero or more holes.
type Polygon struct {
	Outer Ring   `json:"outer"`
	Holes []Ring `json:"holes,omitempty"`
}

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	Min Coordinate `json:"min"`
	Max Coordinate `json:"max"`
}

// Contains reports whether c lies inside the box, edges included.
func (b BBox) Contains(c Coordinate) bool {
	return c.Lat >= b.Min.Lat && c.Lat <= b.Max.Lat &&
		c.Lng >= b.Min.Lng && c.Lng <= b.Max.Lng
}

// Expand returns the smallest box containing both b and c.
func (b BBox) Expand(c Coordinate) BBox {
	return BBox{
		Min: Coordinate{Lat: math.Min(b.Min.Lat, c.Lat), Lng: math.Min(b.Min.Lng, c.Lng)},
		Max: Coordinate{Lat: math.Max(b.Max.Lat, c.Lat), Lng: math.Max(b.Max.Lng, c.Lng)},
	}
}

// distinct returns the vertices without the closing duplicate, if any.
func (r Ring) distinct() Ring {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		return r[:len(r)-1]
	}

	return r
}

// IsClosed reports whether the first and last vertices coincide.
func (r Ring) IsClosed() bool {
	return len(r) > 1 && r[0] == r[len(r)-1]
}

// minRingArea is the smallest |shoelace area| in degree² a ring may enclose,
// about 0.01 m² at the equator.
const minRingArea = 1e-12

// Validate fails with ErrDegenerateGeometry when the ring has fewer than
// three distinct vertices or its vertices are collinear.
func (r Ring) Validate() error {
	pts := r.distinct()
	n := len(pts)
	if n < 3 {
		return fmt.Errorf("%w: ring has %d distinct vertices, need at least 3", ErrDegenerateGeometry, n)
	}

	// relative to the first vertex so large coordinates do not cancel out
	o := pts[0]
	var sum float64
	for i := range n {
		a, b := pts[i], pts[(i+1)%n]
		sum += (a.Lng-o.Lng)*(b.Lat-o.Lat) - (b.Lng-o.Lng)*(a.Lat-o.Lat)
	}

	if math.Abs(sum/2) < minRingArea {
		return fmt.Errorf("%w: ring encloses no area", ErrDegenerateGeometry)
	}

	return nil
}

// PointInRing uses ray casting: a horizontal ray from p crossing an odd
// number of edges means p is inside. The last vertex connects back to the
// first, so open rings work too.
func PointInRing(p Coordinate, ring Ring) bool {
	if ring.Validate() != nil {
		return false
	}

	n := len(ring)

	inside := false
	x, y := p.Lng, p.Lat

	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lng, ring[i].Lat
		xj, yj := ring[j].Lng, ring[j].Lat

		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}

	return inside
}

// Contains reports whether p is inside the outer ring and outside every hole.
func (pg Polygon) Contains(p Coordinate) bool {
	if !PointInRing(p, pg.Outer) {
		return false
	}

	for _, hole := range pg.Holes {
		if PointInRing(p, hole) {
			return false
		}
	}

	return true
}

// Centroid returns the arithmetic mean of the ring's vertices, the closing
// vertex counted once. It is not the area-weighted centroid.
func Centroid(ring Ring) (Coordinate, error) {
	if err := ring.Validate(); err != nil {
		return Coordinate{}, err
	}

	pts := ring.distinct()

	var lat, lng float64
	for _, p := range pts {
		lat += p.Lat
		lng += p.Lng
	}

	n := float64(len(pts))

	return Coordinate{Lat: lat / n, Lng: lng / n}, nil
}

// BoundingBox returns the ring's bounding box in a single scan.
func BoundingBox(ring Ring) (BBox, error) {
	if err := ring.Validate(); err != nil {
		return BBox{}, err
	}

	b := BBox{
		Min: Coordinate{Lat: math.Inf(1), Lng: math.Inf(1)},
		Max: Coordinate{Lat: math.Inf(-1), Lng: math.Inf(-1)},
	}

	for _, p := range ring {
		b = b.Expand(p)
	}

	return b, nil
}

// SignedArea is the shoelace area in square degrees, longitude as x and
// latitude as y. Counter-clockwise rings are positive.
func SignedArea(ring Ring) (float64, error) {
	if err := ring.Validate(); err != nil {
		return 0, err
	}

	pts := ring.distinct()
	n := len(pts)

	var sum float64
	for i := range n {
		a, b := pts[i], pts[(i+1)%n]
		sum += a.Lng*b.Lat - b.Lng*a.Lat
	}

	return sum / 2, nil
}

// RingAreaKm2 returns the spherical area enclosed by the ring, in km².
// Orientation does not matter.
func RingAreaKm2(ring Ring) (float64, error) {
	if err := ring.Validate(); err != nil {
		return 0, err
	}

	pts := ring.distinct()

	// s2 loops are counter-clockwise; flip clockwise input.
	area, _ := SignedArea(ring)
	points := make([]s2.Point, 0, len(pts))

	for i := range pts {
		p := pts[i]
		if area < 0 {
			p = pts[len(pts)-1-i]
		}

		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng)))
	}

	loop := s2.LoopFromPoints(points)

	return loop.Area() * earthRadiusKm * earthRadiusKm, nil
}
