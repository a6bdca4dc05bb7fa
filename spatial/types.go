// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

var (
	// ErrInvalidInput is returned for malformed coordinates, negative
	// distances and other caller mistakes that must never be guessed around.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDegenerateGeometry is returned for rings that cannot enclose an area.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// Coordinate represents a geographical point with latitude and longitude.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns the "lat,lng" form accepted by ParseCoordinate.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Validate checks the global latitude/longitude ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90 (got %f)", ErrInvalidInput, c.Lat)
	}

	if math.IsNaN(c.Lng) || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180 (got %f)", ErrInvalidInput, c.Lng)
	}

	return nil
}

// Rounded returns the coordinate rounded to the given number of decimals.
func (c Coordinate) Rounded(decimals int) Coordinate {
	p := math.Pow(10, float64(decimals))

	return Coordinate{
		Lat: math.Round(c.Lat*p) / p,
		Lng: math.Round(c.Lng*p) / p,
	}
}

// ParseCoordinate parses a "lat,lng" string.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("%w: expected \"latitude,longitude\", got %q", ErrInvalidInput, s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: latitude %q is not a number", ErrInvalidInput, parts[0])
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: longitude %q is not a number", ErrInvalidInput, parts[1])
	}

	c := Coordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}

	return c, nil
}

// HaversineKm calculates the great-circle distance between two points in kilometers.
func HaversineKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Road distances never exceed this multiple of the straight line in the
// municipality's road network.
const maxRoadFactor = 2.0

// CheckRouteDistance validates a route distance reported by an external
// directions service against the straight-line distance between its ends.
func CheckRouteDistance(origin, destination Coordinate, reportedKm float64) error {
	if math.IsNaN(reportedKm) || math.IsInf(reportedKm, 0) || reportedKm < 0 {
		return fmt.Errorf("%w: route distance must be a non-negative number (got %f)", ErrInvalidInput, reportedKm)
	}

	direct := HaversineKm(origin, destination)

	// 1 m of slack for rounding on the provider side
	if reportedKm+0.001 < direct {
		return fmt.Errorf("%w: route distance %.3f km is shorter than the straight line %.3f km", ErrInvalidInput, reportedKm, direct)
	}

	if direct > 0 && reportedKm > direct*maxRoadFactor {
		return fmt.Errorf("%w: route distance %.3f km exceeds %.1fx the straight line %.3f km", ErrInvalidInput, reportedKm, maxRoadFactor, direct)
	}

	return nil
}
