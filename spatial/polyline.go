// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import "fmt"

// DecodePolyline decodes a Google encoded polyline (precision 1e-5).
func DecodePolyline(encoded string) ([]Coordinate, error) {
	return DecodePolylineWithPrecision(encoded, 1e-5)
}

// DecodePolylineWithPrecision decodes a polyline with a custom precision
// factor. GraphHopper and OSRM's polyline6 use 1e-6.
func DecodePolylineWithPrecision(encoded string, precision float64) ([]Coordinate, error) {
	var points []Coordinate

	index, lat, lng := 0, 0, 0

	next := func() (int, error) {
		shift, result := 0, 0

		for {
			if index >= len(encoded) {
				return 0, fmt.Errorf("%w: polyline truncated at offset %d", ErrInvalidInput, index)
			}

			b := int(encoded[index]) - 63
			index++

			if b < 0 || b > 63 {
				return 0, fmt.Errorf("%w: invalid polyline character at offset %d", ErrInvalidInput, index-1)
			}

			result |= (b & 0x1f) << shift
			shift += 5

			if b < 0x20 {
				break
			}
		}

		if result&1 != 0 {
			return ^(result >> 1), nil
		}

		return result >> 1, nil
	}

	for index < len(encoded) {
		dlat, err := next()
		if err != nil {
			return nil, err
		}

		dlng, err := next()
		if err != nil {
			return nil, err
		}

		lat += dlat
		lng += dlng

		points = append(points, Coordinate{
			Lat: float64(lat) * precision,
			Lng: float64(lng) * precision,
		})
	}

	return points, nil
}
