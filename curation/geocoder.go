// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"

	"github.com/baseyfare/pasahe/spatial"
)

// ReverseGeocodingResult is the administrative placement of a coordinate as
// reported by an external provider.
type ReverseGeocodingResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Municipality     string   `json:"municipality"`
	Province         string   `json:"province"`
	Country          string   `json:"country"`
	PlaceTypes       []string `json:"place_types"`
	Provider         string   `json:"provider"`
}

// ReverseGeocoder resolves a coordinate into its administrative placement.
//
// Implementations must honor ctx cancellation; the validation pipeline
// treats a cancelled call like any other failure.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, c spatial.Coordinate) (*ReverseGeocodingResult, error)
}

// ReverseGeocoderFunc adapts a function to ReverseGeocoder.
type ReverseGeocoderFunc func(ctx context.Context, c spatial.Coordinate) (*ReverseGeocodingResult, error)

// ReverseGeocode calls f.
func (f ReverseGeocoderFunc) ReverseGeocode(ctx context.Context, c spatial.Coordinate) (*ReverseGeocodingResult, error) {
	return f(ctx, c)
}
