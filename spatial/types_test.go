// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Coordinate
		wantErr bool
	}{
		{
			name:  "basey poblacion",
			input: "11.27,125.06",
			want:  Coordinate{Lat: 11.27, Lng: 125.06},
		},
		{
			name:  "spaces around parts",
			input: "  11.2727 , 125.0627 ",
			want:  Coordinate{Lat: 11.2727, Lng: 125.0627},
		},
		{
			name:  "negative values",
			input: "-34.9011,-56.1645",
			want:  Coordinate{Lat: -34.9011, Lng: -56.1645},
		},
		{
			name:    "three parts",
			input:   "not,a,coord",
			wantErr: true,
		},
		{
			name:    "single number",
			input:   "11.27",
			wantErr: true,
		},
		{
			name:    "not a number",
			input:   "eleven,125.06",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			input:   "91,125",
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			input:   "11,181",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCoordinate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput), "error %v should wrap ErrInvalidInput", err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoordinateStringRoundTrip(t *testing.T) {
	c := Coordinate{Lat: 11.282621, Lng: 125.068848}

	got, err := ParseCoordinate(c.String())
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestRounded(t *testing.T) {
	c := Coordinate{Lat: 11.28262149, Lng: 125.06884851}

	assert.Equal(t, Coordinate{Lat: 11.282621, Lng: 125.068849}, c.Rounded(6))
}

func TestHaversineKm(t *testing.T) {
	points := []Coordinate{
		{Lat: 11.2801, Lng: 125.0692},
		{Lat: 11.2850, Lng: 125.0750},
		{Lat: -34.9011, Lng: -56.1645},
		{Lat: 0, Lng: 0},
		{Lat: 89.9, Lng: 179.9},
	}

	for _, a := range points {
		assert.Zero(t, HaversineKm(a, a), "distance from %v to itself", a)

		for _, b := range points {
			assert.Equal(t, HaversineKm(a, b), HaversineKm(b, a), "symmetry for %v and %v", a, b)
		}
	}

	d := HaversineKm(Coordinate{Lat: 11.2801, Lng: 125.0692}, Coordinate{Lat: 11.2850, Lng: 125.0750})
	assert.Greater(t, d, 0.8)
	assert.Less(t, d, 0.9)

	// One degree of latitude is ~111.19 km on a 6371 km sphere.
	assert.InDelta(t, 111.19, HaversineKm(Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 1, Lng: 0}), 0.01)
}

func TestCheckRouteDistance(t *testing.T) {
	origin := Coordinate{Lat: 11.2801, Lng: 125.0692}
	destination := Coordinate{Lat: 11.2850, Lng: 125.0750}
	direct := HaversineKm(origin, destination)

	tests := []struct {
		name     string
		reported float64
		wantErr  bool
	}{
		{name: "equal to straight line", reported: direct},
		{name: "typical road factor", reported: direct * 1.3},
		{name: "at the ceiling", reported: direct * 2},
		{name: "shorter than straight line", reported: direct / 2, wantErr: true},
		{name: "implausibly long", reported: direct * 3, wantErr: true},
		{name: "negative", reported: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRouteDistance(origin, destination, tt.reported)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
