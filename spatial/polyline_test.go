// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

func TestDecodePolyline(t *testing.T) {
	tests := []struct {
		input    string
		expected []Coordinate
	}{
		{
			// Example from the Encoded Polyline Algorithm Format documentation.
			"_p~iF~ps|U_ulLnnqC_mqNvxq`@",
			[]Coordinate{
				{Lat: 38.5, Lng: -120.2},
				{Lat: 40.7, Lng: -120.95},
				{Lat: 43.252, Lng: -126.453},
			},
		},
		{
			"",
			nil,
		},
	}

	for _, tt := range tests {
		got, err := DecodePolyline(tt.input)
		if err != nil {
			t.Fatalf("DecodePolyline(%q) error = %v", tt.input, err)
		}

		if diff := cmp.Diff(tt.expected, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("DecodePolyline(%q) mismatch (-want +got):\n%s", tt.input, diff)
		}
	}
}

func TestDecodePolylineTruncated(t *testing.T) {
	_, err := DecodePolyline("_p~iF~ps|U_ulL")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = DecodePolyline("_p~i")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
