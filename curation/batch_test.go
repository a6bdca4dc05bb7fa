// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/baseyfare/pasahe/spatial"
)

// notATerminal is a plain file so no progress bar is drawn.
func notATerminal(t *testing.T) *os.File {
	t.Helper()

	f, err := os.Create(filepath.Join(t.TempDir(), "progress"))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	return f
}

func TestVerifyAll(t *testing.T) {
	oracle := baseyOracle()
	p := NewPipeline(newTestIndex(t), oracle, PipelineOptions{})

	locs := []gazetteer.NamedLocation{
		{Name: "Poblacion I", Coordinate: spatial.Coordinate{Lat: 11.28, Lng: 125.065}, Category: gazetteer.CategoryZone},
		{Name: "Buscada", Coordinate: spatial.Coordinate{Lat: 11.28, Lng: 125.065}, Category: gazetteer.CategoryZone},
		{Name: "Sitio Cogon", Coordinate: spatial.Coordinate{Lat: 11.2, Lng: 125.1}, Category: gazetteer.CategorySitio},
		{Name: "Basey Church", Coordinate: spatial.Coordinate{Lat: 11.2822, Lng: 125.0691}, Category: gazetteer.CategoryLandmark, Address: "Poblacion, Basey, Samar"},
	}

	results, err := VerifyAll(context.Background(), p, locs, BatchOptions{
		MaxProcs:      2,
		RatePerSecond: 1000,
		Progress:      notATerminal(t),
	})
	require.NoError(t, err)
	require.Len(t, results, len(locs))

	for i, r := range results {
		assert.Equal(t, locs[i].Name, r.Location.Name, "results keep input order")
	}

	assert.True(t, results[0].Verdict.IsValid)
	assert.Empty(t, results[0].Verdict.Warnings)

	assert.True(t, results[1].Verdict.IsValid)
	assert.True(t, containsSubstring(results[1].Verdict.Warnings, `expected barangay is "Buscada"`))

	assert.False(t, results[2].Verdict.IsValid, "unmapped sitio")
	assert.True(t, results[3].Verdict.IsValid)

	assert.EqualValues(t, len(locs), oracle.calls.Load())

	assert.Equal(t, BatchSummary{Total: 4, Valid: 3, Invalid: 1, Warnings: 2}, Summarize(results))
}

func TestVerifyAllCancelled(t *testing.T) {
	p := NewPipeline(newTestIndex(t), baseyOracle(), PipelineOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := VerifyAll(ctx, p, []gazetteer.NamedLocation{
		{Name: "Poblacion I", Coordinate: spatial.Coordinate{Lat: 11.28, Lng: 125.065}, Category: gazetteer.CategoryZone},
	}, BatchOptions{Progress: notATerminal(t)})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyAllEmpty(t *testing.T) {
	p := NewPipeline(newTestIndex(t), baseyOracle(), PipelineOptions{})

	results, err := VerifyAll(context.Background(), p, nil, BatchOptions{Progress: notATerminal(t)})
	require.NoError(t, err)
	assert.Empty(t, results)
}
