// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver

	"github.com/baseyfare/pasahe/boundary"
	"github.com/baseyfare/pasahe/config"
	"github.com/baseyfare/pasahe/curation"
	"github.com/baseyfare/pasahe/fare"
	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/baseyfare/pasahe/spatial"
)

// loadZones builds the barangay index, logging every discarded record.
func loadZones(cfg *config.Config) (*boundary.Index, error) {
	idx, defects, err := boundary.LoadGeoJSONFile(cfg.Data.Zones, boundary.Options{CacheSize: cfg.Cache.Size})
	if err != nil {
		return nil, fmt.Errorf("loading zones: %w", err)
	}

	for _, d := range defects {
		log.Printf("⚠️  %s", d)
	}

	if idx.Len() == 0 {
		return nil, fmt.Errorf("no usable zones in %s", cfg.Data.Zones)
	}

	return idx, nil
}

func loadGazetteer(cfg *config.Config) (*gazetteer.Gazetteer, error) {
	g, err := gazetteer.LoadFile(cfg.Data.Locations)
	if err != nil {
		return nil, fmt.Errorf("loading gazetteer: %w", err)
	}

	return g, nil
}

func newQuoter(cfg *config.Config, idx *boundary.Index) (*fare.Quoter, error) {
	engine, err := fare.NewEngine(cfg.Fare)
	if err != nil {
		return nil, fmt.Errorf("fare schedule: %w", err)
	}

	return fare.NewQuoter(engine, boundary.NewAnalyzer(idx)), nil
}

// openRegistry opens the DuckDB registry, creating the file and schema
// when needed. The caller closes the returned database.
func openRegistry(cfg *config.Config) (*sql.DB, gazetteer.Repository, error) {
	if dir := filepath.Dir(cfg.Data.Registry); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("creating registry directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", cfg.Data.Registry)
	if err != nil {
		return nil, nil, fmt.Errorf("opening registry: %w", err)
	}

	repo := gazetteer.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, nil, fmt.Errorf("creating registry schema: %w", err)
	}

	return db, repo, nil
}

// newOracle builds the Google reverse geocoder. Without a configured key
// it tries Application Default Credentials; when that fails too the
// geocoder is still returned and every verification fails closed.
func newOracle(ctx context.Context, cfg *config.Config) curation.ReverseGeocoder {
	apiKey := cfg.Oracle.APIKey
	if apiKey == "" && cfg.Oracle.UseADC {
		key, err := curation.APIKeyFromADC(ctx, cfg.Oracle.KeyDisplayName, cfg.Oracle.Project)
		if err != nil {
			log.Printf("⚠️  %s is not set and the API Keys lookup failed: %v", config.GoogleMapsAPIKeyEnv, err)
		} else {
			apiKey = key
		}
	}

	opts := curation.GoogleOptions{
		Endpoint:  cfg.Oracle.Endpoint,
		Language:  cfg.Oracle.Language,
		UserAgent: "pasahe/" + Version,
	}
	if cfg.Oracle.Trace {
		opts.Trace = os.Stderr
	}

	return curation.NewGoogleReverseGeocoder(apiKey, opts)
}

func newPipeline(cfg *config.Config, idx *boundary.Index, oracle curation.ReverseGeocoder) *curation.Pipeline {
	return curation.NewPipeline(idx, oracle, curation.PipelineOptions{
		Bounds: spatial.BBox{
			Min: spatial.Coordinate{Lat: cfg.Validation.MinLat, Lng: cfg.Validation.MinLng},
			Max: spatial.Coordinate{Lat: cfg.Validation.MaxLat, Lng: cfg.Validation.MaxLng},
		},
		Timeout:      cfg.Validation.Timeout,
		Municipality: cfg.Validation.Municipality,
		Province:     cfg.Validation.Province,
		Country:      cfg.Validation.Country,
	})
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(value)
}
