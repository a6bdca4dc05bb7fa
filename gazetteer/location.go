// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

// Package gazetteer is the flat list of named places of the municipality:
// barangay centers, landmarks and sitios. It answers name lookups; zone
// containment lives in package boundary.
package gazetteer

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/baseyfare/pasahe/spatial"
	"github.com/baseyfare/pasahe/utils/textutils"
)

// Category classifies a named location.
type Category string

const (
	// CategoryZone is an administrative zone (barangay) center.
	CategoryZone Category = "zone"
	// CategoryLandmark is a school, church, bridge, government building...
	CategoryLandmark Category = "landmark"
	// CategorySitio is a settlement inside a barangay.
	CategorySitio Category = "sitio"
)

// ParseCategory accepts the category names plus "barangay" for zones.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zone", "barangay":
		return CategoryZone, nil
	case "landmark":
		return CategoryLandmark, nil
	case "sitio":
		return CategorySitio, nil
	}

	return "", fmt.Errorf("%w: unknown location category %q", spatial.ErrInvalidInput, s)
}

// NamedLocation is a gazetteer entry.
type NamedLocation struct {
	Name       string             `json:"name"`
	Coordinate spatial.Coordinate `json:"coordinates"`
	Category   Category           `json:"category"`
	Verified   bool               `json:"verified"`
	Source     string             `json:"source,omitempty"`
	Address    string             `json:"address,omitempty"`
	Type       string             `json:"type,omitempty"`
}

// Metadata describes a gazetteer dataset.
type Metadata struct {
	Municipality   string   `json:"municipality"`
	Province       string   `json:"province"`
	TotalLocations int      `json:"total_locations,omitempty"`
	LastUpdated    string   `json:"last_updated,omitempty"`
	Sources        []string `json:"sources,omitempty"`
}

// dataset is the on-disk layout: one list per category.
type dataset struct {
	Metadata  Metadata `json:"metadata"`
	Locations struct {
		Barangay []NamedLocation `json:"barangay"`
		Landmark []NamedLocation `json:"landmark"`
		Sitio    []NamedLocation `json:"sitio"`
	} `json:"locations"`
}

// Gazetteer is an immutable set of named locations.
type Gazetteer struct {
	meta      Metadata
	locations []NamedLocation
}

// New returns a gazetteer over locs, in the given order.
func New(meta Metadata, locs []NamedLocation) *Gazetteer {
	meta.TotalLocations = len(locs)

	return &Gazetteer{meta: meta, locations: slices.Clone(locs)}
}

// LoadFile reads a gazetteer JSON file.
func LoadFile(path string) (*Gazetteer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gazetteer: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes a gazetteer. Entries are tagged with the category of the
// list they come from; entries with out-of-range coordinates are rejected.
func Load(r io.Reader) (*Gazetteer, error) {
	var ds dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("%w: gazetteer is not valid JSON: %w", spatial.ErrInvalidInput, err)
	}

	var locs []NamedLocation

	for _, group := range []struct {
		category Category
		entries  []NamedLocation
	}{
		{CategoryZone, ds.Locations.Barangay},
		{CategoryLandmark, ds.Locations.Landmark},
		{CategorySitio, ds.Locations.Sitio},
	} {
		for _, loc := range group.entries {
			loc.Category = group.category
			if err := loc.Coordinate.Validate(); err != nil {
				return nil, fmt.Errorf("location %q: %w", loc.Name, err)
			}

			locs = append(locs, loc)
		}
	}

	return New(ds.Metadata, locs), nil
}

// WriteJSON writes the gazetteer in the format read by Load.
func (g *Gazetteer) WriteJSON(w io.Writer) error {
	var ds dataset

	ds.Metadata = g.meta

	for _, loc := range g.locations {
		switch loc.Category {
		case CategoryZone:
			ds.Locations.Barangay = append(ds.Locations.Barangay, loc)
		case CategoryLandmark:
			ds.Locations.Landmark = append(ds.Locations.Landmark, loc)
		case CategorySitio:
			ds.Locations.Sitio = append(ds.Locations.Sitio, loc)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(ds)
}

// Metadata returns the dataset metadata.
func (g *Gazetteer) Metadata() Metadata {
	return g.meta
}

// All returns every location in load order.
func (g *Gazetteer) All() []NamedLocation {
	return slices.Clone(g.locations)
}

// Len returns the number of locations.
func (g *Gazetteer) Len() int {
	return len(g.locations)
}

// FindByName returns the location whose name matches, ignoring case,
// accents and punctuation.
func (g *Gazetteer) FindByName(name string) (NamedLocation, bool) {
	key := textutils.NormalizeName(name)
	if key == "" {
		return NamedLocation{}, false
	}

	for _, loc := range g.locations {
		if textutils.NormalizeName(loc.Name) == key {
			return loc, true
		}
	}

	return NamedLocation{}, false
}

// Search returns the locations whose name or address contains query.
func (g *Gazetteer) Search(query string) []NamedLocation {
	q := textutils.LowerASCIIFolding(query)
	if q == "" {
		return nil
	}

	var result []NamedLocation

	for _, loc := range g.locations {
		if strings.Contains(textutils.LowerASCIIFolding(loc.Name), q) ||
			strings.Contains(textutils.LowerASCIIFolding(loc.Address), q) {
			result = append(result, loc)
		}
	}

	return result
}

// ByCategory returns the locations of one category in load order.
func (g *Gazetteer) ByCategory(c Category) []NamedLocation {
	var result []NamedLocation

	for _, loc := range g.locations {
		if loc.Category == c {
			result = append(result, loc)
		}
	}

	return result
}

// Grouped is the picker layout: one alphabetical list per category.
type Grouped struct {
	Zones     []NamedLocation `json:"barangays"`
	Landmarks []NamedLocation `json:"landmarks"`
	Sitios    []NamedLocation `json:"sitios"`
}

// Grouped returns the locations by category, sorted by name.
func (g *Gazetteer) Grouped() Grouped {
	byName := func(a, b NamedLocation) int {
		return cmp.Compare(textutils.LowerASCIIFolding(a.Name), textutils.LowerASCIIFolding(b.Name))
	}

	grouped := Grouped{
		Zones:     g.ByCategory(CategoryZone),
		Landmarks: g.ByCategory(CategoryLandmark),
		Sitios:    g.ByCategory(CategorySitio),
	}

	slices.SortStableFunc(grouped.Zones, byName)
	slices.SortStableFunc(grouped.Landmarks, byName)
	slices.SortStableFunc(grouped.Sitios, byName)

	return grouped
}

// Stats counts locations per category.
type Stats struct {
	Total     int      `json:"total"`
	Zones     int      `json:"barangays"`
	Landmarks int      `json:"landmarks"`
	Sitios    int      `json:"sitios"`
	Verified  int      `json:"verified"`
	Sources   []string `json:"sources"`
}

// Stats returns the dataset counters.
func (g *Gazetteer) Stats() Stats {
	s := Stats{Total: len(g.locations), Sources: g.meta.Sources}

	for _, loc := range g.locations {
		switch loc.Category {
		case CategoryZone:
			s.Zones++
		case CategoryLandmark:
			s.Landmarks++
		case CategorySitio:
			s.Sitios++
		}

		if loc.Verified {
			s.Verified++
		}
	}

	return s
}
