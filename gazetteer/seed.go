// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"fmt"
	"os"
)

// Import saves every location of g into repo.
func Import(repo Repository, g *Gazetteer) (int, error) {
	imported := 0

	for _, loc := range g.All() {
		if err := repo.Save(&Record{NamedLocation: loc}); err != nil {
			return imported, fmt.Errorf("saving location %s: %w", loc.Name, err)
		}

		imported++
	}

	return imported, nil
}

// Export builds a gazetteer from every record in repo.
func Export(repo Repository, meta Metadata) (*Gazetteer, error) {
	records, err := repo.List(nil, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}

	locs := make([]NamedLocation, 0, len(records))
	for _, rec := range records {
		locs = append(locs, rec.NamedLocation)
	}

	return New(meta, locs), nil
}

// SeedIfEmpty loads the gazetteer file into repo when repo has no records.
// A missing seed file is not an error.
func SeedIfEmpty(repo Repository, path string) (bool, int, error) {
	count, err := repo.Count()
	if err != nil {
		return false, 0, fmt.Errorf("counting locations: %w", err)
	}

	if count > 0 {
		return false, count, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, 0, nil
	}

	g, err := LoadFile(path)
	if err != nil {
		return false, 0, err
	}

	imported, err := Import(repo, g)
	if err != nil {
		return false, imported, err
	}

	return true, imported, nil
}
