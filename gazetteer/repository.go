// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/uber/h3-go/v4"

	"github.com/baseyfare/pasahe/spatial"
)

// H3 resolutions stored with every record. Resolution 9 cells have ~175 m
// edges, which is the scale of a duplicate landmark.
const (
	h3ResCoarse = 7
	h3ResMedium = 8
	h3ResFine   = 9
)

// Record is a persisted gazetteer entry.
type Record struct {
	ID int64 `json:"id"`
	NamedLocation

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	H3Res7    int64     `json:"-"`
	H3Res8    int64     `json:"-"`
	H3Res9    int64     `json:"-"`
}

func (r *Record) computeH3() error {
	latLng := h3.NewLatLng(r.Coordinate.Lat, r.Coordinate.Lng)

	for _, res := range []int{h3ResCoarse, h3ResMedium, h3ResFine} {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("error converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case h3ResCoarse:
			r.H3Res7 = int64(cell)
		case h3ResMedium:
			r.H3Res8 = int64(cell)
		case h3ResFine:
			r.H3Res9 = int64(cell)
		}
	}

	return nil
}

// Repository persists operator-registered locations. The engine itself
// never writes to it; it backs the `locations add` and `locations seed`
// workflows.
type Repository interface {
	// CreateSchema creates the named_locations table
	CreateSchema() error

	// Save inserts or updates the record keyed by name and category
	Save(rec *Record) error

	// List returns records, optionally filtered by category
	List(category *Category, limit, offset int) ([]*Record, error)

	// Count returns the number of records
	Count() (int, error)

	// Nearby returns records within k H3 rings of c, nearest first
	Nearby(c spatial.Coordinate, k int) ([]*Record, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository returns a repository over an open DuckDB connection.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS named_locations_seq START 1;

		CREATE TABLE IF NOT EXISTS named_locations (
			id BIGINT PRIMARY KEY DEFAULT nextval('named_locations_seq'),
			name VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			lat DOUBLE NOT NULL,
			lng DOUBLE NOT NULL,
			verified BOOLEAN DEFAULT FALSE,
			source VARCHAR NOT NULL,
			address VARCHAR NOT NULL,
			type VARCHAR NOT NULL,
			notes TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res7 BIGINT,
			h3_res8 BIGINT,
			h3_res9 BIGINT,
			UNIQUE(name, category)
		);
	`)

	return err
}

func (r *sqlRepository) Save(rec *Record) error {
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("%w: location name can't be empty", spatial.ErrInvalidInput)
	}

	if _, err := ParseCategory(string(rec.Category)); err != nil {
		return err
	}

	if err := rec.Coordinate.Validate(); err != nil {
		return err
	}

	if err := rec.computeH3(); err != nil {
		return err
	}

	var existingID int64

	err := r.db.QueryRow(`SELECT id FROM named_locations WHERE name = ? AND category = ?`,
		rec.Name, string(rec.Category)).Scan(&existingID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return r.insert(rec)
	case err != nil:
		return err
	}

	rec.ID = existingID
	rec.UpdatedAt = time.Now()

	_, err = r.db.Exec(`
		UPDATE named_locations
		SET lat = ?, lng = ?, verified = ?, source = ?, address = ?, type = ?,
		    notes = ?, updated_at = ?, h3_res7 = ?, h3_res8 = ?, h3_res9 = ?
		WHERE id = ?
	`,
		rec.Coordinate.Lat,
		rec.Coordinate.Lng,
		rec.Verified,
		rec.Source,
		rec.Address,
		rec.Type,
		rec.Notes,
		rec.UpdatedAt,
		rec.H3Res7,
		rec.H3Res8,
		rec.H3Res9,
		rec.ID,
	)

	return err
}

func (r *sqlRepository) insert(rec *Record) error {
	rec.UpdatedAt = time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	return r.db.QueryRow(`
		INSERT INTO named_locations(
			name, category, lat, lng, verified, source, address, type, notes,
			created_at, updated_at, h3_res7, h3_res8, h3_res9
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		rec.Name,
		string(rec.Category),
		rec.Coordinate.Lat,
		rec.Coordinate.Lng,
		rec.Verified,
		rec.Source,
		rec.Address,
		rec.Type,
		rec.Notes,
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.H3Res7,
		rec.H3Res8,
		rec.H3Res9,
	).Scan(&rec.ID)
}

const baseSelect = `
	SELECT id, name, category, lat, lng, verified, source, address, type, notes,
	       created_at, updated_at, h3_res7, h3_res8, h3_res9
	FROM named_locations
`

func (r *sqlRepository) list(query string, args []any) ([]*Record, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record

	for rows.Next() {
		rec := &Record{}

		var (
			category               string
			h3Res7, h3Res8, h3Res9 sql.NullInt64
		)

		err := rows.Scan(
			&rec.ID, &rec.Name, &category,
			&rec.Coordinate.Lat, &rec.Coordinate.Lng,
			&rec.Verified, &rec.Source, &rec.Address, &rec.Type, &rec.Notes,
			&rec.CreatedAt, &rec.UpdatedAt,
			&h3Res7, &h3Res8, &h3Res9,
		)
		if err != nil {
			return nil, err
		}

		rec.Category = Category(category)
		rec.H3Res7 = h3Res7.Int64
		rec.H3Res8 = h3Res8.Int64
		rec.H3Res9 = h3Res9.Int64

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *sqlRepository) List(category *Category, limit, offset int) ([]*Record, error) {
	query := baseSelect

	args := []any{}

	if category != nil {
		query += " WHERE category = ?"

		args = append(args, string(*category))
	}

	query += " ORDER BY category, name"

	if limit > 0 {
		query += " LIMIT ? OFFSET ?"

		args = append(args, limit, offset)
	}

	return r.list(query, args)
}

func (r *sqlRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM named_locations`).Scan(&count)

	return count, err
}

func (r *sqlRepository) Nearby(c spatial.Coordinate, k int) ([]*Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	origin, err := h3.LatLngToCell(h3.NewLatLng(c.Lat, c.Lng), h3ResFine)
	if err != nil {
		return nil, fmt.Errorf("error converting to h3 cell: %w", err)
	}

	cells, err := h3.GridDisk(origin, k)
	if err != nil {
		return nil, fmt.Errorf("error computing h3 grid disk: %w", err)
	}

	placeholders := make([]string, len(cells))
	args := make([]any, len(cells))

	for i, cell := range cells {
		placeholders[i] = "?"
		args[i] = int64(cell)
	}

	records, err := r.list(baseSelect+" WHERE h3_res9 IN ("+strings.Join(placeholders, ", ")+")", args)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b *Record) int {
		da := spatial.HaversineKm(c, a.Coordinate)
		db := spatial.HaversineKm(c, b.Coordinate)

		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})

	return records, nil
}
