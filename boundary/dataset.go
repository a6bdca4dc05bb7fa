// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package boundary

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/baseyfare/pasahe/spatial"
)

// Property names of the municipal barangay shapefile export.
const (
	propName        = "BARANGAY"
	propAltName     = "Name"
	propIndex       = "BRGY_INDEX"
	propCode        = "BARANGAY_C"
	propPoblacion   = "POB"
	propInPoblacion = "IN_POB"
)

// ReadGeoJSONFile reads zone records from a GeoJSON file.
func ReadGeoJSONFile(path string) ([]ZoneRecord, []Defect, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open zone dataset: %w", err)
	}
	defer f.Close()

	return ReadGeoJSON(f)
}

// ReadGeoJSON decodes a FeatureCollection of barangay outlines. Features
// that are not polygons are reported as defects; MultiPolygon features keep
// their first polygon. Records are returned in feature order, which is the
// order zones are matched in.
func ReadGeoJSON(r io.Reader) ([]ZoneRecord, []Defect, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read zone dataset: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: zone dataset is not a GeoJSON FeatureCollection: %w", spatial.ErrInvalidInput, err)
	}

	var (
		records []ZoneRecord
		defects []Defect
	)

	for i, f := range fc.Features {
		source := fmt.Sprintf("feature %d", i)
		name := zoneName(f.Properties)

		var pg orb.Polygon

		switch g := f.Geometry.(type) {
		case orb.Polygon:
			pg = g
		case orb.MultiPolygon:
			if len(g) == 0 {
				defects = append(defects, Defect{Source: source, Name: name, Reason: "empty MultiPolygon"})

				continue
			}

			if len(g) > 1 {
				log.Printf("boundary: %s (%s) has %d polygons, using the first", source, name, len(g))
			}

			pg = g[0]
		default:
			defects = append(defects, Defect{Source: source, Name: name, Reason: fmt.Sprintf("unsupported geometry %T", f.Geometry)})

			continue
		}

		if len(pg) == 0 {
			defects = append(defects, Defect{Source: source, Name: name, Reason: "polygon has no rings"})

			continue
		}

		rec := ZoneRecord{
			Name:        name,
			Code:        zoneCode(f.Properties),
			IsUrbanCore: isPoblacion(f.Properties),
			Polygon:     spatial.Polygon{Outer: fromOrbRing(pg[0])},
			Source:      source,
		}

		for _, hole := range pg[1:] {
			rec.Polygon.Holes = append(rec.Polygon.Holes, fromOrbRing(hole))
		}

		records = append(records, rec)
	}

	return records, defects, nil
}

// LoadGeoJSONFile reads a dataset into a new index, returning every defect
// found while reading and loading.
func LoadGeoJSONFile(path string, opts Options) (*Index, []Defect, error) {
	records, defects, err := ReadGeoJSONFile(path)
	if err != nil {
		return nil, nil, err
	}

	idx := NewIndex(opts)
	defects = append(defects, idx.Load(records)...)

	log.Printf("boundary: loaded %d zones from %s (%d defects)", idx.Len(), path, len(defects))

	return idx, defects, nil
}

// GeoJSON positions are [lng, lat]; Coordinate is only built here.
func fromOrbRing(r orb.Ring) spatial.Ring {
	ring := make(spatial.Ring, len(r))
	for i, p := range r {
		ring[i] = spatial.Coordinate{Lat: p.Lat(), Lng: p.Lon()}
	}

	return ring
}

func toOrbRing(r spatial.Ring) orb.Ring {
	ring := make(orb.Ring, 0, len(r)+1)
	for _, c := range r {
		ring = append(ring, orb.Point{c.Lng, c.Lat})
	}

	if !r.IsClosed() && len(r) > 0 {
		ring = append(ring, ring[0])
	}

	return ring
}

func zoneName(props geojson.Properties) string {
	for _, key := range []string{propName, propAltName} {
		if s, ok := props[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}

	return ""
}

func zoneCode(props geojson.Properties) string {
	switch v := props[propIndex].(type) {
	case float64:
		if v == math.Trunc(v) {
			return "BRGY_" + strconv.FormatInt(int64(v), 10)
		}
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return "BRGY_" + v
		}
	}

	if s, ok := props[propCode].(string); ok {
		return strings.TrimSpace(s)
	}

	return ""
}

// Exports mark the poblacion either with POB (true or "POB") or with a
// non-null IN_POB.
func isPoblacion(props geojson.Properties) bool {
	switch v := props[propPoblacion].(type) {
	case bool:
		if v {
			return true
		}
	case string:
		if strings.EqualFold(strings.TrimSpace(v), "POB") {
			return true
		}
	}

	v, ok := props[propInPoblacion]

	return ok && v != nil
}
