// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package boundary

import (
	"log"
	"slices"
	"strings"

	"github.com/baseyfare/pasahe/metrics"
	"github.com/baseyfare/pasahe/spatial"
	"github.com/baseyfare/pasahe/utils/textutils"
)

// cacheDecimals is the rounding applied to coordinate cache keys (~0.1 m).
const cacheDecimals = 6

// Options configures an Index.
type Options struct {
	// CacheSize caps the coordinate cache. Zero means DefaultCacheSize.
	CacheSize int
}

// Filter narrows AllZones.
type Filter struct {
	UrbanCoreOnly bool
	SearchTerm    string
}

// Neighbor is a zone and its centroid distance to a reference zone.
type Neighbor struct {
	Zone       *Zone   `json:"zone"`
	DistanceKm float64 `json:"distance_km"`
}

// Index holds the zones of the municipality in load order.
//
// Load must complete before lookups start; after that the zone set is
// read-only and every method is safe for concurrent use.
type Index struct {
	zones []*Zone
	byKey map[string]*Zone
	cache *LRU[spatial.Coordinate, *Zone]
}

// NewIndex returns an empty index.
func NewIndex(opts Options) *Index {
	return &Index{
		byKey: make(map[string]*Zone),
		cache: NewLRU[spatial.Coordinate, *Zone](opts.CacheSize),
	}
}

// Load replaces the zone set with the given records. Records without a name
// or code, or whose outer ring is degenerate, are discarded and returned as
// defects; they never abort the load.
func (idx *Index) Load(records []ZoneRecord) []Defect {
	var defects []Defect

	zones := make([]*Zone, 0, len(records))
	byKey := make(map[string]*Zone, 2*len(records))

	for _, r := range records {
		z, err := newZone(r)
		if err != nil {
			d := Defect{Source: r.Source, Name: r.Name, Reason: err.Error()}
			log.Printf("boundary: discarding zone record %s", d)

			defects = append(defects, d)

			continue
		}

		zones = append(zones, z)

		for _, key := range []string{textutils.NormalizeName(z.Name), strings.ToLower(z.Code)} {
			if _, dup := byKey[key]; !dup {
				byKey[key] = z
			}
		}
	}

	idx.zones = zones
	idx.byKey = byKey
	idx.cache.Reset()

	return defects
}

// Len returns the number of loaded zones.
func (idx *Index) Len() int {
	return len(idx.zones)
}

// FindZone returns the zone containing p, or nil when p is outside every
// zone. Zones are scanned in load order and the first match wins; a
// well-formed tiling has at most one match, so further matches are logged
// as a dataset defect.
func (idx *Index) FindZone(p spatial.Coordinate) *Zone {
	if p.Validate() != nil {
		return nil
	}

	var found *Zone

	var others []string

	for _, z := range idx.zones {
		if !z.Contains(p) {
			continue
		}

		if found == nil {
			found = z

			continue
		}

		others = append(others, z.String())
	}

	if len(others) > 0 {
		metrics.AmbiguousZoneMatches.Inc()
		log.Printf("boundary: point %s is also inside %s; using %s (first in load order)",
			p, strings.Join(others, ", "), found)
	}

	return found
}

// FindZoneCached is FindZone memoized on p rounded to six decimals. Misses,
// including points outside every zone, are cached too, and repeated calls
// return the same *Zone. Invalid coordinates return nil without touching
// the cache: NaN keys never compare equal and would each take a slot.
func (idx *Index) FindZoneCached(p spatial.Coordinate) *Zone {
	if p.Validate() != nil {
		return nil
	}

	key := p.Rounded(cacheDecimals)

	if z, ok := idx.cache.Get(key); ok {
		metrics.ZoneCacheLookups.WithLabelValues("hit").Inc()

		return z
	}

	metrics.ZoneCacheLookups.WithLabelValues("miss").Inc()

	z := idx.FindZone(p)
	idx.cache.Set(key, z)

	return z
}

// CacheStats returns the coordinate cache counters.
func (idx *Index) CacheStats() CacheStats {
	return idx.cache.Stats()
}

// ResetCache empties the coordinate cache.
func (idx *Index) ResetCache() {
	idx.cache.Reset()
}

// Zone looks a zone up by name (ignoring case, accents and punctuation) or
// by code. It returns nil when nothing matches.
func (idx *Index) Zone(identifier string) *Zone {
	if z, ok := idx.byKey[strings.ToLower(strings.TrimSpace(identifier))]; ok {
		return z
	}

	return idx.byKey[textutils.NormalizeName(identifier)]
}

// AllZones returns the zones matching f, in load order.
func (idx *Index) AllZones(f Filter) []*Zone {
	term := textutils.LowerASCIIFolding(f.SearchTerm)

	result := make([]*Zone, 0, len(idx.zones))

	for _, z := range idx.zones {
		if f.UrbanCoreOnly && !z.IsUrbanCore {
			continue
		}

		if term != "" &&
			!strings.Contains(textutils.LowerASCIIFolding(z.Name), term) &&
			!strings.Contains(strings.ToLower(z.Code), term) {
			continue
		}

		result = append(result, z)
	}

	return result
}

// NeighborsOf returns the zones whose centroid lies within maxDistanceKm of
// zone's centroid, nearest first, excluding zone itself.
//
// This approximates adjacency by centroid proximity: two large zones that
// share a border can be left out, and two small zones across a river can be
// included.
func (idx *Index) NeighborsOf(zone *Zone, maxDistanceKm float64) []Neighbor {
	if zone == nil {
		return nil
	}

	var result []Neighbor

	for _, z := range idx.zones {
		if z == zone || z.Code == zone.Code {
			continue
		}

		d := spatial.HaversineKm(zone.Centroid, z.Centroid)
		if d <= maxDistanceKm {
			result = append(result, Neighbor{Zone: z, DistanceKm: d})
		}
	}

	slices.SortStableFunc(result, func(a, b Neighbor) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		default:
			return 0
		}
	})

	return result
}

// Bounds returns the box enclosing every zone, or false when empty.
func (idx *Index) Bounds() (spatial.BBox, bool) {
	if len(idx.zones) == 0 {
		return spatial.BBox{}, false
	}

	b := idx.zones[0].BBox
	for _, z := range idx.zones[1:] {
		b = b.Expand(z.BBox.Min).Expand(z.BBox.Max)
	}

	return b, true
}
