// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package boundary

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ExportGeoJSON renders zones as a FeatureCollection for map clients. The
// properties mirror the input dataset plus the derived centroid and area.
func ExportGeoJSON(zones []*Zone) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, z := range zones {
		pg := orb.Polygon{toOrbRing(z.Polygon.Outer)}
		for _, h := range z.Polygon.Holes {
			pg = append(pg, toOrbRing(h))
		}

		feature := geojson.NewFeature(pg)
		feature.ID = z.Code
		feature.Properties[propName] = z.Name
		feature.Properties[propCode] = z.Code
		feature.Properties[propPoblacion] = z.IsUrbanCore
		feature.Properties["centroid"] = []float64{z.Centroid.Lng, z.Centroid.Lat}
		feature.Properties["area_km2"] = math.Round(z.AreaKm2*1000) / 1000

		fc.Append(feature)
	}

	return fc
}
