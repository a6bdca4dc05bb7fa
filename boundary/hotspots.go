// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package boundary

import (
	"cmp"
	"slices"

	"github.com/baseyfare/pasahe/spatial"
)

// Incident is a geotagged report, supplied by the incident registry.
type Incident struct {
	Coordinate spatial.Coordinate `json:"coordinate"`
	Type       string             `json:"type,omitempty"`
}

// Hotspot aggregates the incidents that fell inside one zone.
type Hotspot struct {
	Zone          *Zone          `json:"zone"`
	IncidentCount int            `json:"incident_count"`
	IncidentTypes map[string]int `json:"incident_types"`
}

// HotspotReport is the per-zone breakdown of a set of incidents.
type HotspotReport struct {
	Hotspots []Hotspot `json:"hotspots"`
	Mapped   int       `json:"total_mapped_incidents"`
	Unmapped int       `json:"unmapped_incidents"`
}

// Hotspots groups incidents by zone, busiest zone first. Ties keep the
// zone name order so reports are stable.
func Hotspots(zones ZoneFinder, incidents []Incident) HotspotReport {
	var report HotspotReport

	byZone := make(map[*Zone]*Hotspot)

	for _, in := range incidents {
		z := zones.FindZoneCached(in.Coordinate)
		if z == nil {
			report.Unmapped++

			continue
		}

		report.Mapped++

		h, ok := byZone[z]
		if !ok {
			h = &Hotspot{Zone: z, IncidentTypes: make(map[string]int)}
			byZone[z] = h
		}

		h.IncidentCount++

		if in.Type != "" {
			h.IncidentTypes[in.Type]++
		}
	}

	report.Hotspots = make([]Hotspot, 0, len(byZone))
	for _, h := range byZone {
		report.Hotspots = append(report.Hotspots, *h)
	}

	slices.SortFunc(report.Hotspots, func(a, b Hotspot) int {
		if c := cmp.Compare(b.IncidentCount, a.IncidentCount); c != 0 {
			return c
		}

		return cmp.Compare(a.Zone.Name, b.Zone.Name)
	})

	return report
}
