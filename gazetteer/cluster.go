// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import "github.com/baseyfare/pasahe/spatial"

// Cluster groups locations that are within thresholdKm of any member of
// the group (single linkage). Groups are ordered by their first member.
func Cluster(locs []NamedLocation, thresholdKm float64) [][]NamedLocation {
	clusters := make([][]NamedLocation, 0, len(locs))

	visited := make([]bool, len(locs))

	for i, l1 := range locs {
		if visited[i] {
			continue
		}

		cluster := []NamedLocation{l1}
		visited[i] = true

		// Grow until no unvisited location is close to any member.
		for grown := true; grown; {
			grown = false

			for j, l2 := range locs {
				if visited[j] {
					continue
				}

				for _, member := range cluster {
					if spatial.HaversineKm(l2.Coordinate, member.Coordinate) <= thresholdKm {
						cluster = append(cluster, l2)
						visited[j] = true
						grown = true

						break
					}
				}
			}
		}

		clusters = append(clusters, cluster)
	}

	return clusters
}

// Duplicates returns the clusters of g with more than one member: entries
// likely describing the same place.
func (g *Gazetteer) Duplicates(thresholdKm float64) [][]NamedLocation {
	var dups [][]NamedLocation

	for _, c := range Cluster(g.locations, thresholdKm) {
		if len(c) > 1 {
			dups = append(dups, c)
		}
	}

	return dups
}
