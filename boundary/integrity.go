// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package boundary

import (
	"fmt"
	"strings"

	"github.com/baseyfare/pasahe/utils/textutils"
)

// Check inspects the loaded zones for problems that do not prevent loading
// but make lookups unreliable: duplicate names or codes, zones whose
// centroid falls outside their own outline, and overlapping zones (detected
// by centroids that are inside more than one zone).
func (idx *Index) Check() []Defect {
	var defects []Defect

	names := make(map[string]*Zone)
	codes := make(map[string]*Zone)

	for _, z := range idx.zones {
		source := "zone " + z.Code

		if prev, ok := codes[strings.ToLower(z.Code)]; ok {
			defects = append(defects, Defect{Source: source, Name: z.Name, Reason: "duplicate code, also used by " + prev.Name})
		} else {
			codes[strings.ToLower(z.Code)] = z
		}

		if prev, ok := names[textutils.NormalizeName(z.Name)]; ok {
			defects = append(defects, Defect{Source: source, Name: z.Name, Reason: "duplicate name, also used by " + prev.Code})
		} else {
			names[textutils.NormalizeName(z.Name)] = z
		}

		if !z.Contains(z.Centroid) {
			defects = append(defects, Defect{Source: source, Name: z.Name, Reason: fmt.Sprintf("centroid %s is outside the zone", z.Centroid)})
		}

		for _, other := range idx.zones {
			if other != z && other.Contains(z.Centroid) {
				defects = append(defects, Defect{Source: source, Name: z.Name, Reason: "centroid is also inside " + other.String()})
			}
		}
	}

	return defects
}
