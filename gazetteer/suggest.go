// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package gazetteer

import (
	"math"
	"sort"

	"github.com/baseyfare/pasahe/utils/textutils"
)

// Suggestion is a location whose name resembles a query.
type Suggestion struct {
	Location NamedLocation `json:"location"`
	Score    float64       `json:"score"`
}

// Suggester ranks gazetteer names by similarity to free text, so typos
// like "Amandayhan" still find "Amandayehan". Names are compared as
// character trigram vectors.
type Suggester struct {
	locations []NamedLocation
	vectors   []map[string]int
}

// NewSuggester pre-vectorizes every location name of g.
func NewSuggester(g *Gazetteer) *Suggester {
	s := &Suggester{locations: g.All()}

	s.vectors = make([]map[string]int, len(s.locations))
	for i, loc := range s.locations {
		s.vectors[i] = textutils.Trigrams(loc.Name)
	}

	return s
}

// Suggest returns up to limit locations scoring at least threshold, best
// first. A name equal to the query after folding scores 1.
func (s *Suggester) Suggest(query string, threshold float64, limit int) []Suggestion {
	if textutils.NormalizeName(query) == "" {
		return nil
	}

	q := textutils.Trigrams(query)

	var result []Suggestion

	for i, loc := range s.locations {
		score := cosineSimilarity(q, s.vectors[i])
		if textutils.SameName(query, loc.Name) {
			score = 1
		}

		if score >= threshold {
			result = append(result, Suggestion{Location: loc, Score: score})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result
}

// cosineSimilarity of two frequency vectors, in [0, 1].
func cosineSimilarity(v1, v2 map[string]int) float64 {
	dotProduct := 0

	for k, v := range v1 {
		dotProduct += v * v2[k]
	}

	mag1 := 0
	for _, v := range v1 {
		mag1 += v * v
	}

	mag2 := 0
	for _, v := range v2 {
		mag2 += v * v
	}

	if mag1 == 0 || mag2 == 0 {
		return 0
	}

	return float64(dotProduct) / (math.Sqrt(float64(mag1)) * math.Sqrt(float64(mag2)))
}
