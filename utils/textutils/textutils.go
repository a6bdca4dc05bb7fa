// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils holds the name folding helpers used to compare zone and
// location names typed by operators against dataset spellings.
package textutils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// NormalizeName folds accents and case, turns punctuation into spaces and
// collapses runs of whitespace, so "Sto. Niño" and "sto nino" compare equal.
func NormalizeName(s string) string {
	s = LowerASCIIFolding(s)

	var b strings.Builder

	b.Grow(len(s))

	space := false

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}

			space = false

			b.WriteRune(r)

			continue
		}

		space = true
	}

	return b.String()
}

// SameName reports whether two names are equal after NormalizeName.
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// Trigrams returns the set of character trigrams of the normalized name,
// padded with spaces so short names still produce grams.
func Trigrams(s string) map[string]int {
	s = " " + NormalizeName(s) + " "
	r := []rune(s)

	grams := make(map[string]int, len(r))
	for i := 0; i+3 <= len(r); i++ {
		grams[string(r[i:i+3])]++
	}

	return grams
}

// FormatInt formats an integer with commas for human readability.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // First character is the - sign (not a digit)
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}

// FormatPeso renders an amount as "₱1,234.50".
func FormatPeso(amount float64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	cents := int64(amount*100 + 0.5)
	s := "₱" + FormatInt(cents/100) + "." + twoDigits(cents%100)

	if neg {
		return "-" + s
	}

	return s
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}

	return strconv.FormatInt(n, 10)
}
