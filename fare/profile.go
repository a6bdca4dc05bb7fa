// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package fare

import (
	"fmt"
	"strings"

	"github.com/baseyfare/pasahe/spatial"
	"github.com/baseyfare/pasahe/utils/textutils"
)

// Profile is a passenger discount category.
type Profile string

// Discount categories. Senior citizens (RA 9994), persons with disability
// (RA 10754) and students (RA 11314) all get 20%.
const (
	ProfileNone          Profile = "none"
	ProfileSeniorCitizen Profile = "senior_citizen"
	ProfilePWD           Profile = "pwd"
	ProfileStudent       Profile = "student"
)

var profileRates = map[Profile]float64{
	ProfileNone:          0,
	ProfileSeniorCitizen: 0.20,
	ProfilePWD:           0.20,
	ProfileStudent:       0.20,
}

var profileAliases = map[string]Profile{
	"":               ProfileNone,
	"none":           ProfileNone,
	"regular":        ProfileNone,
	"senior":         ProfileSeniorCitizen,
	"senior citizen": ProfileSeniorCitizen,
	"pwd":            ProfilePWD,
	"disabled":       ProfilePWD,
	"student":        ProfileStudent,
}

// Profiles lists the known profiles.
func Profiles() []Profile {
	return []Profile{ProfileNone, ProfileSeniorCitizen, ProfilePWD, ProfileStudent}
}

// Rate returns the discount rate of the profile.
func (p Profile) Rate() float64 {
	return profileRates[p]
}

// ParseProfile accepts profile names in any case, with spaces, dashes or
// underscores.
func ParseProfile(name string) (Profile, error) {
	key := textutils.NormalizeName(strings.ReplaceAll(name, "_", " "))
	if p, ok := profileAliases[key]; ok {
		return p, nil
	}

	return "", fmt.Errorf("%w: unknown discount profile %q", spatial.ErrInvalidInput, name)
}
