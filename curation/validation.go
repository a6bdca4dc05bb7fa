// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/baseyfare/pasahe/boundary"
	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/baseyfare/pasahe/metrics"
	"github.com/baseyfare/pasahe/spatial"
	"github.com/baseyfare/pasahe/utils/textutils"
)

// Confidence is how precisely the oracle placed a coordinate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

var (
	precisePlaceTypes     = []string{"premise", "street_address", "establishment", "point_of_interest"}
	approximatePlaceTypes = []string{"administrative_area_level_3", "administrative_area_level_4", "political"}
	naturalPlaceTypes     = []string{"natural_feature", "park", "campground"}
)

// LocationValidationRequest is a candidate location submitted by an operator.
type LocationValidationRequest struct {
	Name         string             `json:"name"`
	Coordinates  string             `json:"coordinates"`
	ExpectedZone string             `json:"expected_zone,omitempty"`
	Category     gazetteer.Category `json:"category"`
	Description  string             `json:"description,omitempty"`
}

// Verdict is the outcome of validating one location. Warnings never make a
// verdict invalid; errors do.
type Verdict struct {
	IsValid            bool                    `json:"is_valid"`
	Errors             []string                `json:"errors"`
	Warnings           []string                `json:"warnings"`
	DetectedZone       *boundary.Zone          `json:"detected_zone"`
	ExpectedZone       string                  `json:"expected_zone,omitempty"`
	WithinMunicipality bool                    `json:"within_municipality"`
	WithinZone         bool                    `json:"within_zone"`
	Coordinate         *spatial.Coordinate     `json:"coordinate"`
	ExternalConfidence Confidence              `json:"external_confidence"`
	Oracle             *ReverseGeocodingResult `json:"oracle,omitempty"`
	Recommendations    []string                `json:"recommendations"`
}

func (v *Verdict) errorf(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

func (v *Verdict) warnf(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}

func (v *Verdict) recommend(lines ...string) {
	v.Recommendations = append(v.Recommendations, lines...)
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// Bounds is the generous municipal box used by the range check.
	Bounds spatial.BBox
	// Timeout caps each oracle call.
	Timeout time.Duration
	// Municipality, Province and Country are the administrative names the
	// oracle must report. Matching is a case and accent insensitive
	// substring test.
	Municipality string
	Province     string
	Country      string
}

// DefaultPipelineOptions returns the options for Basey, Samar.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Bounds: spatial.BBox{
			Min: spatial.Coordinate{Lat: 11.15, Lng: 125.00},
			Max: spatial.Coordinate{Lat: 11.50, Lng: 125.20},
		},
		Timeout:      5 * time.Second,
		Municipality: "Basey",
		Province:     "Samar",
		Country:      "Philippines",
	}
}

// Pipeline cross-checks candidate locations against the zone index and an
// external reverse geocoder.
type Pipeline struct {
	zones  *boundary.Index
	oracle ReverseGeocoder
	opts   PipelineOptions
}

// NewPipeline returns a pipeline. Zero fields in opts take their defaults.
func NewPipeline(zones *boundary.Index, oracle ReverseGeocoder, opts PipelineOptions) *Pipeline {
	def := DefaultPipelineOptions()

	if opts.Bounds == (spatial.BBox{}) {
		opts.Bounds = def.Bounds
	}

	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}

	if opts.Municipality == "" {
		opts.Municipality = def.Municipality
	}

	if opts.Province == "" {
		opts.Province = def.Province
	}

	if opts.Country == "" {
		opts.Country = def.Country
	}

	return &Pipeline{zones: zones, oracle: oracle, opts: opts}
}

// Options returns the effective options.
func (p *Pipeline) Options() PipelineOptions {
	return p.opts
}

// Validate runs every check on req. Only an unparseable coordinate stops
// the pipeline early; otherwise all checks run and the verdict carries
// every problem found.
func (p *Pipeline) Validate(ctx context.Context, req LocationValidationRequest) Verdict {
	v := Verdict{
		Errors:             []string{},
		Warnings:           []string{},
		Recommendations:    []string{},
		ExpectedZone:       strings.TrimSpace(req.ExpectedZone),
		ExternalConfidence: ConfidenceLow,
	}

	if req.Category == "" {
		req.Category = gazetteer.CategoryLandmark
	}

	defer func() {
		metrics.Validations.WithLabelValues(string(req.Category), strconv.FormatBool(v.IsValid)).Inc()
	}()

	if strings.TrimSpace(req.Name) == "" {
		v.errorf("Location name is required")
	}

	c, err := spatial.ParseCoordinate(req.Coordinates)
	if err != nil {
		v.errorf("Invalid coordinate format, expected \"latitude,longitude\" (e.g. \"11.2727,125.0627\"): %v", err)

		return v
	}

	v.Coordinate = &c

	p.checkRange(&v, c)
	p.checkBoundary(&v, c, req.Category)
	p.checkOracle(ctx, &v, c)
	p.checkHints(&v, req)

	v.recommend("Verify on Google Maps: " + MapsURL(c, ""))

	v.IsValid = len(v.Errors) == 0 && v.WithinMunicipality

	return v
}

func (p *Pipeline) checkRange(v *Verdict, c spatial.Coordinate) {
	b := p.opts.Bounds
	if b.Contains(c) {
		return
	}

	v.warnf("Coordinates (%s) may be outside %s. Expected range: lat %g to %g, lng %g to %g",
		c, p.opts.Municipality, b.Min.Lat, b.Max.Lat, b.Min.Lng, b.Max.Lng)
	v.recommend("Verify this is the correct location using Google Maps")
}

func (p *Pipeline) checkBoundary(v *Verdict, c spatial.Coordinate, category gazetteer.Category) {
	z := p.zones.FindZoneCached(c)
	if z == nil {
		switch category {
		case gazetteer.CategoryLandmark:
			// tourist destinations legitimately sit outside the mapped zones
			v.WithinMunicipality = true

			v.warnf("Landmark coordinates are outside mapped barangay boundaries")
			v.recommend("Verify the landmark is accessible from " + p.opts.Municipality)
		case gazetteer.CategoryZone:
			v.errorf("Barangay coordinates must fall inside a mapped barangay boundary")
			v.recommend("Check the coordinates against the barangay map")
		default:
			v.warnf("Coordinates are not within mapped barangay boundaries")
			v.recommend("Check if this is in a remote or unmapped area")
		}

		return
	}

	v.DetectedZone = z
	v.WithinZone = true
	v.WithinMunicipality = true

	if v.ExpectedZone != "" && !textutils.SameName(z.Name, v.ExpectedZone) && !strings.EqualFold(z.Code, v.ExpectedZone) {
		v.warnf("Coordinates are in %q but expected barangay is %q", z.Name, v.ExpectedZone)
		v.recommend("Verify the barangay name or adjust coordinates")
	}
}

type oracleAnswer struct {
	res *ReverseGeocodingResult
	err error
}

// reverseGeocode calls the oracle with the pipeline timeout. The caller is
// released when the timeout fires even if the oracle ignores ctx; the
// abandoned call finishes in the background.
func (p *Pipeline) reverseGeocode(ctx context.Context, c spatial.Coordinate) (*ReverseGeocodingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	answer := make(chan oracleAnswer, 1)

	go func() {
		res, err := p.oracle.ReverseGeocode(ctx, c)
		answer <- oracleAnswer{res: res, err: err}
	}()

	select {
	case a := <-answer:
		if a.err == nil && ctx.Err() != nil {
			return nil, &GeocodingError{Type: ErrorTypeTimeout, Message: "reverse geocoding timed out", Err: ctx.Err()}
		}

		return a.res, a.err
	case <-ctx.Done():
		return nil, &GeocodingError{Type: ErrorTypeTimeout, Message: "reverse geocoding timed out", Err: ctx.Err()}
	}
}

func (p *Pipeline) checkOracle(ctx context.Context, v *Verdict, c spatial.Coordinate) {
	if p.oracle == nil {
		v.errorf("External location verification is not configured")

		return
	}

	res, err := p.reverseGeocode(ctx, c)

	if err != nil {
		log.Printf("curation: reverse geocoding %s failed: %v", c, err)

		if IsTimeoutError(err) {
			v.errorf("External location verification timed out after %s", p.opts.Timeout)
		} else {
			v.errorf("External location verification failed: %v", err)
		}

		v.recommend("Double-check coordinates using Google Maps manually")

		return
	}

	if res == nil || (res.FormattedAddress == "" && res.Municipality == "" && res.Province == "" && res.Country == "") {
		v.errorf("External location verification returned no result")

		return
	}

	v.Oracle = res

	mismatch := false

	if !adminMatches(res.Municipality, p.opts.Municipality, true) {
		mismatch = true

		v.errorf("Reverse geocoding places this location in %q, not %s", res.Municipality, p.opts.Municipality)
	}

	if !adminMatches(res.Province, p.opts.Province, true) {
		mismatch = true

		v.errorf("Reverse geocoding places this location in %q, not %s province", res.Province, p.opts.Province)
	}

	if !adminMatches(res.Country, p.opts.Country, false) {
		mismatch = true

		v.errorf("Reverse geocoding places this location in %q, not %s", res.Country, p.opts.Country)
	}

	v.ExternalConfidence = confidence(res.PlaceTypes, mismatch)

	switch v.ExternalConfidence {
	case ConfidenceLow:
		v.warnf("External verification confidence is low for this location")
		v.recommend("Consider using more precise coordinates if available")
	case ConfidenceMedium:
		v.warnf("Coordinates appear to be approximate (administrative area level)")
		v.recommend("Location verified with medium confidence")
	case ConfidenceHigh:
		v.recommend("Location verified with high confidence")
	}

	if hasAny(res.PlaceTypes, naturalPlaceTypes) {
		v.warnf("Coordinates point to a natural feature or park area")
	}

	if res.FormattedAddress != "" {
		v.recommend("Reverse geocoded address: " + res.FormattedAddress)
	}
}

// adminMatches reports whether the reported administrative name contains
// the expected one. An empty report passes when allowEmpty is set, since
// rural results often lack the finer levels.
func adminMatches(reported, expected string, allowEmpty bool) bool {
	if strings.TrimSpace(reported) == "" {
		return allowEmpty
	}

	return strings.Contains(textutils.NormalizeName(reported), textutils.NormalizeName(expected))
}

func confidence(placeTypes []string, mismatch bool) Confidence {
	switch {
	case mismatch:
		return ConfidenceLow
	case hasAny(placeTypes, precisePlaceTypes):
		return ConfidenceHigh
	case hasAny(placeTypes, approximatePlaceTypes):
		return ConfidenceMedium
	default:
		return ConfidenceHigh
	}
}

func hasAny(types, wanted []string) bool {
	return slices.ContainsFunc(types, func(t string) bool { return slices.Contains(wanted, t) })
}

func (p *Pipeline) checkHints(v *Verdict, req LocationValidationRequest) {
	if req.Category == gazetteer.CategoryZone && v.ExpectedZone == "" {
		v.warnf("Barangay name should be specified for barangay locations")
	}

	if req.Category == gazetteer.CategoryLandmark && len(strings.TrimSpace(req.Description)) < 10 {
		v.warnf("Landmarks should have a detailed description")
		v.recommend("Add a description of what makes this location a landmark")
	}

	name := strings.TrimSpace(req.Name)
	switch n := len([]rune(name)); {
	case n > 0 && n < 3:
		v.warnf("Location name is very short")
	case n > 100:
		v.warnf("Location name is very long, consider shortening it")
	}
}

// MapsURL returns a Google Maps search link for visual verification.
func MapsURL(c spatial.Coordinate, name string) string {
	query := c.String()
	if name != "" {
		query = name
	}

	return "https://www.google.com/maps/search/?api=1&query=" + url.QueryEscape(query)
}
