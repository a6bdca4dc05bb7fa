// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

// Package fare converts trip distances into regulated tricycle fares.
package fare

import (
	"fmt"
	"math"

	"github.com/baseyfare/pasahe/spatial"
)

// Schedule is the fare matrix. The defaults follow Municipal Ordinance
// No. 105, series of 2023.
type Schedule struct {
	// BaseFare covers the first BaseDistanceKm.
	BaseFare       float64 `json:"base_fare" mapstructure:"base_fare"`
	BaseDistanceKm float64 `json:"base_distance_km" mapstructure:"base_distance_km"`
	// PerKmRate is charged for every started kilometer past the base distance.
	PerKmRate float64 `json:"per_km_rate" mapstructure:"per_km_rate"`
	// BoundarySurcharge is added only when the caller asks for it.
	BoundarySurcharge float64 `json:"boundary_surcharge" mapstructure:"boundary_surcharge"`
	// DiscountRates lists the accepted discount rates.
	DiscountRates []float64 `json:"discount_rates" mapstructure:"discount_rates"`
}

// DefaultSchedule returns the ordinance schedule.
func DefaultSchedule() Schedule {
	return Schedule{
		BaseFare:          15.00,
		BaseDistanceKm:    3,
		PerKmRate:         3.00,
		BoundarySurcharge: 0,
		DiscountRates:     []float64{0, 0.05, 0.10, 0.20},
	}
}

// Validate checks the schedule is usable.
func (s Schedule) Validate() error {
	if s.BaseFare < 0 || s.BaseDistanceKm < 0 || s.PerKmRate < 0 || s.BoundarySurcharge < 0 {
		return fmt.Errorf("%w: fare schedule amounts must not be negative", spatial.ErrInvalidInput)
	}

	if len(s.DiscountRates) == 0 {
		return fmt.Errorf("%w: fare schedule has no discount rates", spatial.ErrInvalidInput)
	}

	for _, r := range s.DiscountRates {
		if r < 0 || r >= 1 {
			return fmt.Errorf("%w: discount rate %.2f must be in [0, 1)", spatial.ErrInvalidInput, r)
		}
	}

	return nil
}

// Breakdown itemizes a fare. Amounts are in pesos; only TotalFare and
// DiscountAmount are rounded to centavos.
type Breakdown struct {
	DistanceKm        float64 `json:"distance_km"`
	BaseFare          float64 `json:"base_fare"`
	ExtraDistanceKm   float64 `json:"extra_distance_km"`
	ChargeableExtraKm float64 `json:"chargeable_extra_km"`
	ExtraFare         float64 `json:"extra_fare"`
	BoundarySurcharge float64 `json:"boundary_surcharge"`
	Subtotal          float64 `json:"subtotal"`
	DiscountRate      float64 `json:"discount_rate"`
	DiscountAmount    float64 `json:"discount_amount"`
	TotalFare         float64 `json:"total_fare"`
}

// Engine computes fares for a schedule. It is stateless and safe for
// concurrent use.
type Engine struct {
	schedule Schedule
}

// NewEngine returns an engine for s.
func NewEngine(s Schedule) (*Engine, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &Engine{schedule: s}, nil
}

// Schedule returns the engine's fare matrix.
func (e *Engine) Schedule() Schedule {
	return e.schedule
}

// Calculate prices a trip of distanceKm. Every started kilometer past the
// base distance is charged in full. The boundary surcharge is added only
// when crossesZoneBoundary is set.
func (e *Engine) Calculate(distanceKm, discountRate float64, crossesZoneBoundary bool) (Breakdown, error) {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) || distanceKm < 0 {
		return Breakdown{}, fmt.Errorf("%w: distance must be a non-negative number (got %f)", spatial.ErrInvalidInput, distanceKm)
	}

	if !e.acceptsRate(discountRate) {
		return Breakdown{}, fmt.Errorf("%w: discount rate %.2f is not one of %v", spatial.ErrInvalidInput, discountRate, e.schedule.DiscountRates)
	}

	s := e.schedule
	b := Breakdown{
		DistanceKm:   distanceKm,
		BaseFare:     s.BaseFare,
		DiscountRate: discountRate,
	}

	if distanceKm > s.BaseDistanceKm {
		b.ExtraDistanceKm = distanceKm - s.BaseDistanceKm
		b.ChargeableExtraKm = math.Ceil(b.ExtraDistanceKm)
		b.ExtraFare = b.ChargeableExtraKm * s.PerKmRate
	}

	if crossesZoneBoundary {
		b.BoundarySurcharge = s.BoundarySurcharge
	}

	b.Subtotal = b.BaseFare + b.ExtraFare + b.BoundarySurcharge
	discount := b.Subtotal * discountRate

	b.DiscountAmount = round2(discount)
	b.TotalFare = round2(b.Subtotal - discount)

	return b, nil
}

func (e *Engine) acceptsRate(rate float64) bool {
	for _, r := range e.schedule.DiscountRates {
		if math.Abs(r-rate) < 1e-9 {
			return true
		}
	}

	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
