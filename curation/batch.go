// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package curation

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
)

// BatchOptions configures VerifyAll.
type BatchOptions struct {
	// MaxProcs bounds concurrent validations; zero means runtime.NumCPU().
	MaxProcs int
	// RatePerSecond caps oracle calls; zero means unlimited.
	RatePerSecond float64
	// Progress receives a progress bar when it is a terminal; nil means
	// os.Stderr.
	Progress *os.File
}

// BatchResult pairs a gazetteer entry with its verdict.
type BatchResult struct {
	Location gazetteer.NamedLocation `json:"location"`
	Verdict  Verdict                 `json:"verdict"`
}

// BatchSummary counts the verdicts of a batch.
type BatchSummary struct {
	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Warnings int `json:"with_warnings"`
}

// Summarize counts results.
func Summarize(results []BatchResult) BatchSummary {
	s := BatchSummary{Total: len(results)}

	for _, r := range results {
		if r.Verdict.IsValid {
			s.Valid++
		} else {
			s.Invalid++
		}

		if len(r.Verdict.Warnings) > 0 {
			s.Warnings++
		}
	}

	return s
}

// VerifyAll validates every location through p. Results keep the input
// order. It returns early with ctx's error when ctx is cancelled.
func VerifyAll(ctx context.Context, p *Pipeline, locs []gazetteer.NamedLocation, opts BatchOptions) ([]BatchResult, error) {
	n := len(locs)

	maxProcs := opts.MaxProcs
	if maxProcs <= 0 {
		maxProcs = runtime.NumCPU()
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	limiter := rate.NewLimiter(limit, 1)

	out := opts.Progress
	if out == nil {
		out = os.Stderr
	}

	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(out.Fd()) {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("Verifying locations"),
			progressbar.OptionSetWriter(io.Writer(out)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]BatchResult, n)

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, maxProcs)
	errChan := make(chan error, n)

	for i, loc := range locs {
		wg.Add(1)

		go func(i int, loc gazetteer.NamedLocation) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			if err := limiter.Wait(ctx); err != nil {
				errChan <- fmt.Errorf("verifying %s - %w", loc.Name, err)

				return
			}

			results[i] = BatchResult{
				Location: loc,
				Verdict: p.Validate(ctx, LocationValidationRequest{
					Name:         loc.Name,
					Coordinates:  loc.Coordinate.String(),
					ExpectedZone: expectedZone(loc),
					Category:     loc.Category,
					Description:  loc.Address,
				}),
			}

			if bar == nil {
				log.Printf("Verified %s", loc.Name)
			} else if err := bar.Add(1); err != nil {
				log.Printf("updating progress bar for %s: %v", loc.Name, err)
			}
		}(i, loc)
	}

	wg.Wait()
	close(errChan)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("verification interrupted: %w", err)
	}

	for err := range errChan {
		log.Printf("Verification failed - %s", err)
	}

	return results, nil
}

// expectedZone is the zone a gazetteer entry claims to be in: its own name
// for barangay centers.
func expectedZone(loc gazetteer.NamedLocation) string {
	if loc.Category == gazetteer.CategoryZone {
		return loc.Name
	}

	return ""
}
