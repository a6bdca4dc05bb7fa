// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baseyfare/pasahe/boundary"
	"github.com/baseyfare/pasahe/spatial"
)

// If we can't stat the file we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugRouteCmd = &cobra.Command{
	Use:   "route [polyline]",
	Short: "Trace the barangays crossed by a route",
	Long: `Reads an encoded polyline argument, or one "lat,lng" coordinate per line
from stdin, and prints the barangay of every point followed by the crossing
summary.

$ printf '11.2800,125.0650\n11.2900,125.0700\n' | pasahe debug route
	`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		var (
			points []spatial.Coordinate
			err    error
		)

		if len(args) == 1 {
			points, err = spatial.DecodePolyline(args[0])
			if err != nil {
				return err
			}
		} else {
			points, err = readPoints(os.Stdin)
			if err != nil {
				return err
			}
		}

		idx, err := zonesFromConfig()
		if err != nil {
			return err
		}

		analyzer := boundary.NewAnalyzer(idx)

		crossing := analyzer.Analyze(points)

		if jsonOutput {
			return printJSON(os.Stdout, crossing)
		}

		for _, p := range points {
			fmt.Printf("%s\t%s\n", p, idx.FindZoneCached(p))
		}

		names := make([]string, 0, len(crossing.ZonesCrossed))
		for _, z := range crossing.ZonesCrossed {
			names = append(names, z.Name)
		}

		fmt.Printf("\nZones:      %s\n", strings.Join(names, " → "))
		fmt.Printf("Crossings:  %d\n", crossing.BoundaryCrossings)
		fmt.Printf("Unmapped:   %d of %d points\n", crossing.UnmappedPoints, len(points))
		fmt.Printf("In Basey:   %t\n", analyzer.WithinMunicipality(points))

		stats := idx.CacheStats()
		fmt.Printf("Cache:      %d hits, %d misses\n", stats.Hits, stats.Misses)

		return nil
	},
}

func readPoints(f *os.File) ([]spatial.Coordinate, error) {
	if isTerminal(f) {
		fmt.Fprintln(os.Stderr, "Enter route points as lat,lng, one per line…")
	}

	var points []spatial.Coordinate

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		c, err := spatial.ParseCoordinate(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}

		points = append(points, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	return points, nil
}

var debugGeocodeCmd = &cobra.Command{
	Use:   "geocode lat,lng",
	Short: "Reverse geocode a coordinate and print the raw oracle answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := spatial.ParseCoordinate(args[0])
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := newOracle(cmd.Context(), cfg).ReverseGeocode(cmd.Context(), c)
		if err != nil {
			return err
		}

		return printJSON(os.Stdout, result)
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugRouteCmd)
	debugCmd.AddCommand(debugGeocodeCmd)
}
