// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baseyfare/pasahe/curation"
	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/baseyfare/pasahe/utils/textutils"
)

var locationsOptions struct {
	Category      string
	OnlyCategory  string
	ExpectedZone  string
	Description   string
	Limit         int
	Threshold     float64
	ThresholdKm   float64
	Invalid       bool
	Source        string
	Address       string
	Override      bool
	Justification string
	Output        string
}

var locationsCmd = &cobra.Command{
	Use:     "locations",
	Aliases: []string{"loc"},
	Short:   "Search and curate the gazetteer of named places",
}

var locationsSearchCmd = &cobra.Command{
	Use:   "search query",
	Short: "Find locations by name, falling back to fuzzy suggestions",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		g, err := loadGazetteer(cfg)
		if err != nil {
			return err
		}

		matches := g.Search(args[0])
		if len(matches) > 0 {
			if jsonOutput {
				return printJSON(os.Stdout, matches)
			}

			for _, l := range matches {
				printLocation(os.Stdout, l)
			}

			return nil
		}

		suggestions := gazetteer.NewSuggester(g).Suggest(args[0], locationsOptions.Threshold, locationsOptions.Limit)

		if jsonOutput {
			return printJSON(os.Stdout, suggestions)
		}

		if len(suggestions) == 0 {
			return fmt.Errorf("no location matches %q", args[0])
		}

		fmt.Fprintf(os.Stderr, "No exact match for %q, did you mean:\n", args[0])

		for _, s := range suggestions {
			fmt.Printf("%.2f  ", s.Score)
			printLocation(os.Stdout, s.Location)
		}

		return nil
	},
}

func printLocation(w io.Writer, l gazetteer.NamedLocation) {
	mark := " "
	if l.Verified {
		mark = "✓"
	}

	fmt.Fprintf(w, "%s %-9s %-40s %s\n", mark, l.Category, l.Name, l.Coordinate)
}

var locationsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count gazetteer entries per category",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		g, err := loadGazetteer(cfg)
		if err != nil {
			return err
		}

		return printJSON(os.Stdout, g.Stats())
	},
}

var locationsValidateCmd = &cobra.Command{
	Use:   "validate name lat,lng",
	Short: "Validate a location against the boundaries and reverse geocoding",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		req, err := validationRequest(args)
		if err != nil {
			return err
		}

		idx, err := loadZones(cfg)
		if err != nil {
			return err
		}

		verdict := newPipeline(cfg, idx, newOracle(cmd.Context(), cfg)).Validate(cmd.Context(), req)

		if jsonOutput {
			if err := printJSON(os.Stdout, verdict); err != nil {
				return err
			}
		} else {
			printVerdict(os.Stdout, req.Name, verdict)
		}

		if !verdict.IsValid {
			return fmt.Errorf("%q is not a valid location", req.Name)
		}

		return nil
	},
}

func validationRequest(args []string) (curation.LocationValidationRequest, error) {
	category, err := gazetteer.ParseCategory(locationsOptions.Category)
	if err != nil {
		return curation.LocationValidationRequest{}, err
	}

	return curation.LocationValidationRequest{
		Name:         args[0],
		Coordinates:  args[1],
		ExpectedZone: locationsOptions.ExpectedZone,
		Category:     category,
		Description:  locationsOptions.Description,
	}, nil
}

func printVerdict(w io.Writer, name string, v curation.Verdict) {
	status := "✅ valid"
	if !v.IsValid {
		status = "❌ invalid"
	}

	fmt.Fprintf(w, "%s: %s (confidence %s)\n", name, status, v.ExternalConfidence)

	if v.DetectedZone != nil {
		fmt.Fprintf(w, "  barangay: %s\n", v.DetectedZone)
	}

	for _, e := range v.Errors {
		fmt.Fprintf(w, "  error:   %s\n", e)
	}

	for _, warn := range v.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}

	for _, r := range v.Recommendations {
		fmt.Fprintf(w, "  %s\n", r)
	}
}

var locationsVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate every gazetteer entry",
	Long: `Runs every gazetteer entry through the validation pipeline using
batch.max_procs workers and at most batch.rate_per_second reverse geocoding
requests per second.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		g, err := loadGazetteer(cfg)
		if err != nil {
			return err
		}

		idx, err := loadZones(cfg)
		if err != nil {
			return err
		}

		locs := g.All()
		if locationsOptions.OnlyCategory != "" {
			category, err := gazetteer.ParseCategory(locationsOptions.OnlyCategory)
			if err != nil {
				return err
			}

			locs = g.ByCategory(category)
		}

		p := newPipeline(cfg, idx, newOracle(cmd.Context(), cfg))

		results, err := curation.VerifyAll(cmd.Context(), p, locs, curation.BatchOptions{
			MaxProcs:      cfg.Batch.MaxProcs,
			RatePerSecond: cfg.Batch.RatePerSecond,
			Progress:      os.Stderr,
		})
		if err != nil {
			return err
		}

		if locationsOptions.Invalid {
			kept := results[:0]

			for _, r := range results {
				if !r.Verdict.IsValid {
					kept = append(kept, r)
				}
			}

			results = kept
		}

		if jsonOutput {
			return printJSON(os.Stdout, results)
		}

		for _, r := range results {
			printVerdict(os.Stdout, r.Location.Name, r.Verdict)
		}

		summary := curation.Summarize(results)
		log.Printf("Verified %s locations: %s valid, %s invalid, %s with warnings",
			textutils.FormatInt(int64(summary.Total)),
			textutils.FormatInt(int64(summary.Valid)),
			textutils.FormatInt(int64(summary.Invalid)),
			textutils.FormatInt(int64(summary.Warnings)))

		return nil
	},
}

var locationsAddCmd = &cobra.Command{
	Use:   "add name lat,lng",
	Short: "Validate a location and save it in the registry",
	Long: `Validates the location and saves it in the registry. A location that
fails validation is only saved with --override and a --justification.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		req, err := validationRequest(args)
		if err != nil {
			return err
		}

		idx, err := loadZones(cfg)
		if err != nil {
			return err
		}

		verdict := newPipeline(cfg, idx, newOracle(cmd.Context(), cfg)).Validate(cmd.Context(), req)
		printVerdict(os.Stderr, req.Name, verdict)

		if verdict.Coordinate == nil {
			return fmt.Errorf("%q has no usable coordinates", req.Name)
		}

		if !verdict.IsValid {
			if !locationsOptions.Override || strings.TrimSpace(locationsOptions.Justification) == "" {
				return fmt.Errorf("%q failed validation; use --override with --justification to save it anyway", req.Name)
			}

			log.Printf("⚠️  Registering %q despite failed validation: %s", req.Name, locationsOptions.Justification)
		}

		db, repo, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		rec := &gazetteer.Record{
			NamedLocation: gazetteer.NamedLocation{
				Name:       strings.TrimSpace(req.Name),
				Coordinate: *verdict.Coordinate,
				Category:   req.Category,
				Verified:   verdict.IsValid,
				Source:     locationsOptions.Source,
				Address:    locationsOptions.Address,
			},
			Notes: locationsOptions.Justification,
		}

		if err := repo.Save(rec); err != nil {
			return err
		}

		log.Printf("✅ Saved %q as record %d", rec.Name, rec.ID)

		return nil
	},
}

var locationsDuplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List gazetteer entries that are probably the same place",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		g, err := loadGazetteer(cfg)
		if err != nil {
			return err
		}

		dups := g.Duplicates(locationsOptions.ThresholdKm)

		if jsonOutput {
			return printJSON(os.Stdout, dups)
		}

		for i, cluster := range dups {
			fmt.Printf("Group %d:\n", i+1)

			for _, l := range cluster {
				fmt.Print("  ")
				printLocation(os.Stdout, l)
			}
		}

		return nil
	},
}

var locationsStoreCmd = &cobra.Command{
	Use:   "store",
	Short: "Export the registry to a gazetteer JSON file",
	Long: `Writes every registry record in the gazetteer format, so locations
registered through the API can be checked into version control.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, repo, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		var meta gazetteer.Metadata
		if g, err := loadGazetteer(cfg); err == nil {
			meta = g.Metadata()
		}

		g, err := gazetteer.Export(repo, meta)
		if err != nil {
			return err
		}

		output := locationsOptions.Output
		if output == "" {
			output = cfg.Data.Locations
		}

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()

		if err := g.WriteJSON(f); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}

		fmt.Printf("✅ Exported %s locations to %s\n", textutils.FormatInt(int64(g.Len())), output)

		return nil
	},
}

func init() {
	locationsSearchCmd.Flags().IntVar(&locationsOptions.Limit, "limit", 5, "maximum number of suggestions")
	locationsSearchCmd.Flags().Float64Var(&locationsOptions.Threshold, "threshold", 0.5, "minimum suggestion similarity")

	for _, c := range []*cobra.Command{locationsValidateCmd, locationsAddCmd} {
		c.Flags().StringVar(&locationsOptions.Category, "category", "landmark", "zone, landmark or sitio")
		c.Flags().StringVar(&locationsOptions.ExpectedZone, "expected-zone", "", "barangay the location should be in")
		c.Flags().StringVar(&locationsOptions.Description, "description", "", "free text description")
	}

	locationsAddCmd.Flags().StringVar(&locationsOptions.Source, "source", "manual", "provenance of the coordinates")
	locationsAddCmd.Flags().StringVar(&locationsOptions.Address, "address", "", "street address")
	locationsAddCmd.Flags().BoolVar(&locationsOptions.Override, "override", false, "save even if validation fails")
	locationsAddCmd.Flags().StringVar(&locationsOptions.Justification, "justification", "", "why an invalid location is saved")

	locationsVerifyCmd.Flags().StringVar(&locationsOptions.OnlyCategory, "category", "", "only verify this category")
	locationsVerifyCmd.Flags().BoolVar(&locationsOptions.Invalid, "invalid", false, "only print invalid locations")

	locationsDuplicatesCmd.Flags().Float64Var(&locationsOptions.ThresholdKm, "threshold-km", 0.05, "maximum distance between duplicates")

	locationsStoreCmd.Flags().StringVarP(&locationsOptions.Output, "output", "o", "", "output file (default data.locations)")

	rootCmd.AddCommand(locationsCmd)
	locationsCmd.AddCommand(locationsSearchCmd)
	locationsCmd.AddCommand(locationsStatsCmd)
	locationsCmd.AddCommand(locationsValidateCmd)
	locationsCmd.AddCommand(locationsVerifyCmd)
	locationsCmd.AddCommand(locationsAddCmd)
	locationsCmd.AddCommand(locationsDuplicatesCmd)
	locationsCmd.AddCommand(locationsStoreCmd)
}
