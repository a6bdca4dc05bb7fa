// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/baseyfare/pasahe/fare"
	"github.com/baseyfare/pasahe/spatial"
	"github.com/baseyfare/pasahe/utils/textutils"
)

var fareOptions struct {
	From      string
	To        string
	RouteKm   float64
	Profile   string
	Surcharge bool
}

var fareCmd = &cobra.Command{
	Use:   "fare",
	Short: "Price tricycle trips",
}

var fareQuoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote the fare between two coordinates",
	Long: `Quotes the fare between two "lat,lng" coordinates.

$ pasahe fare quote --from 11.2820,125.0650 --to 11.2900,125.0700 --profile student`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		origin, err := spatial.ParseCoordinate(fareOptions.From)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}

		destination, err := spatial.ParseCoordinate(fareOptions.To)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}

		profile, err := fare.ParseProfile(fareOptions.Profile)
		if err != nil {
			return err
		}

		idx, err := loadZones(cfg)
		if err != nil {
			return err
		}

		quoter, err := newQuoter(cfg, idx)
		if err != nil {
			return err
		}

		req := fare.QuoteRequest{
			Origin:                 origin,
			Destination:            destination,
			DiscountRate:           profile.Rate(),
			ApplyBoundarySurcharge: fareOptions.Surcharge,
		}
		if cmd.Flags().Changed("route-km") {
			req.RouteDistanceKm = &fareOptions.RouteKm
		}

		quote, err := quoter.Quote(req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(os.Stdout, quote)
		}

		printQuote(os.Stdout, quote)

		return nil
	},
}

func printQuote(w io.Writer, q fare.Quote) {
	fmt.Fprintf(w, "From:      %s\n", q.OriginZone)
	fmt.Fprintf(w, "To:        %s\n", q.DestinationZone)
	fmt.Fprintf(w, "Distance:  %.2f km (%s)\n", q.DistanceKm, q.DistanceSource)
	fmt.Fprintf(w, "Base fare: %s\n", textutils.FormatPeso(q.BaseFare))

	if q.ExtraFare > 0 {
		fmt.Fprintf(w, "Extra:     %s for %.0f km\n", textutils.FormatPeso(q.ExtraFare), q.ChargeableExtraKm)
	}

	if q.BoundarySurcharge > 0 {
		fmt.Fprintf(w, "Surcharge: %s\n", textutils.FormatPeso(q.BoundarySurcharge))
	}

	if q.DiscountAmount > 0 {
		fmt.Fprintf(w, "Discount:  -%s (%.0f%%)\n", textutils.FormatPeso(q.DiscountAmount), q.DiscountRate*100)
	}

	fmt.Fprintf(w, "Total:     %s\n", textutils.FormatPeso(q.TotalFare))

	for _, r := range q.Recommendations {
		fmt.Fprintf(w, "  • %s\n", r)
	}
}

var fareProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List passenger discount profiles",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		profiles := fare.Profiles()

		if jsonOutput {
			return printJSON(os.Stdout, profiles)
		}

		for _, p := range profiles {
			fmt.Printf("%-16s %3.0f%%\n", p, p.Rate()*100)
		}

		return nil
	},
}

var fareScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the configured fare schedule",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		s := cfg.Fare

		if jsonOutput {
			return printJSON(os.Stdout, s)
		}

		fmt.Printf("Base fare:          %s for the first %.1f km\n", textutils.FormatPeso(s.BaseFare), s.BaseDistanceKm)
		fmt.Printf("Per km:             %s (partial km rounded up)\n", textutils.FormatPeso(s.PerKmRate))
		fmt.Printf("Boundary surcharge: %s\n", textutils.FormatPeso(s.BoundarySurcharge))
		fmt.Printf("Discount rates:     %v\n", s.DiscountRates)

		return nil
	},
}

func init() {
	flags := fareQuoteCmd.Flags()
	flags.StringVar(&fareOptions.From, "from", "", "origin as lat,lng")
	flags.StringVar(&fareOptions.To, "to", "", "destination as lat,lng")
	flags.Float64Var(&fareOptions.RouteKm, "route-km", 0, "road distance in km instead of the straight line")
	flags.StringVar(&fareOptions.Profile, "profile", "none", "passenger profile: none, senior_citizen, pwd, student")
	flags.BoolVar(&fareOptions.Surcharge, "surcharge", false, "apply the boundary surcharge when crossing barangays")

	_ = fareQuoteCmd.MarkFlagRequired("from")
	_ = fareQuoteCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(fareCmd)
	fareCmd.AddCommand(fareQuoteCmd)
	fareCmd.AddCommand(fareProfilesCmd)
	fareCmd.AddCommand(fareScheduleCmd)
}
