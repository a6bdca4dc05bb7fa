// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/baseyfare/pasahe/boundary"
	"github.com/baseyfare/pasahe/spatial"
	"github.com/baseyfare/pasahe/utils/textutils"
)

var zonesOptions struct {
	UrbanCore bool
	Search    string
	MaxKm     float64
	Output    string
}

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "Inspect the barangay boundaries",
}

var zonesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List barangays",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		idx, err := zonesFromConfig()
		if err != nil {
			return err
		}

		zones := idx.AllZones(boundary.Filter{UrbanCoreOnly: zonesOptions.UrbanCore, SearchTerm: zonesOptions.Search})

		if jsonOutput {
			return printJSON(os.Stdout, zones)
		}

		for _, z := range zones {
			urban := ""
			if z.IsUrbanCore {
				urban = "poblacion"
			}

			fmt.Printf("%-8s %-28s %8.3f km² %s\n", z.Code, z.Name, z.AreaKm2, urban)
		}

		fmt.Fprintf(os.Stderr, "%s barangays\n", textutils.FormatInt(int64(len(zones))))

		return nil
	},
}

var zonesLookupCmd = &cobra.Command{
	Use:   "lookup lat,lng",
	Short: "Find the barangay containing a coordinate",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		c, err := spatial.ParseCoordinate(args[0])
		if err != nil {
			return err
		}

		idx, err := zonesFromConfig()
		if err != nil {
			return err
		}

		z := idx.FindZone(c)

		if jsonOutput {
			return printJSON(os.Stdout, z)
		}

		if z == nil {
			return fmt.Errorf("%s is outside every mapped barangay", c)
		}

		fmt.Println(z)

		return nil
	},
}

var zonesNeighborsCmd = &cobra.Command{
	Use:   "neighbors barangay",
	Short: "List barangays whose centroid is near the given one",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		idx, err := zonesFromConfig()
		if err != nil {
			return err
		}

		z := idx.Zone(args[0])
		if z == nil {
			return fmt.Errorf("unknown barangay %q", args[0])
		}

		neighbors := idx.NeighborsOf(z, zonesOptions.MaxKm)

		if jsonOutput {
			return printJSON(os.Stdout, neighbors)
		}

		for _, n := range neighbors {
			fmt.Printf("%6.2f km  %s\n", n.DistanceKm, n.Zone)
		}

		return nil
	},
}

var zonesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the loaded barangays as GeoJSON",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		idx, err := zonesFromConfig()
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout

		if zonesOptions.Output != "" && zonesOptions.Output != "-" {
			f, err := os.Create(zonesOptions.Output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", zonesOptions.Output, err)
			}
			defer f.Close()

			w = f
		}

		data, err := json.MarshalIndent(boundary.ExportGeoJSON(idx.AllZones(boundary.Filter{})), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling zones: %w", err)
		}

		_, err = fmt.Fprintln(w, string(data))

		return err
	},
}

var zonesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report dataset problems: discarded records, duplicates and overlaps",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		records, defects, err := boundary.ReadGeoJSONFile(cfg.Data.Zones)
		if err != nil {
			return err
		}

		idx := boundary.NewIndex(boundary.Options{CacheSize: cfg.Cache.Size})
		defects = append(defects, idx.Load(records)...)
		defects = append(defects, idx.Check()...)

		if jsonOutput {
			return printJSON(os.Stdout, defects)
		}

		for _, d := range defects {
			fmt.Println(d)
		}

		fmt.Printf("%s zones loaded, %s problems\n",
			textutils.FormatInt(int64(idx.Len())),
			textutils.FormatInt(int64(len(defects))))

		if len(defects) > 0 {
			return fmt.Errorf("%d dataset problems", len(defects))
		}

		return nil
	},
}

var zonesHotspotsCmd = &cobra.Command{
	Use:   "hotspots incidents.json",
	Short: "Count incidents per barangay",
	Long: `Reads a JSON array of incidents ({"coordinate": {"lat": .., "lng": ..}, "type": ".."})
and prints the barangays with the most incidents first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading incidents: %w", err)
		}

		var incidents []boundary.Incident
		if err := json.Unmarshal(data, &incidents); err != nil {
			return fmt.Errorf("unmarshaling incidents: %w", err)
		}

		idx, err := zonesFromConfig()
		if err != nil {
			return err
		}

		report := boundary.Hotspots(idx, incidents)

		if jsonOutput {
			return printJSON(os.Stdout, report)
		}

		for _, h := range report.Hotspots {
			fmt.Printf("%5d  %s\n", h.IncidentCount, h.Zone)
		}

		fmt.Printf("%d mapped, %d outside every barangay\n", report.Mapped, report.Unmapped)

		return nil
	},
}

func zonesFromConfig() (*boundary.Index, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return loadZones(cfg)
}

func init() {
	zonesListCmd.Flags().BoolVar(&zonesOptions.UrbanCore, "urban-core", false, "only poblacion barangays")
	zonesListCmd.Flags().StringVarP(&zonesOptions.Search, "search", "q", "", "name or code substring")
	zonesNeighborsCmd.Flags().Float64Var(&zonesOptions.MaxKm, "max-km", 5, "maximum centroid distance")
	zonesExportCmd.Flags().StringVarP(&zonesOptions.Output, "output", "o", "-", "output file")

	rootCmd.AddCommand(zonesCmd)
	zonesCmd.AddCommand(zonesListCmd)
	zonesCmd.AddCommand(zonesLookupCmd)
	zonesCmd.AddCommand(zonesNeighborsCmd)
	zonesCmd.AddCommand(zonesExportCmd)
	zonesCmd.AddCommand(zonesCheckCmd)
	zonesCmd.AddCommand(zonesHotspotsCmd)
}
