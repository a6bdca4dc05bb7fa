// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/baseyfare/pasahe/curation"
	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/baseyfare/pasahe/utils/textutils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fare and location HTTP API",
	Long: `Serves fare quotes, barangay lookups and location validation over HTTP.

The registry is seeded from the gazetteer file on first start; locations
registered through the API are served on later starts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		idx, err := loadZones(cfg)
		if err != nil {
			return err
		}

		quoter, err := newQuoter(cfg, idx)
		if err != nil {
			return err
		}

		db, repo, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		seeded, count, err := gazetteer.SeedIfEmpty(repo, cfg.Data.Locations)
		if err != nil {
			return fmt.Errorf("seeding registry: %w", err)
		}

		if seeded {
			log.Printf("✅ Seeded registry with %s locations from %s", textutils.FormatInt(int64(count)), cfg.Data.Locations)
		}

		var meta gazetteer.Metadata
		if g, err := loadGazetteer(cfg); err == nil {
			meta = g.Metadata()
		} else {
			log.Printf("⚠️  %v", err)
		}

		places, err := gazetteer.Export(repo, meta)
		if err != nil {
			return err
		}

		pipeline := newPipeline(cfg, idx, newOracle(cmd.Context(), cfg))
		server := curation.NewServer(idx, quoter, places, pipeline, repo)

		fmt.Printf("🛺 pasahe %s listening on http://%s\n", Version, cfg.Server.Addr)

		return server.Run(cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
