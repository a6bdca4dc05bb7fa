// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baseyfare/pasahe/config"
	"github.com/baseyfare/pasahe/gazetteer"
	"github.com/baseyfare/pasahe/utils/textutils"
)

func newSeedCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seeds the registry with the gazetteer file",
		Long: `Imports every entry of data.locations into the registry. Existing
records with the same name and category are updated. With --reset the
registry file is removed first.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			return seedRegistry(cfg, reset)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "remove the registry before seeding")

	return cmd
}

func init() {
	locationsCmd.AddCommand(newSeedCmd())
}

func seedRegistry(cfg *config.Config, reset bool) error {
	if reset {
		_ = os.Remove(cfg.Data.Registry)
		_ = os.Remove(cfg.Data.Registry + ".wal")
	}

	g, err := loadGazetteer(cfg)
	if err != nil {
		return err
	}

	db, repo, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	imported, err := gazetteer.Import(repo, g)
	if err != nil {
		return fmt.Errorf("seeding registry: %w", err)
	}

	count, err := repo.Count()
	if err != nil {
		return err
	}

	fmt.Printf("Registry seeded with %s locations (%s total).\n",
		textutils.FormatInt(int64(imported)),
		textutils.FormatInt(int64(count)))

	return nil
}
