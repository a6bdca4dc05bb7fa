// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/baseyfare/pasahe/config"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var (
	cfgFile     string
	configViper = viper.New()
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "pasahe",
	Short: "tricycle fares and barangay boundaries for Basey, Samar",
	Long: `
pasahe prices trips according to the municipal fare ordinance, resolves
coordinates to barangays and checks the gazetteer of named places against
the barangay boundaries and a reverse geocoding service.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if cfgFile != "" {
			configViper.SetConfigFile(cfgFile)
		}

		return nil
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the configuration once flags have been parsed.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configViper)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./pasahe.yaml)")
	flags.String("zones", "", "barangay boundaries GeoJSON")
	flags.String("locations", "", "gazetteer JSON")
	flags.String("registry", "", "DuckDB file of registered locations")
	flags.BoolVar(&jsonOutput, "json", false, "print results as JSON")

	for key, flag := range map[string]string{
		"data.zones":     "zones",
		"data.locations": "locations",
		"data.registry":  "registry",
	} {
		if err := configViper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}
