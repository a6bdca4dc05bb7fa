// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the pasahe configuration from defaults, an optional
// pasahe.yaml, a .env file and PASAHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/baseyfare/pasahe/boundary"
	"github.com/baseyfare/pasahe/fare"
)

// EnvPrefix prefixes every environment variable: PASAHE_SERVER_ADDR sets
// server.addr.
const EnvPrefix = "PASAHE"

// GoogleMapsAPIKeyEnv is read when oracle.api_key is not configured.
const GoogleMapsAPIKeyEnv = "GOOGLE_MAPS_API_KEY"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Fare       fare.Schedule    `mapstructure:"fare"`
	Validation ValidationConfig `mapstructure:"validation"`
	Oracle     OracleConfig     `mapstructure:"oracle"`
	Batch      BatchConfig      `mapstructure:"batch"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// DataConfig locates the datasets.
type DataConfig struct {
	// Zones is the barangay GeoJSON FeatureCollection.
	Zones string `mapstructure:"zones"`
	// Locations is the gazetteer JSON.
	Locations string `mapstructure:"locations"`
	// Registry is the DuckDB file of operator-registered locations.
	Registry string `mapstructure:"registry"`
}

type CacheConfig struct {
	Size int `mapstructure:"size"`
}

// ValidationConfig parametrizes the location validation pipeline.
type ValidationConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	Municipality string        `mapstructure:"municipality"`
	Province     string        `mapstructure:"province"`
	Country      string        `mapstructure:"country"`
	MinLat       float64       `mapstructure:"min_lat"`
	MaxLat       float64       `mapstructure:"max_lat"`
	MinLng       float64       `mapstructure:"min_lng"`
	MaxLng       float64       `mapstructure:"max_lng"`
}

// OracleConfig configures the Google reverse geocoder.
type OracleConfig struct {
	APIKey   string `mapstructure:"api_key"`
	Endpoint string `mapstructure:"endpoint"`
	Language string `mapstructure:"language"`
	// UseADC retrieves the key from the API Keys service when APIKey is
	// empty.
	UseADC         bool   `mapstructure:"use_adc"`
	KeyDisplayName string `mapstructure:"key_display_name"`
	Project        string `mapstructure:"project"`
	Trace          bool   `mapstructure:"trace"`
}

type BatchConfig struct {
	MaxProcs      int     `mapstructure:"max_procs"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	schedule := fare.DefaultSchedule()

	v.SetDefault("server.addr", "localhost:8080")
	v.SetDefault("data.zones", "data/basey-barangays.geojson")
	v.SetDefault("data.locations", "data/basey-locations.json")
	v.SetDefault("data.registry", "pasahe.duckdb")
	v.SetDefault("cache.size", boundary.DefaultCacheSize)
	v.SetDefault("fare.base_fare", schedule.BaseFare)
	v.SetDefault("fare.base_distance_km", schedule.BaseDistanceKm)
	v.SetDefault("fare.per_km_rate", schedule.PerKmRate)
	v.SetDefault("fare.boundary_surcharge", schedule.BoundarySurcharge)
	v.SetDefault("fare.discount_rates", schedule.DiscountRates)
	v.SetDefault("validation.timeout", 5*time.Second)
	v.SetDefault("validation.municipality", "Basey")
	v.SetDefault("validation.province", "Samar")
	v.SetDefault("validation.country", "Philippines")
	v.SetDefault("validation.min_lat", 11.15)
	v.SetDefault("validation.max_lat", 11.50)
	v.SetDefault("validation.min_lng", 125.00)
	v.SetDefault("validation.max_lng", 125.20)
	v.SetDefault("oracle.api_key", "")
	v.SetDefault("oracle.endpoint", "")
	v.SetDefault("oracle.language", "en")
	v.SetDefault("oracle.use_adc", true)
	v.SetDefault("oracle.key_display_name", "Pasahe Geocoding Key")
	v.SetDefault("oracle.project", "")
	v.SetDefault("oracle.trace", false)
	v.SetDefault("batch.max_procs", 4)
	v.SetDefault("batch.rate_per_second", 10.0)
}

// Load reads the configuration into v and decodes it. A config file set
// on v beforehand (the --config flag) must exist; otherwise pasahe.yaml is
// looked up in the working directory and ./configs, and is optional.
func Load(v *viper.Viper) (*Config, error) {
	// variables already in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	SetDefaults(v)

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
		}
	} else {
		v.SetConfigName("pasahe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Oracle.APIKey == "" {
		cfg.Oracle.APIKey = os.Getenv(GoogleMapsAPIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}

	if c.Data.Zones == "" {
		errs = append(errs, "data.zones is required")
	}

	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Sprintf("cache.size must not be negative, got %d", c.Cache.Size))
	}

	if err := c.Fare.Validate(); err != nil {
		errs = append(errs, "fare: "+err.Error())
	}

	if c.Validation.Timeout <= 0 {
		errs = append(errs, "validation.timeout must be positive")
	}

	if c.Validation.MinLat >= c.Validation.MaxLat || c.Validation.MinLng >= c.Validation.MaxLng {
		errs = append(errs, "validation bounds must have min below max")
	}

	if c.Validation.Municipality == "" {
		errs = append(errs, "validation.municipality is required")
	}

	if c.Batch.MaxProcs < 0 {
		errs = append(errs, "batch.max_procs must not be negative")
	}

	if c.Batch.RatePerSecond < 0 {
		errs = append(errs, "batch.rate_per_second must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
