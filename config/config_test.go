// Copyright 2025 The Pasahe Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baseyfare/pasahe/fare"
)

// inEmptyDir runs the test from a directory without pasahe.yaml or .env.
func inEmptyDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(GoogleMapsAPIKeyEnv, "")

	return dir
}

func TestLoadDefaults(t *testing.T) {
	inEmptyDir(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Server.Addr)
	assert.Equal(t, 10_000, cfg.Cache.Size)
	assert.Equal(t, fare.DefaultSchedule(), cfg.Fare)
	assert.Equal(t, 5*time.Second, cfg.Validation.Timeout)
	assert.Equal(t, "Basey", cfg.Validation.Municipality)
	assert.InDelta(t, 11.15, cfg.Validation.MinLat, 1e-12)
	assert.Empty(t, cfg.Oracle.APIKey)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	dir := inEmptyDir(t)

	yaml := `
server:
  addr: ":9090"
fare:
  base_fare: 20
  boundary_surcharge: 2.5
validation:
  timeout: 2s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pasahe.yaml"), []byte(yaml), 0o600))

	t.Setenv("PASAHE_SERVER_ADDR", ":7070")
	t.Setenv("PASAHE_CACHE_SIZE", "50")
	t.Setenv(GoogleMapsAPIKeyEnv, "from-env")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr, "environment wins over the file")
	assert.Equal(t, 50, cfg.Cache.Size)
	assert.InDelta(t, 20.0, cfg.Fare.BaseFare, 1e-12)
	assert.InDelta(t, 2.5, cfg.Fare.BoundarySurcharge, 1e-12)
	assert.InDelta(t, 3.0, cfg.Fare.PerKmRate, 1e-12, "unset keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Validation.Timeout)
	assert.Equal(t, "from-env", cfg.Oracle.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := inEmptyDir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PASAHE_ORACLE_LANGUAGE=fil\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PASAHE_ORACLE_LANGUAGE") })

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "fil", cfg.Oracle.Language)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	dir := inEmptyDir(t)

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, "missing.yaml"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	inEmptyDir(t)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	cfg.Server.Addr = ""
	cfg.Cache.Size = -1
	cfg.Fare.BaseFare = -1
	cfg.Validation.MinLat = 12

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.addr is required")
	assert.Contains(t, err.Error(), "cache.size must not be negative")
	assert.Contains(t, err.Error(), "fare:")
	assert.Contains(t, err.Error(), "validation bounds")
}
