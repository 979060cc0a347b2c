package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "https://www.spectrumemp.com/api", cfg.Vendor.BaseURL)
	require.Equal(t, 10*time.Second, cfg.Vendor.AttemptTimeout)
	require.Equal(t, 5*time.Second, cfg.Vendor.FinalTimeout)
	require.Equal(t, 2, cfg.Vendor.MaxRetries)
	require.Equal(t, 100*time.Millisecond, cfg.Vendor.RetryDelay)
	require.Equal(t, 15*time.Minute, cfg.Cache.RequirementsTTL)
	require.Equal(t, 12*time.Hour, cfg.Cache.NonceTTL)
	require.Equal(t, "@hourly", cfg.Cache.PurgeSchedule)
	require.Equal(t, "formgate", cfg.Auth.JWT.Issuer)
	require.Equal(t, 2*time.Hour, cfg.Auth.JWT.TTL)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
server:
  port: 9100
  log_level: debug
vendor:
  sample_mode: true
  sample_outcome: duplicate
cache:
  requirements_ttl: 5m
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.True(t, cfg.Vendor.SampleMode)
	require.Equal(t, "duplicate", cfg.Vendor.SampleOutcome)
	require.Equal(t, 5*time.Minute, cfg.Cache.RequirementsTTL)
	// Untouched sections keep their defaults.
	require.Equal(t, 2, cfg.Vendor.MaxRetries)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("FORMGATE_SERVER_PORT", "9200")
	t.Setenv("FORMGATE_AUTH_JWT_SECRET", "env-secret")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9200, cfg.Server.Port)
	require.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
}

func TestDatabaseConfigRouting(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Driver: "postgres",
		Postgres: DBAuthConfig{
			Host:     "db.internal",
			Port:     5432,
			Database: "formgate",
			Username: "svc",
			Password: "pw",
		},
	}}

	dbCfg := cfg.DatabaseConfig()
	require.Equal(t, "postgres", dbCfg.Driver)
	require.Equal(t, "db.internal", dbCfg.Host)
	require.Equal(t, 5432, dbCfg.Port)
	require.Equal(t, "formgate", dbCfg.Name)

	sqlite := &Config{Database: DatabaseConfig{Driver: "sqlite", Path: "./x.sqlite"}}
	require.Equal(t, "./x.sqlite", sqlite.DatabaseConfig().Path)
	require.Empty(t, sqlite.DatabaseConfig().Host)
}
