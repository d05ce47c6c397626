package company_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrdemo/company/pkg/company"
	"github.com/hrdemo/company/pkg/search/sqlindex"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := company.LoadConfig("", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, company.DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "company.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9090
store: pebble
pebblePath: /var/lib/company
index: sqlite
indexDSN: /var/lib/company/search.db
shutdownTimeout: 30s
surrealdb:
  namespace: hr
`), 0o600))

	cfg, err := company.LoadConfig(path, map[string]string{
		"COMPANY_PORT":         "9191",
		"COMPANY_SURREALDB_DB": "staging",
		"COMPANY_READ_ONLY":    "true",
		"PORT":                 "1",
	})
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Port)
	assert.Equal(t, company.StorePebble, cfg.Store)
	assert.Equal(t, "/var/lib/company", cfg.PebblePath)
	assert.Equal(t, sqlindex.DriverSQLite, cfg.Index)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "hr", cfg.SurrealDB.Namespace)
	assert.Equal(t, "staging", cfg.SurrealDB.Database)
	assert.Equal(t, "root", cfg.SurrealDB.Username)
	assert.True(t, cfg.ReadOnly)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := company.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), map[string]string{})
	assert.Error(t, err)

	_, err = company.LoadConfig("", map[string]string{"COMPANY_PORT": "eighty"})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := map[string]func(*company.Config){
		"port":      func(c *company.Config) { c.Port = 70000 },
		"store":     func(c *company.Config) { c.Store = "mongodb" },
		"pebble":    func(c *company.Config) { c.Store, c.PebblePath = company.StorePebble, "" },
		"index":     func(c *company.Config) { c.Index = "elasticsearch" },
		"index dsn": func(c *company.Config) { c.IndexDSN = "" },
		"cron":      func(c *company.Config) { c.CleanupSchedule = "every night" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := company.DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := company.DefaultConfig()
	cfg.CleanupSchedule = ""
	assert.NoError(t, cfg.Validate())
}
