package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/prices.csv", cfg.Store.Path)
	assert.Equal(t, int32(2), cfg.Store.Precision)
	assert.Equal(t, "blockworks", cfg.DataSource.Kind)
	assert.Equal(t, "sol", cfg.DataSource.Symbol)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.PollCron)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
store:
  path: /tmp/sol.csv
  timezone: Europe/Paris
data_source:
  kind: quote
  url: http://localhost/quote
schedule:
  poll_cron: "@every 1m"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("STORE_PATH", "/var/lib/prices.csv")
	t.Setenv("REPORT_PRECISION", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/var/lib/prices.csv", cfg.Store.Path)
	assert.Equal(t, int32(4), cfg.Store.Precision)
	assert.Equal(t, "Europe/Paris", cfg.Location().String())
	assert.Equal(t, "quote", cfg.DataSource.Kind)
}

func TestValidate_Errors(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad timezone":  func(c *Config) { c.Store.Timezone = "Mars/Olympus" },
		"bad kind":      func(c *Config) { c.DataSource.Kind = "ftp" },
		"quote no url":  func(c *Config) { c.DataSource.Kind = "quote" },
		"bad cron":      func(c *Config) { c.Schedule.PollCron = "every now and then" },
		"half telegram": func(c *Config) { c.Telegram.BotToken = "x" },
		"bad precision": func(c *Config) { c.Store.Precision = 12 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}
