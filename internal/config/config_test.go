package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
	return dir
}

func TestLoadFrom_Defaults(t *testing.T) {
	dir := writeConfig(t, "bricklink:\n  proxies: []\n")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://www.bricklink.com", cfg.BrickLink.BaseURL)
	assert.Equal(t, 4, cfg.BrickLink.MaxWorkers)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "taxonomy_consumer", cfg.Redis.ConsumerGroup)
	assert.Equal(t, 50, cfg.Taxonomy.HistoryLimit)
	assert.Equal(t, 24*time.Hour, cfg.Taxonomy.TreeCacheTTL)
	assert.Equal(t, 6*time.Hour, cfg.Taxonomy.RefreshInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t,
		"host=localhost port=5432 user=bricklink_user password=bricklink_pass dbname=bricklink sslmode=disable",
		cfg.Database.DSN())
}

func TestLoadFrom_FileAndEnvOverrides(t *testing.T) {
	dir := writeConfig(t, `
bricklink:
  max_workers: 8
  proxies:
    - http://10.0.0.1:3128
taxonomy:
  history_limit: 5
  tree_cache_ttl: 30m
`)
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.BrickLink.MaxWorkers)
	assert.Equal(t, []string{"http://10.0.0.1:3128"}, cfg.BrickLink.Proxies)
	assert.Equal(t, 5, cfg.Taxonomy.HistoryLimit)
	assert.Equal(t, 30*time.Minute, cfg.Taxonomy.TreeCacheTTL)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFrom_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFrom(t.TempDir())
		assert.ErrorContains(t, err, "config.yaml file not found")
	})

	t.Run("bad worker count", func(t *testing.T) {
		dir := writeConfig(t, "bricklink:\n  max_workers: 0\n")
		_, err := LoadFrom(dir)
		assert.ErrorContains(t, err, "max_workers")
	})
}

func TestLogConfig_Apply(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })

	require.NoError(t, LogConfig{Level: "warn"}.Apply())
	assert.Equal(t, log.WarnLevel, log.GetLevel())

	assert.Error(t, LogConfig{Level: "loud"}.Apply())
}
