package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `{
  "database": {"host": "localhost", "dbname": "mediasearch"},
  "catalog": {"base_url": "https://catalog.example.com/search"},
  "ai": {"embedder": {"provider": "voyage", "data": {"api_key": "k"}}}
}`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, "NASA", cfg.SearchTerm)
	require.Equal(t, []string{"mp4", "mp3", "jpg", "pdf", "ascii", "mov", "gif"}, cfg.MediaTypes)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 50, cfg.Catalog.PageLimit)
	require.Equal(t, 2.0, cfg.Catalog.RequestsPerSecond)
	require.Equal(t, 10, cfg.Chunking.DurationSeconds)
	require.Equal(t, 5, cfg.Chunking.FramesPerChunk)
	require.Equal(t, 2048, cfg.Chunking.MaxImageDim)
	require.Equal(t, 60, cfg.AI.TimeoutSeconds)
	require.Equal(t, 1, cfg.AI.PoolSize)
}

func TestLoad_RequiresDatabase(t *testing.T) {
	_, err := Load(writeConfig(t, `{
  "catalog": {"base_url": "https://catalog.example.com/search"},
  "ai": {"embedder": {"provider": "voyage"}}
}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "database")
}

func TestLoad_RequiresEmbedderProvider(t *testing.T) {
	_, err := Load(writeConfig(t, `{
  "database": {"dsn": "postgres://localhost/mediasearch"},
  "catalog": {"base_url": "https://catalog.example.com/search"}
}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "ai.embedder.provider")
}

func TestLoad_RequiresCatalogBaseURL(t *testing.T) {
	_, err := Load(writeConfig(t, `{
  "database": {"dsn": "postgres://localhost/mediasearch"},
  "ai": {"embedder": {"provider": "voyage"}}
}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "catalog.base_url")
}

func TestLoad_RequiresScheduleSpecsWhenEnabled(t *testing.T) {
	_, err := Load(writeConfig(t, `{
  "database": {"dsn": "postgres://localhost/mediasearch"},
  "catalog": {"base_url": "https://catalog.example.com/search"},
  "ai": {"embedder": {"provider": "voyage"}},
  "schedule": {"enabled": true}
}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "schedule")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
