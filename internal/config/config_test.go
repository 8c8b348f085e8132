package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingPathReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
crawl:
  limit: 500
  concurrency: 16
serve:
  listen_addr: ":9090"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 500, cfg.Crawl.Limit)
	require.Equal(t, 16, cfg.Crawl.Concurrency)
	require.Equal(t, ":9090", cfg.Serve.ListenAddr)
	// Untouched fields keep their defaults.
	require.Equal(t, "data/", cfg.Crawl.Output)
	require.Equal(t, 1_000_000, cfg.Index.FlushThreshold)
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
