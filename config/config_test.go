package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozarr/gozarr/config"
	"github.com/gozarr/gozarr/zarr"
)

func TestDefault(t *testing.T) {
	c := config.Default()
	require.Equal(t, "C", c.DefaultOrder)
	require.Equal(t, "thread", c.Synchronizer)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gozarr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
default_compressor:
  id: zstd
  level: 5
default_order: F
chunk_target_bytes: 2097152
synchronizer: file
file_sync_dir: /tmp/gozarr-locks
`), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "F", c.DefaultOrder)
	require.Equal(t, 2097152, c.ChunkTargetBytes)
	require.Equal(t, "zstd", c.DefaultCompressor["id"])
}

func TestApplyDefaults(t *testing.T) {
	c := config.Default()
	c.DefaultCompressor = map[string]any{"id": "zstd"}

	opts := zarr.CreateOptions{}
	c.ApplyDefaults(&opts)
	require.Equal(t, "zstd", opts.Compressor["id"])
	require.Equal(t, zarr.OrderC, opts.Order)
}

func TestApplyDefaults_DoesNotOverrideExplicitValues(t *testing.T) {
	c := config.Default()
	c.DefaultCompressor = map[string]any{"id": "zstd"}

	opts := zarr.CreateOptions{Compressor: map[string]any{"id": "zlib"}, Order: zarr.OrderF}
	c.ApplyDefaults(&opts)
	require.Equal(t, "zlib", opts.Compressor["id"])
	require.Equal(t, zarr.OrderF, opts.Order)
}

func TestBuildSynchronizer(t *testing.T) {
	c := config.Default()
	sync, err := c.BuildSynchronizer()
	require.NoError(t, err)
	require.NotNil(t, sync)

	c.Synchronizer = "bogus"
	_, err = c.BuildSynchronizer()
	require.Error(t, err)
}
