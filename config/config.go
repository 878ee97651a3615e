// Package config loads library-wide defaults for gozarr from a YAML
// document, the way the rest of the retrieved example pack configures
// its services, and applies them to a zarr.CreateOptions value wherever
// the caller left a field at its zero value.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gozarr/gozarr/zarr"
)

// Config holds the subset of array-creation defaults worth centralizing:
// the compressor and filter chain a deployment standardizes on, the
// default element order, a target chunk size, and which Synchronizer
// implementation new arrays get when the caller does not supply one
// explicitly. ChunkTargetBytes is loaded and kept here only; nothing in
// this module reads it to choose a chunk shape.
type Config struct {
	DefaultCompressor map[string]any   `yaml:"default_compressor"`
	DefaultFilters    []map[string]any `yaml:"default_filters"`
	DefaultOrder      string           `yaml:"default_order"`
	ChunkTargetBytes  int              `yaml:"chunk_target_bytes"`
	Synchronizer      string           `yaml:"synchronizer"` // "thread", "file", or "none"
	FileSyncDir       string           `yaml:"file_sync_dir"`
}

// Default returns the library's built-in defaults: no compression, C
// order, a 1 MiB chunk-size target, and in-process thread locking.
func Default() *Config {
	return &Config{
		DefaultOrder:     "C",
		ChunkTargetBytes: 1 << 20,
		Synchronizer:     "thread",
	}
}

// Load reads a YAML config document from path, starting from Default()
// so an omitted field keeps its built-in value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills opts.Compressor, opts.Filters and opts.Order from c
// when they are zero-valued, leaving fields the caller already set
// untouched. Other fields of opts are not changed.
func (c *Config) ApplyDefaults(opts *zarr.CreateOptions) {
	if opts.Compressor == nil {
		opts.Compressor = c.DefaultCompressor
	}
	if opts.Filters == nil {
		opts.Filters = c.DefaultFilters
	}
	if opts.Order == 0 {
		switch c.DefaultOrder {
		case "F":
			opts.Order = zarr.OrderF
		default:
			opts.Order = zarr.OrderC
		}
	}
}

// BuildSynchronizer constructs the Synchronizer named by c.Synchronizer,
// creating a FileSynchronizer rooted at c.FileSyncDir when configured for
// cross-process locking.
func (c *Config) BuildSynchronizer() (zarr.Synchronizer, error) {
	switch c.Synchronizer {
	case "", "thread":
		return zarr.NewThreadSynchronizer(), nil
	case "file":
		return zarr.NewFileSynchronizer(c.FileSyncDir)
	case "none":
		return nil, nil
	default:
		return nil, &UnknownSynchronizerError{Name: c.Synchronizer}
	}
}

// UnknownSynchronizerError is returned by Config.BuildSynchronizer for an
// unrecognized synchronizer name.
type UnknownSynchronizerError struct {
	Name string
}

func (e *UnknownSynchronizerError) Error() string {
	return "config: unknown synchronizer " + e.Name
}
