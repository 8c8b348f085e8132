// Package config loads quillcrawl and quillserve's YAML configuration
// file, following the same defaults-then-file merge pattern as the
// teacher's project config loader.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Crawl holds the crawler's tunable defaults.
type Crawl struct {
	Limit       int    `yaml:"limit"`
	Concurrency int    `yaml:"concurrency"`
	Output      string `yaml:"output"`
	NumSegments int    `yaml:"num_segments"`
}

// Index holds index-core tuning that isn't part of the on-disk format.
type Index struct {
	FlushThreshold   int `yaml:"flush_threshold"`
	SegmentCacheSize int `yaml:"segment_cache_size"`
	FlushConcurrency int `yaml:"flush_concurrency"`
}

// Serve holds the query front-end's settings.
type Serve struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the top-level shape of quill's YAML config file.
type Config struct {
	Crawl Crawl `yaml:"crawl"`
	Index Index `yaml:"index"`
	Serve Serve `yaml:"serve"`
}

// Default returns quill's built-in defaults, used when no config file is
// present and as the base that a config file's values are merged onto.
func Default() *Config {
	return &Config{
		Crawl: Crawl{
			Limit:       10,
			Concurrency: 64,
			Output:      "data/",
			NumSegments: 0, // 0 means "limit * 10", resolved by the caller
		},
		Index: Index{
			FlushThreshold:   1_000_000,
			SegmentCacheSize: 4096,
			FlushConcurrency: 0, // 0 means runtime.NumCPU()
		},
		Serve: Serve{
			ListenAddr: ":8080",
		},
	}
}

// Load reads path (if it exists) and merges its non-zero values onto
// Default(). A missing path is not an error: Load returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.mergeWith(&parsed)
	return cfg, nil
}

// mergeWith overlays the non-zero fields of other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Crawl.Limit != 0 {
		c.Crawl.Limit = other.Crawl.Limit
	}
	if other.Crawl.Concurrency != 0 {
		c.Crawl.Concurrency = other.Crawl.Concurrency
	}
	if other.Crawl.Output != "" {
		c.Crawl.Output = other.Crawl.Output
	}
	if other.Crawl.NumSegments != 0 {
		c.Crawl.NumSegments = other.Crawl.NumSegments
	}
	if other.Index.FlushThreshold != 0 {
		c.Index.FlushThreshold = other.Index.FlushThreshold
	}
	if other.Index.SegmentCacheSize != 0 {
		c.Index.SegmentCacheSize = other.Index.SegmentCacheSize
	}
	if other.Index.FlushConcurrency != 0 {
		c.Index.FlushConcurrency = other.Index.FlushConcurrency
	}
	if other.Serve.ListenAddr != "" {
		c.Serve.ListenAddr = other.Serve.ListenAddr
	}
}
