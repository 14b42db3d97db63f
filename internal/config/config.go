// Package config provides configuration loading and structs for the Lookout server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Search  SearchConfig  `yaml:"search"`
	Content ContentConfig `yaml:"content"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the node database and the search indexes.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	// IndexPath is where the default index lives.
	IndexPath string `yaml:"index_path"`
	// Indexes maps additional named indexes to their paths.
	Indexes map[string]string `yaml:"indexes"`
}

// SearchConfig holds service-wide search limits.
type SearchConfig struct {
	// MaxResults caps the number of ranked hits a search returns; the
	// total count still reflects everything that matched.
	MaxResults int `yaml:"max_results"`
	// MaxDistanceKm caps the radius of any location clause.
	MaxDistanceKm float64 `yaml:"max_distance_km"`
	// MaxFacetsPerGroup bounds each per-group facet aggregation.
	MaxFacetsPerGroup int `yaml:"max_facets_per_group"`
}

// ContentConfig holds the watched content directory settings.
type ContentConfig struct {
	// WatchDir is a directory of JSON node files kept in sync with the
	// index; empty disables watching.
	WatchDir string `yaml:"watch_dir"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.IndexPath = expandPath(cfg.Storage.IndexPath, configDir)
	for name, path := range cfg.Storage.Indexes {
		cfg.Storage.Indexes[name] = expandPath(path, configDir)
	}
	if cfg.Content.WatchDir != "" {
		cfg.Content.WatchDir = expandPath(cfg.Content.WatchDir, configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
