package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/lookout/data/db/nodes.db"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/lookout/data/indices/internal"
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = 5000
	}
	if cfg.Search.MaxDistanceKm == 0 {
		cfg.Search.MaxDistanceKm = 10000
	}
	if cfg.Search.MaxFacetsPerGroup == 0 {
		cfg.Search.MaxFacetsPerGroup = 100
	}
}
