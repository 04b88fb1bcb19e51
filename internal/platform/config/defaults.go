package config

import "time"

// DefaultConfig returns the baseline configuration used when no file or
// environment override is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:         "0.0.0.0",
			Port:       8080,
			StaticDir:  "./web",
			CORSOrigin: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Database: DatabaseConfig{
			DSN: "data/quill.db",
		},
		Auth: AuthConfig{
			AccessSecret:  "dev_access_secret",
			RefreshSecret: "dev_refresh_secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Store: StoreConfig{
				Type: "sqlite",
				Memory: MemoryStoreConfig{
					GCInterval: 10 * time.Minute,
				},
			},
			Sweep: SweepConfig{
				Interval: 24 * time.Hour,
			},
			AdminEmail:          "admin@localhost",
			AdminPassword:       "changeme",
			RegisterLimit:       5,
			RegisterLimitWindow: time.Minute,
		},
	}
}
