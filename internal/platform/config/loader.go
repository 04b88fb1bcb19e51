package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	envConfigPath = "QUILL_CONFIG"
	defaultPath   = ".config.yaml"
)

// Loader reads configuration from an optional yaml file, then applies
// environment overrides on top of the defaults.
type Loader struct {
	useDotEnv bool
	path      string
}

// NewLoader creates a loader with dotenv support enabled.
func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the configuration file location (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

// Load produces the effective configuration.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using system environment")
		}
	}

	cfg := DefaultConfig()

	path := l.path
	if path == "" {
		path = os.Getenv(envConfigPath)
	}
	if path == "" {
		path = defaultPath
	}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if l.path != "" {
		// An explicitly requested file must exist.
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QUILL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("QUILL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("QUILL_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("QUILL_ACCESS_SECRET"); v != "" {
		cfg.Auth.AccessSecret = v
	}
	if v := os.Getenv("QUILL_REFRESH_SECRET"); v != "" {
		cfg.Auth.RefreshSecret = v
	}
	if v := os.Getenv("QUILL_STORE_TYPE"); v != "" {
		cfg.Auth.Store.Type = v
	}
	if v := os.Getenv("QUILL_REDIS_ADDR"); v != "" {
		cfg.Auth.Store.Redis.Addr = v
	}
	if v := os.Getenv("QUILL_ADMIN_PASSWORD"); v != "" {
		cfg.Auth.AdminPassword = v
	}
}

// Validate rejects configurations that cannot produce a working server.
func Validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Auth.AccessSecret == "" || cfg.Auth.RefreshSecret == "" {
		return fmt.Errorf("auth secrets must not be empty")
	}
	if cfg.Auth.AccessSecret == cfg.Auth.RefreshSecret {
		return fmt.Errorf("access and refresh secrets must differ")
	}
	if cfg.Auth.AccessTTL <= 0 || cfg.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if cfg.Auth.RefreshTTL <= cfg.Auth.AccessTTL {
		return fmt.Errorf("refresh TTL must exceed access TTL")
	}
	return nil
}
