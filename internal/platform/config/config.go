package config

import (
	"time"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
}

type ServerConfig struct {
	IP         string   `yaml:"ip"`
	Port       int      `yaml:"port"`
	StaticDir  string   `yaml:"static_dir"`
	CORSOrigin []string `yaml:"cors_origins"`
	Production bool     `yaml:"production"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type AuthConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	Store         StoreConfig   `yaml:"store"`
	Sweep         SweepConfig   `yaml:"sweep"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`

	RegisterLimit       int           `yaml:"register_limit"`
	RegisterLimitWindow time.Duration `yaml:"register_limit_window"`
}

type StoreConfig struct {
	Type   string           `yaml:"type"`
	Redis  RedisStoreConfig `yaml:"redis,omitempty"`
	Memory MemoryStoreConfig `yaml:"memory,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type MemoryStoreConfig struct {
	GCInterval time.Duration `yaml:"gc_interval"`
}

type SweepConfig struct {
	Interval time.Duration `yaml:"interval"`
}
