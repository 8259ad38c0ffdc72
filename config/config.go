// Package config resolves database connection parameters.
//
// Lookup order for the config file:
//  1. $BIEB_CONFIG
//  2. ./bieb.yaml
//
// Individual values from the environment always win over the file, so a
// deployment can point at another database without touching the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envConfig = "BIEB_CONFIG"
	envDBPath = "BIEB_DB_PATH"
)

type Config struct {
	Database Database `yaml:"database"`
}

// Database holds connection and pool settings for the backing store.
type Database struct {
	Path            string   `yaml:"path"`
	BusyTimeout     Duration `yaml:"busy_timeout"`
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// DSN renders the sqlite connection string. Foreign keys are switched on
// here rather than per caller: the store depends on the database rejecting
// dangling references.
func (d Database) DSN() string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d",
		d.Path, time.Duration(d.BusyTimeout).Milliseconds())
}

// Load finds and loads the config file, or returns defaults if none exists.
func Load() (*Config, error) {
	path := os.Getenv(envConfig)
	if path == "" {
		path = "bieb.yaml"
		if _, err := os.Stat(path); err != nil {
			cfg := Default()
			cfg.applyEnv()
			return cfg, nil
		}
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

// Default returns the settings used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "./bieb.db"
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = Duration(5 * time.Second)
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 5
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 2
	}
}

func (c *Config) applyEnv() {
	if path := os.Getenv(envDBPath); path != "" {
		c.Database.Path = path
	}
}

// Duration wraps time.Duration for YAML unmarshaling ("5s", "1m", ...).
type Duration time.Duration

// Duration returns the wrapped standard-library value.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}
