package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/eigerco/lexkv/pkg/db"
	"github.com/eigerco/lexkv/pkg/db/backends"
	"github.com/eigerco/lexkv/pkg/log"
)

var ErrMissingPath = errors.New("config: path is required for persistent engines")

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // console or json
}

// Config holds everything needed to open a store.
type Config struct {
	Engine  string     `json:"engine"`
	Path    string     `json:"path"`
	Options db.Options `json:"options"`
	Log     LogConfig  `json:"log"`
}

// DefaultConfig returns a pebble store under ./data that is created on first
// use.
func DefaultConfig() *Config {
	return &Config{
		Engine: string(backends.Pebble),
		Path:   "./data",
		Options: db.Options{
			CreateIfMissing: db.Bool(true),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a JSON config file from path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path as formatted JSON.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the engine name, the path and the log settings.
func (c *Config) Validate() error {
	kind, err := backends.ParseKind(c.Engine)
	if err != nil {
		return err
	}
	if kind.Persistent() && c.Path == "" {
		return ErrMissingPath
	}
	if _, err := log.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if _, err := log.ParseLoggerType(c.Log.Format); err != nil {
		return fmt.Errorf("log format: %w", err)
	}
	return nil
}

// LogOptions converts the log settings for log.Init.
func (c *Config) LogOptions() (log.Options, error) {
	level, err := log.ParseLogLevel(c.Log.Level)
	if err != nil {
		return log.Options{}, err
	}
	typ, err := log.ParseLoggerType(c.Log.Format)
	if err != nil {
		return log.Options{}, err
	}
	return log.Options{LogLevel: level, Type: typ}, nil
}

// Open validates the config and opens the configured store.
func (c *Config) Open() (*db.DB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return backends.OpenDB(backends.Kind(c.Engine), c.Path, c.Options)
}
