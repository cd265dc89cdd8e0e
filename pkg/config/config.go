// Package config loads the render service configuration.
//
// Configuration is a TOML file; every field has a sensible default so the
// service runs with no file at all. Flags on the serve command override
// individual fields after loading.
//
// # Example
//
//	[server]
//	addr = ":8011"
//
//	[render]
//	output_root = "/var/lib/renderserver/output"
//	timeout_seconds = 300
//
//	[store]
//	backend = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Store backend names accepted in the configuration.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// Config is the service configuration tree.
type Config struct {
	Server ServerConfig `toml:"server"`
	Render RenderConfig `toml:"render"`
	Stage  StageConfig  `toml:"stage"`
	Store  StoreConfig  `toml:"store"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`
}

// RenderConfig configures the orchestrator.
type RenderConfig struct {
	// OutputRoot is the directory under which per-job output directories
	// are created.
	OutputRoot string `toml:"output_root"`

	// TimeoutSeconds bounds the wait for renderer completion.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// StageConfig configures stage opening.
type StageConfig struct {
	// DefaultUpAxis applies when a stage file declares no up axis:
	// "Y" or "Z".
	DefaultUpAxis string `toml:"default_up_axis"`
}

// StoreConfig selects and configures the job record store.
type StoreConfig struct {
	// Backend is one of "memory", "file", "redis" or "mongo".
	Backend string `toml:"backend"`

	// Dir is the record directory for the file backend.
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8011"},
		Render: RenderConfig{
			OutputRoot:     "output",
			TimeoutSeconds: 300,
		},
		Stage: StageConfig{DefaultUpAxis: "Y"},
		Store: StoreConfig{
			Backend:   StoreMemory,
			RedisAddr: "localhost:6379",
			MongoURI:  "mongodb://localhost:27017",
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns the
// defaults unchanged; a missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreFile, StoreRedis, StoreMongo:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Stage.DefaultUpAxis {
	case "Y", "Z":
	default:
		return fmt.Errorf("unknown default up axis %q (must be Y or Z)", c.Stage.DefaultUpAxis)
	}
	if c.Render.TimeoutSeconds <= 0 {
		return fmt.Errorf("render timeout must be positive, got %d", c.Render.TimeoutSeconds)
	}
	return nil
}

// Timeout returns the render completion timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}
