// Package config loads the settings shared by the cellgraph binaries.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/jacentio/cellgraph/internal/shard"
)

// EnvPrefix prefixes every environment override, e.g. CELLGRAPH_BACKEND.
const EnvPrefix = "CELLGRAPH"

// Backends
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// App
	Env      string `toml:"env" envconfig:"ENV"`
	LogLevel string `toml:"log_level" envconfig:"LOG_LEVEL"`
	HTTPAddr string `toml:"http_addr" envconfig:"HTTP_ADDR"`

	// Workspace is the workspace bound at startup. Empty picks the most
	// recent one.
	Workspace string `toml:"workspace" envconfig:"WORKSPACE"`

	// Storage
	Backend        string `toml:"backend" envconfig:"BACKEND"`
	SQLitePath     string `toml:"sqlite_path" envconfig:"SQLITE_PATH"`
	DynamoTable    string `toml:"dynamo_table" envconfig:"DYNAMO_TABLE"`
	DynamoEndpoint string `toml:"dynamo_endpoint" envconfig:"DYNAMO_ENDPOINT"`
	AWSRegion      string `toml:"aws_region" envconfig:"AWS_REGION"`
	NumShards      int    `toml:"num_shards" envconfig:"NUM_SHARDS"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Env:         "production",
		LogLevel:    "info",
		HTTPAddr:    ":8080",
		Backend:     BackendSQLite,
		SQLitePath:  "cellgraph.db",
		DynamoTable: "cellgraph_documents",
		NumShards:   1,
	}
}

// Load builds the configuration from defaults, the TOML file at path (if
// path is non-empty), a .env file in the working directory (if present) and
// environment variables, in that order. Each variable is read as
// CELLGRAPH_<NAME>, falling back to the bare <NAME> (e.g. AWS_REGION).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("processing env var overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the %s backend", BackendSQLite)
		}
	case BackendDynamoDB:
		if c.DynamoTable == "" {
			return fmt.Errorf("dynamo_table is required for the %s backend", BackendDynamoDB)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	if c.NumShards < 1 || c.NumShards > shard.MaxShards {
		return fmt.Errorf("num_shards must be between 1 and %d, got %d", shard.MaxShards, c.NumShards)
	}

	if c.HTTPAddr == "" {
		return errors.New("http_addr is required")
	}

	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}

	return nil
}

// Encode writes the configuration as TOML.
func (c *Config) Encode(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
