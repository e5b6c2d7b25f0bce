// Package config loads wayfinder server settings from a YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-wayfinder/pkg/mutation"
	"github.com/dd0wney/cluso-wayfinder/pkg/validation"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendWAL      = "wal"
	BackendPostgres = "postgres"
)

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Graph      GraphConfig      `yaml:"graph"`
	Changefeed ChangefeedConfig `yaml:"changefeed"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// CORSOrigins lists origins allowed to call the API from a browser. "*"
	// allows any origin.
	CORSOrigins []string `yaml:"cors_origins"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"data_dir"`
	CompressWAL bool   `yaml:"compress_wal"`
	DatabaseURL string `yaml:"database_url"`
	// CheckpointOnShutdown compacts the WAL into a snapshot on graceful exit.
	CheckpointOnShutdown bool `yaml:"checkpoint_on_shutdown"`
}

// GraphConfig controls graph editing.
type GraphConfig struct {
	DeletePolicy string `yaml:"delete_policy"`
	// SeedPlans are floor-plan files or directories imported into an empty graph at startup.
	SeedPlans []string `yaml:"seed_plans"`
}

// ChangefeedConfig configures the change broadcast socket.
type ChangefeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Storage: StorageConfig{
			Backend:              BackendWAL,
			DataDir:              "./data/wayfinder",
			CompressWAL:          true,
			CheckpointOnShutdown: true,
		},
		Graph: GraphConfig{
			DeletePolicy: string(mutation.DeleteReject),
		},
		Changefeed: ChangefeedConfig{
			Address: "tcp://127.0.0.1:7410",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides settings from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("WAYFINDER_HOST"); ok {
		c.Server.Host = v
	}
	if v, ok := lookup("WAYFINDER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WAYFINDER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("WAYFINDER_STORAGE"); ok {
		c.Storage.Backend = v
	}
	if v, ok := lookup("WAYFINDER_DATA_DIR"); ok {
		c.Storage.DataDir = v
	}
	if v, ok := lookup("WAYFINDER_DATABASE_URL"); ok {
		c.Storage.DatabaseURL = v
		if _, set := lookup("WAYFINDER_STORAGE"); !set {
			c.Storage.Backend = BackendPostgres
		}
	}
	if v, ok := lookup("WAYFINDER_DELETE_POLICY"); ok {
		c.Graph.DeletePolicy = v
	}
	if v, ok := lookup("WAYFINDER_SEED_PLANS"); ok {
		c.Graph.SeedPlans = splitList(v)
	}
	if v, ok := lookup("WAYFINDER_CHANGEFEED_ADDR"); ok {
		c.Changefeed.Address = v
		c.Changefeed.Enabled = v != ""
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	return validation.NewConfigValidator("config").
		RangeInt("server.port", c.Server.Port, 1, 65535).
		MinDuration("server.read_timeout", c.Server.ReadTimeout, time.Second).
		MinDuration("server.write_timeout", c.Server.WriteTimeout, time.Second).
		MinDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, time.Second).
		OneOf("storage.backend", c.Storage.Backend, BackendMemory, BackendWAL, BackendPostgres).
		When(c.Storage.Backend == BackendWAL, func(v *validation.ConfigValidator) {
			v.Required("storage.data_dir", c.Storage.DataDir)
		}).
		When(c.Storage.Backend == BackendPostgres, func(v *validation.ConfigValidator) {
			v.Required("storage.database_url", c.Storage.DatabaseURL)
		}).
		Custom("graph.delete_policy", func() error {
			_, err := mutation.ParseDeletePolicy(c.Graph.DeletePolicy)
			return err
		}).
		When(c.Changefeed.Enabled, func(v *validation.ConfigValidator) {
			v.Required("changefeed.address", c.Changefeed.Address)
		}).
		OneOf("logging.level", strings.ToLower(c.Logging.Level), "debug", "info", "warn", "warning", "error").
		Validate()
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DeletePolicy returns the parsed graph delete policy.
func (c *Config) DeletePolicy() mutation.DeletePolicy {
	p, _ := mutation.ParseDeletePolicy(c.Graph.DeletePolicy)
	return p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
