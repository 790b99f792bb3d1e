// Package config provides configuration management for the bspgraph engine.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Driver  DriverConfig  `mapstructure:"driver"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
}

// DriverConfig holds the BSP driver's options as loaded from a config file
// or flags, one field per driver-level knob.
type DriverConfig struct {
	// MaxIterations bounds the number of supersteps. Default 20.
	MaxIterations int `mapstructure:"max_iterations"`
	// Concurrency is the worker pool size. 0 means "available parallelism".
	Concurrency int `mapstructure:"concurrency"`
	// IsAsynchronous selects async (single paged queue, cooperative
	// compaction) messaging instead of sync (double-buffered) messaging.
	IsAsynchronous bool `mapstructure:"is_asynchronous"`
	// Partitioning is one of "range", "degree", "number_aligned" or "auto".
	// Auto picks degree-balanced partitioning when a degree function is
	// available, range otherwise.
	Partitioning string `mapstructure:"partitioning"`
	// UseForkJoin enables recursive subdivision inside a partition.
	UseForkJoin bool `mapstructure:"use_fork_join"`
	// TrackSender enables sender tracking on the reducing messenger.
	TrackSender bool `mapstructure:"track_sender"`
	// Reducer selects a reducing messenger ("sum", "min", "max", "count").
	// Empty means queued (non-reducing) messaging.
	Reducer string `mapstructure:"reducer"`
	// RelationshipWeightProperty names the edge weight surfaced through
	// for_each_neighbor, if any.
	RelationshipWeightProperty string `mapstructure:"relationship_weight_property"`
	// MaxMessagesPerVertex bounds a single vertex's queue. 0 means
	// unbounded.
	MaxMessagesPerVertex int `mapstructure:"max_messages_per_vertex"`
}

// DatabaseConfig holds database connection configuration, used only by the
// optional post-run result repository.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // postgres, mysql or sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds object storage configuration, used only by the
// optional paged-array export.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/bspgraph")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an in-memory byte slice (useful
// for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("driver.max_iterations", 20)
	v.SetDefault("driver.concurrency", 0)
	v.SetDefault("driver.is_asynchronous", false)
	v.SetDefault("driver.partitioning", "auto")
	v.SetDefault("driver.use_fork_join", true)
	v.SetDefault("driver.track_sender", false)
	v.SetDefault("driver.reducer", "")
	v.SetDefault("driver.relationship_weight_property", "")
	v.SetDefault("driver.max_messages_per_vertex", 0)

	v.SetDefault("database.type", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

var validPartitionings = map[string]bool{
	"range": true, "degree": true, "number_aligned": true, "auto": true,
}

var validReducers = map[string]bool{
	"": true, "sum": true, "min": true, "max": true, "count": true,
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Driver.MaxIterations <= 0 {
		return fmt.Errorf("driver.max_iterations must be positive")
	}
	if c.Driver.Concurrency < 0 {
		return fmt.Errorf("driver.concurrency must not be negative")
	}
	partitioning := strings.ToLower(c.Driver.Partitioning)
	if !validPartitionings[partitioning] {
		return fmt.Errorf("unsupported driver.partitioning: %s", c.Driver.Partitioning)
	}
	reducer := strings.ToLower(c.Driver.Reducer)
	if !validReducers[reducer] {
		return fmt.Errorf("unsupported driver.reducer: %s", c.Driver.Reducer)
	}
	if c.Driver.MaxMessagesPerVertex < 0 {
		return fmt.Errorf("driver.max_messages_per_vertex must not be negative")
	}

	// Database/storage are only exercised by the optional post-run
	// repository and export components; an empty type means "disabled".
	if c.Database.Type != "" {
		switch c.Database.Type {
		case "postgres", "mysql", "sqlite":
		default:
			return fmt.Errorf("unsupported database type: %s", c.Database.Type)
		}
	}
	if c.Storage.Type != "" {
		switch c.Storage.Type {
		case "local", "cos":
		default:
			return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
		}
	}

	return nil
}

// EnsureDataDir creates the local storage directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	if c.Storage.LocalPath == "" {
		return nil
	}
	return os.MkdirAll(c.Storage.LocalPath, 0755)
}

// GetRunDir returns the run-specific export directory path under the
// configured local storage path.
func (c *Config) GetRunDir(runID string) string {
	return filepath.Join(c.Storage.LocalPath, runID)
}
