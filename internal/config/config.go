// Package config loads the YAML configuration of the ismrmrd tool and maps
// it onto file and dataset options.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-ismrmrd/internal/phantom"
	"github.com/robert-malhotra/go-ismrmrd/ismrmrd"
)

// Config represents the tool configuration loaded from YAML
type Config struct {
	// Storage controls how records are written
	Storage struct {
		// Compression is the DEFLATE level for payloads, 0 disables it
		Compression int `yaml:"compression"`

		// Shuffle enables the byte shuffle filter before compression
		Shuffle bool `yaml:"shuffle"`

		// Fletcher32 appends a checksum to every payload
		Fletcher32 bool `yaml:"fletcher32"`

		// EncodingCheck checks acquisitions against the XML header
		EncodingCheck bool `yaml:"encodingCheck"`

		// LockTimeout bounds the wait for the file lock
		LockTimeout time.Duration `yaml:"lockTimeout"`
	} `yaml:"storage"`

	Logging struct {
		// Level is a zerolog level name: trace, debug, info, warn, error
		Level string `yaml:"level"`

		// JSON switches from console output to JSON lines
		JSON bool `yaml:"json"`
	} `yaml:"logging"`

	Dataset struct {
		// Path is the dataset used when a command is given none
		Path string `yaml:"path"`
	} `yaml:"dataset"`

	// Phantom parameters for the generate command
	Phantom phantom.Options `yaml:"phantom"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Storage.LockTimeout = ismrmrd.DefaultLockTimeout
	cfg.Logging.Level = "info"
	cfg.Dataset.Path = ismrmrd.DefaultPath
	cfg.Phantom = phantom.DefaultOptions()

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Storage.Compression < 0 || c.Storage.Compression > 9 {
		return fmt.Errorf("compression level %d out of range 0-9", c.Storage.Compression)
	}
	if c.Storage.LockTimeout < 0 {
		return fmt.Errorf("lock timeout %s is negative", c.Storage.LockTimeout)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if _, err := ismrmrd.CleanPath(c.Dataset.Path); err != nil {
		return fmt.Errorf("dataset path %q: %w", c.Dataset.Path, err)
	}
	return c.Phantom.Validate()
}

func (c *Config) level() (zerolog.Level, error) {
	if c.Logging.Level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the logger described by the logging section.
func (c *Config) NewLogger(w io.Writer) (log.Logger, error) {
	lvl, err := c.level()
	if err != nil {
		return nil, err
	}
	opts := []log.Option{log.LevelOption(lvl)}
	if c.Logging.JSON {
		opts = append(opts, log.OutputJSONOption())
	} else {
		opts = append(opts, log.ColorOption(false))
	}
	return log.NewLogger(w, opts...), nil
}

// FileOptions returns the options for opening container files.
func (c *Config) FileOptions(logger log.Logger) []ismrmrd.FileOption {
	return []ismrmrd.FileOption{
		ismrmrd.WithLogger(logger),
		ismrmrd.WithLockTimeout(c.Storage.LockTimeout),
	}
}

// DatasetOptions returns the payload filter and check options.
func (c *Config) DatasetOptions() []ismrmrd.DatasetOption {
	var opts []ismrmrd.DatasetOption
	if c.Storage.Compression > 0 {
		opts = append(opts, ismrmrd.WithCompression(c.Storage.Compression))
	}
	if c.Storage.Shuffle {
		opts = append(opts, ismrmrd.WithShuffle())
	}
	if c.Storage.Fletcher32 {
		opts = append(opts, ismrmrd.WithFletcher32())
	}
	if c.Storage.EncodingCheck {
		opts = append(opts, ismrmrd.WithEncodingCheck())
	}
	return opts
}
