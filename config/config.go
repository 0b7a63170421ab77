// Package config loads the CLI configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"creed.space/vcp/storage/casconfig"
)

// DefaultSkew is the clock-skew allowance applied to validity windows
// when the config does not set one.
const DefaultSkew = 5 * time.Minute

// Config is the on-disk CLI configuration, typically ~/.vcp/config.yaml.
type Config struct {
	// KeyDir overrides the key store directory (default ~/.vcp/keys).
	KeyDir string `yaml:"key_dir,omitempty"`
	// TrustRegistry is the path of the trust anchor registry (JSON or YAML).
	TrustRegistry string `yaml:"trust_registry,omitempty"`
	// ClockSkew is the validity-window skew allowance, e.g. "5m".
	ClockSkew string `yaml:"clock_skew,omitempty"`
	// Storage configures CAS backends for the cas subcommands.
	Storage *casconfig.Config `yaml:"storage,omitempty"`
}

// DefaultPath returns ~/.vcp/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vcp", "config.yaml"), nil
}

// Load reads a config file. A missing file at the default path is not an
// error: commands fall back to built-in defaults.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.ClockSkew != "" {
		if _, err := time.ParseDuration(c.ClockSkew); err != nil {
			return fmt.Errorf("invalid clock_skew: %w", err)
		}
	}
	if c.Storage != nil {
		if err := c.Storage.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Skew returns the configured clock-skew allowance, or DefaultSkew.
func (c *Config) Skew() time.Duration {
	if c.ClockSkew == "" {
		return DefaultSkew
	}
	d, err := time.ParseDuration(c.ClockSkew)
	if err != nil {
		return DefaultSkew
	}
	return d
}
