// Package config loads gv's configuration: built-in defaults, then
// config.yaml from the grove config directory, then GROVE_*
// environment overrides. A missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/grovecli/grove/internal/tidy"
)

// Config is everything gv reads at startup.
type Config struct {
	DBPath string `mapstructure:"db-path" yaml:"db-path"`
	Actor  string `mapstructure:"actor" yaml:"actor"`
	Tidy   Tidy   `mapstructure:"tidy" yaml:"tidy"`
	Beads  Beads  `mapstructure:"beads" yaml:"beads"`
}

// Tidy holds clutter thresholds. Zero means use the built-in default;
// stored per-database overrides still win at scan time.
type Tidy struct {
	BranchesPerTrunk int `mapstructure:"branches-per-trunk" yaml:"branches-per-trunk"`
	BudsPerBranch    int `mapstructure:"buds-per-branch" yaml:"buds-per-branch"`
	FruitsPerTrunk   int `mapstructure:"fruits-per-trunk" yaml:"fruits-per-trunk"`
}

// Beads holds external tracker defaults.
type Beads struct {
	DefaultRepo string `mapstructure:"default-repo" yaml:"default-repo"`
	Command     string `mapstructure:"command" yaml:"command"`
}

// Dir returns the grove config directory, honoring GROVE_CONFIG_DIR.
func Dir() (string, error) {
	if dir := os.Getenv("GROVE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "grove"), nil
}

// DefaultDBPath is where the database lands when nothing configures
// it.
func DefaultDBPath() string {
	dir, err := Dir()
	if err != nil {
		return "grove.db"
	}
	return filepath.Join(dir, "grove.db")
}

// Load reads configuration from dir. Pass "" to use Dir().
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = Dir()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("GROVE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("db-path", DefaultDBPath())
	v.SetDefault("actor", defaultActor())
	v.SetDefault("tidy.branches-per-trunk", tidy.DefaultBranchesPerTrunk)
	v.SetDefault("tidy.buds-per-branch", tidy.DefaultBudsPerBranch)
	v.SetDefault("tidy.fruits-per-trunk", tidy.DefaultFruitsPerTrunk)
	v.SetDefault("beads.command", "bd")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Dump renders the effective configuration as YAML, for `gv config`.
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func defaultActor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "grove"
}
