// Package config resolves loader settings from defaults, an optional YAML
// file, the environment and command-line flags.
package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/wegman-software/osmpoi/internal/wkb"
)

// EnvPrefix namespaces every environment override except DATABASE_URL
const EnvPrefix = "OSMPOI"

// Config holds the settings of one load
type Config struct {
	// Input settings
	InputFile string `mapstructure:"-"`

	// Database settings
	DatabaseURL  string        `mapstructure:"database_url"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"` // per insert, 0 = no limit
	CreateSchema bool          `mapstructure:"create_schema"`

	// SingleTransaction trades the per-row durability of the default mode for
	// an all-or-nothing load
	SingleTransaction bool `mapstructure:"single_transaction"`

	// Projection is the target SRID, "4326" or "3857" with an optional EPSG: prefix
	Projection string `mapstructure:"projection"`

	// Logging and metrics
	Verbose          bool          `mapstructure:"verbose"`
	LogFile          string        `mapstructure:"log_file"` // empty = no file logging
	MetricsInterval  time.Duration `mapstructure:"metrics_interval"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

// fileConfig mirrors Config for YAML decoding. Pointers tell set keys apart
// from zero values so only the keys present in the file override defaults.
type fileConfig struct {
	DatabaseURL       *string        `yaml:"database_url"`
	WriteTimeout      *time.Duration `yaml:"write_timeout"`
	CreateSchema      *bool          `yaml:"create_schema"`
	SingleTransaction *bool          `yaml:"single_transaction"`
	Projection        *string        `yaml:"projection"`
	Verbose           *bool          `yaml:"verbose"`
	LogFile           *string        `yaml:"log_file"`
	MetricsInterval   *time.Duration `yaml:"metrics_interval"`
	ProgressInterval  *time.Duration `yaml:"progress_interval"`
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"database-url":       "database_url",
	"write-timeout":      "write_timeout",
	"create-schema":      "create_schema",
	"single-transaction": "single_transaction",
	"projection":         "projection",
	"verbose":            "verbose",
	"log-file":           "log_file",
	"metrics-interval":   "metrics_interval",
	"progress-interval":  "progress_interval",
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Projection:       "4326",
		MetricsInterval:  30 * time.Second,
		ProgressInterval: 10 * time.Second,
	}
}

// Load resolves the configuration. Precedence, lowest first: defaults, the
// YAML file at configFile (if non-empty), environment, flags that were set.
// flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("database_url", def.DatabaseURL)
	v.SetDefault("write_timeout", def.WriteTimeout)
	v.SetDefault("create_schema", def.CreateSchema)
	v.SetDefault("single_transaction", def.SingleTransaction)
	v.SetDefault("projection", def.Projection)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("metrics_interval", def.MetricsInterval)
	v.SetDefault("progress_interval", def.ProgressInterval)

	if configFile != "" {
		values, err := readFile(configFile)
		if err != nil {
			return nil, err
		}
		if err := v.MergeConfigMap(values); err != nil {
			return nil, eris.Wrap(err, "config: merge file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, eris.Wrapf(err, "config: bind flag %s", name)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// readFile decodes the YAML file strictly: unknown keys are an error
func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read %s", path)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, eris.Wrapf(err, "config: parse %s", path)
	}

	values := make(map[string]any)
	setIf(values, "database_url", fc.DatabaseURL)
	setIf(values, "write_timeout", fc.WriteTimeout)
	setIf(values, "create_schema", fc.CreateSchema)
	setIf(values, "single_transaction", fc.SingleTransaction)
	setIf(values, "projection", fc.Projection)
	setIf(values, "verbose", fc.Verbose)
	setIf(values, "log_file", fc.LogFile)
	setIf(values, "metrics_interval", fc.MetricsInterval)
	setIf(values, "progress_interval", fc.ProgressInterval)
	return values, nil
}

func setIf[T any](values map[string]any, key string, v *T) {
	if v != nil {
		values[key] = *v
	}
}

// SRID parses Projection
func (c *Config) SRID() (int, error) {
	return wkb.ParseSRID(c.Projection)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.InputFile == "" {
		return eris.New("input file is required")
	}
	if c.DatabaseURL == "" {
		return eris.New("database URL is required (--database-url or DATABASE_URL)")
	}
	if _, err := c.SRID(); err != nil {
		return err
	}
	if c.WriteTimeout < 0 {
		return eris.New("write timeout must not be negative")
	}
	return nil
}
