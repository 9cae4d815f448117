// Package config loads pulsegen's configuration from file, environment and
// defaults using viper.
//
// Precedence, highest first: command-line flags (applied by the CLI), the
// PULSEGEN_* environment (PULSEGEN_COMPILE_QUANTIZE for compile.quantize), the
// config file, then the defaults from [SetDefaults].
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/pipeline"
	"github.com/kahojyun/pulsegen/pkg/render"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PULSEGEN"

// Config is the full application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Compile CompileConfig `mapstructure:"compile" yaml:"compile"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// LogConfig controls logging. When File is set, logs are also written to a
// rotated file.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// CompileConfig holds the defaults for every compilation.
type CompileConfig struct {
	Quantize     string  `mapstructure:"quantize" yaml:"quantize"`
	RootDuration float64 `mapstructure:"root_duration" yaml:"root_duration"`
	Workers      int     `mapstructure:"workers" yaml:"workers"`
	// Channels is an optional TOML channel table used when a document has no
	// channels of its own.
	Channels string `mapstructure:"channels" yaml:"channels"`
}

// RenderConfig holds defaults for the renderers.
type RenderConfig struct {
	Unit  string  `mapstructure:"unit" yaml:"unit"`
	Width float64 `mapstructure:"width" yaml:"width"`
}

// ServerConfig configures the compile API.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
}

// NewDefaultConfig returns the configuration built from defaults alone.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Log --
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 20)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 14)
	v.SetDefault("log.compress", false)

	// -- Compile --
	v.SetDefault("compile.quantize", pipeline.DefaultQuantize)
	v.SetDefault("compile.root_duration", 0.0)
	v.SetDefault("compile.workers", pipeline.DefaultWorkers)
	v.SetDefault("compile.channels", "")

	// -- Render --
	v.SetDefault("render.unit", string(render.Nanoseconds))
	v.SetDefault("render.width", 1200.0)

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:8780")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_body_bytes", 4<<20)
}

// Load reads configuration from path, or from pulsegen.{toml,yaml,json} in
// the working directory and the user config directory when path is empty.
// A missing default file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pulsegen")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "pulsegen"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return fmt.Errorf("log rotation limits must be non-negative")
	}
	if _, err := channel.ParsePolicy(c.Compile.Quantize); err != nil {
		return fmt.Errorf("compile.quantize: %w", err)
	}
	if err := pipeline.ValidateRootDuration(c.Compile.RootDuration); err != nil {
		return fmt.Errorf("compile.root_duration: %w", err)
	}
	if c.Compile.Workers <= 0 {
		return fmt.Errorf("compile.workers must be a positive integer")
	}
	if _, err := render.ParseTimeUnit(c.Render.Unit); err != nil {
		return fmt.Errorf("render.unit: %w", err)
	}
	if c.Render.Width <= 0 {
		return fmt.Errorf("render.width must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	return nil
}

// PipelineOptions returns compile options seeded from the configuration.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		RootDuration: c.Compile.RootDuration,
		Quantize:     c.Compile.Quantize,
		Workers:      c.Compile.Workers,
	}
}
