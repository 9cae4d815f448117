package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Log.File)
	assert.Equal(t, "round", cfg.Compile.Quantize)
	assert.Equal(t, 4, cfg.Compile.Workers)
	assert.Zero(t, cfg.Compile.RootDuration)
	assert.Equal(t, "ns", cfg.Render.Unit)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, int64(4<<20), cfg.Server.MaxBodyBytes)
	assert.NoError(t, cfg.Validate())
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"negative rotation", func(c *Config) { c.Log.MaxAge = -1 }, "rotation"},
		{"bad quantize", func(c *Config) { c.Compile.Quantize = "ceil" }, "compile.quantize"},
		{"negative root duration", func(c *Config) { c.Compile.RootDuration = -1e-9 }, "compile.root_duration"},
		{"zero workers", func(c *Config) { c.Compile.Workers = 0 }, "compile.workers must be a positive integer"},
		{"bad unit", func(c *Config) { c.Render.Unit = "min" }, "render.unit"},
		{"zero width", func(c *Config) { c.Render.Width = 0 }, "render.width"},
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "server.addr is required"},
		{"zero body", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "server.max_body_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

// -- Loading Tests --

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulsegen.toml")
	content := `
[log]
level = "debug"
file = "pulsegen.log"

[compile]
quantize = "floor"
root_duration = 1e-6
workers = 8

[server]
addr = ":9000"
read_timeout = "2s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "pulsegen.log", cfg.Log.File)
	assert.Equal(t, "floor", cfg.Compile.Quantize)
	assert.InDelta(t, 1e-6, cfg.Compile.RootDuration, 1e-18)
	assert.Equal(t, 8, cfg.Compile.Workers)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ReadTimeout)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 3, cfg.Log.MaxBackups)

	opts := cfg.PipelineOptions()
	assert.Equal(t, "floor", opts.Quantize)
	assert.Equal(t, 8, opts.Workers)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PULSEGEN_COMPILE_WORKERS", "2")
	t.Setenv("PULSEGEN_LOG_LEVEL", "warn")

	path := filepath.Join(t.TempDir(), "pulsegen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compile:\n  workers: 16\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Compile.Workers, "environment should win over the file")
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err, "an explicit config path must exist")

	path := filepath.Join(t.TempDir(), "pulsegen.toml")
	require.NoError(t, os.WriteFile(path, []byte("[compile]\nworkers = 0\n"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, NewDefaultConfig(), cfg)
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("render.unit", "us")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "us", cfg.Render.Unit)
}
