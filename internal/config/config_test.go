package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "binomial-pricer/internal/errors"
	"binomial-pricer/internal/lattice"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"PRICER_RATE", "PRICER_METHOD", "PRICER_LOG_LEVEL", "PRICER_DB_PATH"} {
		t.Setenv(key, "")
	}
}

func TestLoadCreatesTemplateAndUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, FileName))
	assert.Equal(t, dir, cfg.Dir)
	assert.Equal(t, 0.05, cfg.Pricing.Rate)
	assert.Equal(t, 1.1, cfg.Pricing.Up)
	assert.Equal(t, 0.9, cfg.Pricing.Down)
	assert.Equal(t, 1, cfg.Pricing.Periods)
	assert.Equal(t, "replicating", cfg.Pricing.Method)
	assert.Equal(t, 100, cfg.Output.Samples)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "positions.db"), cfg.Store.Path)

	// The generated template parses back to the same configuration.
	again, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := `
[pricing]
rate = 0.01
up = 1.2
down = 0.8
periods = 25
method = "both"

[output]
samples = 250

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.01, cfg.Pricing.Rate)
	assert.Equal(t, 25, cfg.Pricing.Periods)
	assert.Equal(t, 250, cfg.Output.Samples)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 5000, cfg.Pricing.MaxPeriods)

	methods, err := cfg.Methods()
	require.NoError(t, err)
	assert.Equal(t, lattice.Strategies(), methods)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("[pricing]\nup = 0.9\ndown = 1.1\n"), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICER_RATE", "0.02")
	t.Setenv("PRICER_METHOD", "risk-neutral")
	t.Setenv("PRICER_LOG_LEVEL", "error")
	t.Setenv("PRICER_DB_PATH", "/tmp/elsewhere.db")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0.02, cfg.Pricing.Rate)
	assert.Equal(t, "risk-neutral", cfg.Pricing.Method)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "/tmp/elsewhere.db", cfg.Store.Path)
}

func TestEnvOverrideBadRate(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICER_RATE", "five percent")

	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestDotEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PRICER_METHOD=both\n"), 0644))
	// godotenv only fills variables that are unset.
	require.NoError(t, os.Unsetenv("PRICER_METHOD"))
	t.Cleanup(func() { os.Unsetenv("PRICER_METHOD") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "both", cfg.Pricing.Method)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"rate at minus one", func(c *Config) { c.Pricing.Rate = -1 }},
		{"equal factors", func(c *Config) { c.Pricing.Up = c.Pricing.Down }},
		{"zero down", func(c *Config) { c.Pricing.Down = 0 }},
		{"negative periods", func(c *Config) { c.Pricing.Periods = -1 }},
		{"periods above max", func(c *Config) { c.Pricing.Periods = c.Pricing.MaxPeriods + 1 }},
		{"negative workers", func(c *Config) { c.Pricing.Workers = -2 }},
		{"unknown method", func(c *Config) { c.Pricing.Method = "trinomial" }},
		{"one sample", func(c *Config) { c.Output.Samples = 1 }},
		{"zero plot width", func(c *Config) { c.Output.PlotWidth = 0 }},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }},
		{"file without path", func(c *Config) { c.Logging.File = true; c.Logging.FilePath = "" }},
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
	}

	require.NoError(t, Default(t.TempDir()).Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(t.TempDir())
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), apperrors.ErrConfigInvalid)
		})
	}
}

func TestParseMethod(t *testing.T) {
	methods, err := ParseMethod("Both")
	require.NoError(t, err)
	assert.Len(t, methods, 2)

	methods, err = ParseMethod("rn")
	require.NoError(t, err)
	assert.Equal(t, []lattice.Strategy{lattice.RiskNeutral}, methods)
}

func TestLogConfig(t *testing.T) {
	cfg := Default("/etc/pricer")
	lc := cfg.LogConfig()
	assert.Equal(t, "warn", lc.Level)
	assert.True(t, lc.Console)
	assert.False(t, lc.File)
	assert.Equal(t, filepath.Join("/etc/pricer", "logs", "pricer.log"), lc.FilePath)
	assert.Equal(t, filepath.Join("/etc/pricer", FileName), Path("/etc/pricer"))
}
