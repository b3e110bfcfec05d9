// Package config provides configuration management for the pricer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "binomial-pricer/internal/errors"
	"binomial-pricer/internal/lattice"
	"binomial-pricer/internal/logging"
)

// FileName is the configuration file looked up in the config directory.
const FileName = "config.toml"

// MethodBoth prices with both strategies and reports their agreement.
const MethodBoth = "both"

// Config holds all application configuration.
type Config struct {
	Pricing PricingConfig `mapstructure:"pricing" json:"pricing"`
	Output  OutputConfig  `mapstructure:"output" json:"output"`
	Logging LoggingConfig `mapstructure:"logging" json:"logging"`
	Store   StoreConfig   `mapstructure:"store" json:"store"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-" json:"dir"`
}

// PricingConfig holds lattice defaults used when flags are omitted.
type PricingConfig struct {
	Rate       float64 `mapstructure:"rate" json:"rate"`
	Up         float64 `mapstructure:"up" json:"up"`
	Down       float64 `mapstructure:"down" json:"down"`
	Periods    int     `mapstructure:"periods" json:"periods"`
	Method     string  `mapstructure:"method" json:"method"`           // replicating, risk-neutral, both
	MaxPeriods int     `mapstructure:"max_periods" json:"max_periods"` // refuse larger lattices
	Workers    int     `mapstructure:"workers" json:"workers"`         // 0 = one per CPU
}

// OutputConfig holds rendering configuration.
type OutputConfig struct {
	Dir          string  `mapstructure:"dir" json:"dir"`
	Samples      int     `mapstructure:"samples" json:"samples"`
	PlotWidth    float64 `mapstructure:"plot_width" json:"plot_width"`   // inches
	PlotHeight   float64 `mapstructure:"plot_height" json:"plot_height"` // inches
	ColorEnabled bool    `mapstructure:"color_enabled" json:"color_enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	File       bool   `mapstructure:"file" json:"file"`
	FilePath   string `mapstructure:"file_path" json:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age"`
}

// StoreConfig holds the position library location.
type StoreConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/binomial-pricer"
	}
	return filepath.Join(home, ".config", "binomial-pricer")
}

// Path returns the configuration file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, FileName)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("pricing.rate", 0.05)
	v.SetDefault("pricing.up", 1.1)
	v.SetDefault("pricing.down", 0.9)
	v.SetDefault("pricing.periods", 1)
	v.SetDefault("pricing.method", lattice.Replicating.String())
	v.SetDefault("pricing.max_periods", 5000)
	v.SetDefault("pricing.workers", 0)

	v.SetDefault("output.dir", ".")
	v.SetDefault("output.samples", 100)
	v.SetDefault("output.plot_width", 8.0)
	v.SetDefault("output.plot_height", 5.0)
	v.SetDefault("output.color_enabled", true)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "pricer.log"))
	v.SetDefault("logging.max_size", 20)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 14)

	v.SetDefault("store.path", filepath.Join(configDir, "positions.db"))
}

// Default returns the built-in configuration for configDir without touching
// the filesystem.
func Default(configDir string) *Config {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	v := viper.New()
	setDefaults(v, configDir)

	cfg := &Config{Dir: configDir}
	// Defaults alone always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := loadDotEnv(configDir); err != nil {
		return nil, apperrors.Wrap(err, "loading .env")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading %s: %v", apperrors.ErrConfigInvalid, FileName, err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, apperrors.Wrap(err, "creating config template")
		}
	}

	cfg := &Config{Dir: configDir}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", apperrors.ErrConfigInvalid, FileName, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(err, "validating config")
	}

	return cfg, nil
}

// loadDotEnv sources .env from the working directory and then configDir.
// Variables already set in the environment win.
func loadDotEnv(configDir string) error {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PRICER_RATE"); v != "" {
		rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: PRICER_RATE=%q is not a number", apperrors.ErrConfigInvalid, v)
		}
		cfg.Pricing.Rate = rate
	}
	if v := os.Getenv("PRICER_METHOD"); v != "" {
		cfg.Pricing.Method = v
	}
	if v := os.Getenv("PRICER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PRICER_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperrors.ErrConfigInvalid, fmt.Sprintf(format, args...))
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	p := c.Pricing
	if p.Rate <= -1 {
		return invalid("pricing.rate must be greater than -1, got %g", p.Rate)
	}
	if p.Down <= 0 || p.Up <= p.Down {
		return invalid("pricing factors must satisfy up > down > 0, got up=%g down=%g", p.Up, p.Down)
	}
	if p.Periods < 0 {
		return invalid("pricing.periods must be non-negative")
	}
	if p.MaxPeriods <= 0 {
		return invalid("pricing.max_periods must be positive")
	}
	if p.Periods > p.MaxPeriods {
		return invalid("pricing.periods %d exceeds max_periods %d", p.Periods, p.MaxPeriods)
	}
	if p.Workers < 0 {
		return invalid("pricing.workers must be non-negative")
	}
	if _, err := c.Methods(); err != nil {
		return invalid("pricing.method: %v", err)
	}

	if c.Output.Samples < 2 {
		return invalid("output.samples must be at least 2")
	}
	if c.Output.PlotWidth <= 0 || c.Output.PlotHeight <= 0 {
		return invalid("output plot size must be positive")
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return invalid("logging.level %q is not one of trace, debug, info, warn, error", c.Logging.Level)
	}
	if c.Logging.File && c.Logging.FilePath == "" {
		return invalid("logging.file_path is required when logging.file is enabled")
	}

	if c.Store.Path == "" {
		return invalid("store.path must be set")
	}
	return nil
}

// Methods resolves pricing.method into the strategies to run.
func (c *Config) Methods() ([]lattice.Strategy, error) {
	return ParseMethod(c.Pricing.Method)
}

// ParseMethod resolves a method name, accepting "both" for every strategy.
func ParseMethod(method string) ([]lattice.Strategy, error) {
	if strings.EqualFold(strings.TrimSpace(method), MethodBoth) {
		return lattice.Strategies(), nil
	}
	s, err := lattice.ParseStrategy(method)
	if err != nil {
		return nil, err
	}
	return []lattice.Strategy{s}, nil
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    true,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
