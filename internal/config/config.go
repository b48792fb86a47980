// Package config provides configuration management for the analyzer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	apperrors "stock-analyzer/internal/errors"
	"stock-analyzer/internal/risk"
)

// Config holds all application configuration.
type Config struct {
	Analysis Analysis      `mapstructure:"analysis"`
	Risk     RiskConfig    `mapstructure:"risk"`
	Cache    CacheConfig   `mapstructure:"cache"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// Analysis holds the knobs of the analysis pipeline.
type Analysis struct {
	ProfileBins       int     `mapstructure:"profile_bins"`
	ValueAreaFraction float64 `mapstructure:"value_area_fraction"`
	SwingStrength     int     `mapstructure:"swing_strength"`
	LevelTolerance    float64 `mapstructure:"level_tolerance"`
	Workers           int     `mapstructure:"workers"`
}

// RiskConfig holds risk management configuration. StopPolicy selects how
// the protective stop is placed: "wider_of_atr_and_fixed" takes the wider
// of the ATR stop and the fixed percentage stop, "fixed_pct" uses the
// fixed percentage alone.
type RiskConfig struct {
	PortfolioValue float64 `mapstructure:"portfolio_value"`
	RiskFraction   float64 `mapstructure:"risk_fraction"`
	ATRMultiple    float64 `mapstructure:"atr_multiple"`
	StopPolicy     string  `mapstructure:"stop_policy"`
	FixedStopPct   float64 `mapstructure:"fixed_stop_pct"`
}

// CacheConfig holds the sqlite bar cache configuration.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	Console    bool   `mapstructure:"console"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stock-analyzer"
	}
	return filepath.Join(home, ".config", "stock-analyzer")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A missing config file is not
// an error: defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration with every knob at its default.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	_ = v.Unmarshal(cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("analysis.profile_bins", 24)
	v.SetDefault("analysis.value_area_fraction", 0.70)
	v.SetDefault("analysis.swing_strength", 3)
	v.SetDefault("analysis.level_tolerance", 0.02)
	v.SetDefault("analysis.workers", 4)
	v.SetDefault("risk.portfolio_value", 1_000_000.0)
	v.SetDefault("risk.risk_fraction", 0.01)
	v.SetDefault("risk.atr_multiple", 2.0)
	v.SetDefault("risk.stop_policy", risk.StopPolicyWiderOfATRAndFixed)
	v.SetDefault("risk.fixed_stop_pct", 0.08)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", filepath.Join(DefaultConfigDir(), "bars.db"))
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.console", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCK_ANALYZER_PORTFOLIO_VALUE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.PortfolioValue = f
		}
	}
	if v := os.Getenv("STOCK_ANALYZER_RISK_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Risk.RiskFraction = f
		}
	}
	if v := os.Getenv("STOCK_ANALYZER_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
		cfg.Cache.Enabled = true
	}
	if v := os.Getenv("STOCK_ANALYZER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration. It returns a *ValidationError
// wrapping ErrConfigInvalid for the first offending field.
func (c *Config) Validate() error {
	if c.Analysis.ProfileBins <= 0 {
		return apperrors.NewValidationError("profile_bins", c.Analysis.ProfileBins, "must be positive")
	}
	if c.Analysis.ValueAreaFraction <= 0 || c.Analysis.ValueAreaFraction > 1 {
		return apperrors.NewValidationError("value_area_fraction", c.Analysis.ValueAreaFraction, "must be in (0, 1]")
	}
	if c.Analysis.SwingStrength <= 0 {
		return apperrors.NewValidationError("swing_strength", c.Analysis.SwingStrength, "must be positive")
	}
	if c.Analysis.LevelTolerance <= 0 || c.Analysis.LevelTolerance > 0.5 {
		return apperrors.NewValidationError("level_tolerance", c.Analysis.LevelTolerance, "must be in (0, 0.5]")
	}
	if c.Risk.PortfolioValue <= 0 {
		return apperrors.NewValidationError("portfolio_value", c.Risk.PortfolioValue, "must be positive")
	}
	if c.Risk.RiskFraction <= 0 || c.Risk.RiskFraction > 1 {
		return apperrors.NewValidationError("risk_fraction", c.Risk.RiskFraction, "must be in (0, 1]")
	}
	if c.Risk.ATRMultiple <= 0 {
		return apperrors.NewValidationError("atr_multiple", c.Risk.ATRMultiple, "must be positive")
	}
	if c.Risk.StopPolicy != risk.StopPolicyWiderOfATRAndFixed && c.Risk.StopPolicy != risk.StopPolicyFixedPct {
		return apperrors.NewValidationError("stop_policy", c.Risk.StopPolicy,
			fmt.Sprintf("must be %q or %q", risk.StopPolicyWiderOfATRAndFixed, risk.StopPolicyFixedPct))
	}
	if c.Risk.FixedStopPct <= 0 || c.Risk.FixedStopPct >= 1 {
		return apperrors.NewValidationError("fixed_stop_pct", c.Risk.FixedStopPct, "must be in (0, 1)")
	}
	return nil
}
