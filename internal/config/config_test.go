package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "stock-analyzer/internal/errors"
	"stock-analyzer/internal/risk"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Analysis.ProfileBins != 24 {
		t.Errorf("ProfileBins = %d, want 24", cfg.Analysis.ProfileBins)
	}
	if cfg.Analysis.ValueAreaFraction != 0.70 {
		t.Errorf("ValueAreaFraction = %v, want 0.70", cfg.Analysis.ValueAreaFraction)
	}
	if cfg.Risk.PortfolioValue != 1_000_000 {
		t.Errorf("PortfolioValue = %v, want 1000000", cfg.Risk.PortfolioValue)
	}
	if cfg.Risk.StopPolicy != risk.StopPolicyWiderOfATRAndFixed {
		t.Errorf("StopPolicy = %q, want %q", cfg.Risk.StopPolicy, risk.StopPolicyWiderOfATRAndFixed)
	}
	if cfg.Risk.FixedStopPct != 0.08 {
		t.Errorf("FixedStopPct = %v, want 0.08", cfg.Risk.FixedStopPct)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[analysis]
profile_bins = 48
workers = 8

[risk]
portfolio_value = 250000.0
risk_fraction = 0.02
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Analysis.ProfileBins != 48 {
		t.Errorf("ProfileBins = %d, want 48", cfg.Analysis.ProfileBins)
	}
	if cfg.Analysis.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Analysis.Workers)
	}
	if cfg.Risk.PortfolioValue != 250000 {
		t.Errorf("PortfolioValue = %v, want 250000", cfg.Risk.PortfolioValue)
	}
	// Unset keys keep their defaults.
	if cfg.Risk.ATRMultiple != 2.0 {
		t.Errorf("ATRMultiple = %v, want 2.0", cfg.Risk.ATRMultiple)
	}
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	content := `
[risk]
risk_fraction = 1.5
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("expected validation error for risk_fraction > 1")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STOCK_ANALYZER_PORTFOLIO_VALUE", "750000")
	t.Setenv("STOCK_ANALYZER_CACHE_PATH", "/tmp/bars-test.db")
	t.Setenv("STOCK_ANALYZER_LOG_LEVEL", "debug")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Risk.PortfolioValue != 750000 {
		t.Errorf("PortfolioValue = %v, want 750000", cfg.Risk.PortfolioValue)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Path != "/tmp/bars-test.db" {
		t.Errorf("cache override not applied: %+v", cfg.Cache)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero profile bins", func(c *Config) { c.Analysis.ProfileBins = 0 }},
		{"value area above one", func(c *Config) { c.Analysis.ValueAreaFraction = 1.5 }},
		{"zero swing strength", func(c *Config) { c.Analysis.SwingStrength = 0 }},
		{"huge level tolerance", func(c *Config) { c.Analysis.LevelTolerance = 0.9 }},
		{"negative portfolio", func(c *Config) { c.Risk.PortfolioValue = -1 }},
		{"zero risk fraction", func(c *Config) { c.Risk.RiskFraction = 0 }},
		{"zero atr multiple", func(c *Config) { c.Risk.ATRMultiple = 0 }},
		{"unknown stop policy", func(c *Config) { c.Risk.StopPolicy = "trailing" }},
		{"fixed stop of one", func(c *Config) { c.Risk.FixedStopPct = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, apperrors.ErrConfigInvalid) {
				t.Errorf("err = %v, want ErrConfigInvalid in the chain", err)
			}
			var vErr *apperrors.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("err = %v, want *ValidationError", err)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_StopPolicyFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[risk]
stop_policy = "fixed_pct"
fixed_stop_pct = 0.05
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Risk.StopPolicy != risk.StopPolicyFixedPct {
		t.Errorf("StopPolicy = %q, want %q", cfg.Risk.StopPolicy, risk.StopPolicyFixedPct)
	}
	if cfg.Risk.FixedStopPct != 0.05 {
		t.Errorf("FixedStopPct = %v, want 0.05", cfg.Risk.FixedStopPct)
	}
}
