// Package analyzer orchestrates the full analysis pipeline: series
// validation, indicators, volume profile, levels, patterns, scoring, and
// the risk plan.
package analyzer

import (
	"context"

	"stock-analyzer/internal/analysis"
	"stock-analyzer/internal/analysis/indicators"
	"stock-analyzer/internal/analysis/levels"
	"stock-analyzer/internal/analysis/patterns"
	"stock-analyzer/internal/analysis/profile"
	"stock-analyzer/internal/analysis/scoring"
	"stock-analyzer/internal/config"
	apperrors "stock-analyzer/internal/errors"
	"stock-analyzer/internal/models"
	"stock-analyzer/internal/risk"
)

// Result is the complete output of one analysis run.
type Result struct {
	Bars       int                     `json:"bars"`
	LastClose  float64                 `json:"last_close"`
	Indicators map[string]float64      `json:"indicators"`
	Profile    *profile.Result         `json:"volume_profile,omitempty"`
	Levels     *levels.Result          `json:"levels,omitempty"`
	Patterns   []analysis.PatternMatch `json:"patterns"`
	Score      analysis.SignalScore    `json:"signal"`
	Risk       *risk.Plan              `json:"risk,omitempty"`
	Warnings   []string                `json:"warnings,omitempty"`
}

// Analyze runs the whole pipeline over a validated copy of the series.
// The input is rejected with a MalformedSeriesError when any bar violates
// OHLC constraints or timestamps are not strictly ascending. Insufficient
// history degrades individual components with a warning instead of failing
// the run. The computation is pure: the same input yields the same output.
func Analyze(ctx context.Context, bars []models.Bar, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := ValidateSeries(bars); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, apperrors.NewInsufficientDataError("Analyze", 1, 0)
	}

	result := &Result{
		Bars:      len(bars),
		LastClose: bars[len(bars)-1].Close,
	}

	engine := indicators.NewDefaultEngine(cfg.Analysis.Workers)
	single, multi, err := engine.CalculateAll(ctx, bars)
	if err != nil {
		return nil, err
	}
	result.Indicators = snapshot(single, multi)

	builder := profile.NewBuilder(cfg.Analysis.ProfileBins, cfg.Analysis.ValueAreaFraction)
	vp, err := builder.Build(bars)
	if err != nil {
		result.Warnings = append(result.Warnings, "volume profile: "+err.Error())
	} else {
		result.Profile = vp
	}

	result.Levels = levels.NewAnalyzer().Analyze(bars)
	result.Patterns = patterns.NewDetector().DetectAll(bars)
	result.Score = scoring.NewSignalScorer().Score(bars, result.Patterns)

	manager := risk.NewManagerWith(cfg.Risk.ATRMultiple, cfg.Risk.FixedStopPct, cfg.Risk.StopPolicy)
	plan, err := manager.BuildPlan(bars, cfg.Risk.PortfolioValue, cfg.Risk.RiskFraction)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidRisk) {
			return nil, err
		}
		result.Warnings = append(result.Warnings, "risk plan: "+err.Error())
	} else {
		result.Risk = plan
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ValidateSeries rejects a series whose bars violate OHLC constraints,
// carry negative volume, or are not strictly ascending in time. It reports
// the first offending bar.
func ValidateSeries(bars []models.Bar) error {
	for i, b := range bars {
		switch {
		case b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0:
			return apperrors.NewMalformedSeriesError(i, "price", "non-positive price")
		case b.High < b.Low:
			return apperrors.NewMalformedSeriesError(i, "high", "high below low")
		case b.High < b.Open || b.High < b.Close:
			return apperrors.NewMalformedSeriesError(i, "high", "high below open or close")
		case b.Low > b.Open || b.Low > b.Close:
			return apperrors.NewMalformedSeriesError(i, "low", "low above open or close")
		case b.Volume < 0:
			return apperrors.NewMalformedSeriesError(i, "volume", "negative volume")
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return apperrors.NewMalformedSeriesError(i, "timestamp", "timestamps not strictly ascending")
		}
	}
	return nil
}

// snapshot flattens the last value of every computed indicator series into
// a single map. Multi-value outputs are keyed as "Name.component".
func snapshot(single map[string][]float64, multi map[string]map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(single)+len(multi)*3)
	for name, series := range single {
		if len(series) > 0 {
			out[name] = series[len(series)-1]
		}
	}
	for name, components := range multi {
		for component, series := range components {
			if len(series) > 0 {
				out[name+"."+component] = series[len(series)-1]
			}
		}
	}
	return out
}
