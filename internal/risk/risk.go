// Package risk derives protective stops, profit targets, and position
// sizing from a bar series and portfolio parameters.
package risk

import (
	"math"

	"stock-analyzer/internal/analysis/indicators"
	apperrors "stock-analyzer/internal/errors"
	"stock-analyzer/internal/models"
)

// Stop policies.
const (
	// StopPolicyWiderOfATRAndFixed places the stop at the wider of the
	// ATR stop and the fixed percentage stop.
	StopPolicyWiderOfATRAndFixed = "wider_of_atr_and_fixed"
	// StopPolicyFixedPct places the stop a fixed percentage below entry.
	StopPolicyFixedPct = "fixed_pct"
)

// Defaults for the risk model.
const (
	DefaultATRPeriod      = 14
	DefaultATRMultiple    = 2.0
	DefaultFixedStopPct   = 0.08
	DefaultTarget1Pct     = 0.15
	DefaultTarget2Pct     = 0.30
	DefaultRiskFraction   = 0.01
	DefaultPortfolioValue = 1_000_000
)

// Manager computes trade risk plans.
type Manager struct {
	atrPeriod    int
	atrMultiple  float64
	fixedStopPct float64
	stopPolicy   string
	target1Pct   float64
	target2Pct   float64
}

// NewManager creates a risk manager with the standard parameters.
func NewManager() *Manager {
	return NewManagerWith(DefaultATRMultiple, DefaultFixedStopPct, StopPolicyWiderOfATRAndFixed)
}

// NewManagerWith creates a risk manager with a custom ATR multiple, fixed
// stop percentage, and stop policy. Non-positive numeric arguments and an
// unknown policy fall back to the defaults.
func NewManagerWith(atrMultiple, fixedStopPct float64, stopPolicy string) *Manager {
	if atrMultiple <= 0 {
		atrMultiple = DefaultATRMultiple
	}
	if fixedStopPct <= 0 || fixedStopPct >= 1 {
		fixedStopPct = DefaultFixedStopPct
	}
	if stopPolicy != StopPolicyFixedPct {
		stopPolicy = StopPolicyWiderOfATRAndFixed
	}
	return &Manager{
		atrPeriod:    DefaultATRPeriod,
		atrMultiple:  atrMultiple,
		fixedStopPct: fixedStopPct,
		stopPolicy:   stopPolicy,
		target1Pct:   DefaultTarget1Pct,
		target2Pct:   DefaultTarget2Pct,
	}
}

// Target is one profit objective with its reward:risk ratio.
type Target struct {
	Price      float64 `json:"price"`
	RewardRisk float64 `json:"reward_risk"`
}

// Plan is a complete risk plan for a long entry.
type Plan struct {
	Entry         float64  `json:"entry"`
	Stop          float64  `json:"stop"`
	RiskPerShare  float64  `json:"risk_per_share"`
	Targets       []Target `json:"targets"`
	PositionSize  int64    `json:"position_size"`
	CapitalAtRisk float64  `json:"capital_at_risk"`
}

// BuildPlan derives the risk plan for a long entry at the last close.
func (m *Manager) BuildPlan(bars []models.Bar, portfolioValue, riskFraction float64) (*Plan, error) {
	if len(bars) == 0 {
		return nil, apperrors.NewInsufficientDataError("RiskPlan", 1, 0)
	}
	entry := bars[len(bars)-1].Close
	return m.BuildPlanAt(bars, entry, portfolioValue, riskFraction)
}

// BuildPlanAt derives the risk plan for a long entry at the given price.
func (m *Manager) BuildPlanAt(bars []models.Bar, entry, portfolioValue, riskFraction float64) (*Plan, error) {
	if portfolioValue <= 0 {
		portfolioValue = DefaultPortfolioValue
	}
	if riskFraction <= 0 {
		riskFraction = DefaultRiskFraction
	}

	stop, err := m.stopFor(bars, entry)
	if err != nil {
		return nil, err
	}

	riskPerShare := entry - stop
	if riskPerShare <= 0 {
		return nil, apperrors.NewInvalidRiskError(entry, stop, "risk per share is not positive")
	}

	target1 := entry * (1 + m.target1Pct)
	target2 := entry * (1 + m.target2Pct)

	size := int64(math.Floor(portfolioValue * riskFraction / riskPerShare))

	return &Plan{
		Entry:        entry,
		Stop:         stop,
		RiskPerShare: riskPerShare,
		Targets: []Target{
			{Price: target1, RewardRisk: (target1 - entry) / riskPerShare},
			{Price: target2, RewardRisk: (target2 - entry) / riskPerShare},
		},
		PositionSize:  size,
		CapitalAtRisk: float64(size) * riskPerShare,
	}, nil
}

// stopFor places the protective stop under the configured policy. Under
// the wider-of policy a volatile name is never given a tighter stop than
// the fixed percentage allows.
func (m *Manager) stopFor(bars []models.Bar, entry float64) (float64, error) {
	fixedStop := entry * (1 - m.fixedStopPct)
	if m.stopPolicy == StopPolicyFixedPct {
		return fixedStop, nil
	}

	atrValues, err := indicators.NewATR(m.atrPeriod).Calculate(bars)
	if err != nil {
		return 0, apperrors.Wrapf(err, "ATR_%d for risk plan", m.atrPeriod)
	}
	atr := atrValues[len(atrValues)-1]

	atrStop := entry - m.atrMultiple*atr
	return math.Min(atrStop, fixedStop), nil
}
