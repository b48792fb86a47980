// Package analysis provides the shared vocabulary for technical analysis:
// indicator interfaces, pattern matches, price levels, and signal scores.
package analysis

import (
	"stock-analyzer/internal/models"
)

// Indicator defines the interface for technical indicators.
type Indicator interface {
	Name() string
	Calculate(bars []models.Bar) ([]float64, error)
	Period() int
}

// MultiValueIndicator defines the interface for indicators that return multiple series.
type MultiValueIndicator interface {
	Name() string
	Calculate(bars []models.Bar) (map[string][]float64, error)
	Period() int
}

// PatternMatch is the result of running one detector over a series.
// KeyLevels and MeasuredMetrics are populated with whatever was
// measurable even when Detected is false.
type PatternMatch struct {
	Name            string             `json:"name"`
	Detected        bool               `json:"detected"`
	Direction       PatternDirection   `json:"direction"`
	KeyLevels       map[string]float64 `json:"key_levels,omitempty"`
	MeasuredMetrics map[string]float64 `json:"measured_metrics,omitempty"`
	ConfidenceNotes []string           `json:"confidence_notes,omitempty"`
}

// NewPatternMatch returns a non-detected match for the named pattern with
// empty, non-nil level and metric maps.
func NewPatternMatch(name string, direction PatternDirection) PatternMatch {
	return PatternMatch{
		Name:            name,
		Direction:       direction,
		KeyLevels:       make(map[string]float64),
		MeasuredMetrics: make(map[string]float64),
	}
}

// PatternDirection represents the expected direction of a pattern.
type PatternDirection string

const (
	PatternBullish PatternDirection = "bullish"
	PatternBearish PatternDirection = "bearish"
	PatternNeutral PatternDirection = "neutral"
)

// SignalComponent is one rule's contribution to the composite score.
type SignalComponent struct {
	Rule         string `json:"rule"`
	Contribution int    `json:"contribution"`
	Reason       string `json:"reason"`
}

// SignalScore represents a composite signal score in [-7, 7] with its
// per-rule breakdown in evaluation order.
type SignalScore struct {
	Score          int                  `json:"score"`
	Recommendation SignalRecommendation `json:"recommendation"`
	Components     []SignalComponent    `json:"component_breakdown"`
}

// SignalRecommendation represents the signal recommendation.
type SignalRecommendation string

const (
	StrongBuy  SignalRecommendation = "STRONG_BUY"
	Buy        SignalRecommendation = "BUY"
	Hold       SignalRecommendation = "HOLD"
	Sell       SignalRecommendation = "SELL"
	StrongSell SignalRecommendation = "STRONG_SELL"
)

// Level represents a support or resistance level.
type Level struct {
	Price      float64   `json:"price"`
	Type       LevelType `json:"type"`
	Strength   float64   `json:"strength"`
	TouchCount int       `json:"touch_count"`
	Source     string    `json:"source"`
}

// LevelType represents the type of price level.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// TrendLine is a line fitted through swing points, projected to the last bar.
type TrendLine struct {
	Slope        float64   `json:"slope"`
	Intercept    float64   `json:"intercept"`
	Type         LevelType `json:"type"`
	TouchCount   int       `json:"touch_count"`
	StartIndex   int       `json:"start_index"`
	EndIndex     int       `json:"end_index"`
	CurrentValue float64   `json:"current_value"`
}

// ValueAt returns the trend line price at the given bar index.
func (t TrendLine) ValueAt(index int) float64 {
	return t.Slope*float64(index) + t.Intercept
}
