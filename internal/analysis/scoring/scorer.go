// Package scoring combines trend, momentum, volume, and pattern evidence
// into a composite integer signal score.
package scoring

import (
	"fmt"

	"stock-analyzer/internal/analysis"
	"stock-analyzer/internal/analysis/indicators"
	"stock-analyzer/internal/models"
)

// Score bounds and recommendation band edges.
const (
	MaxScore = 7
	MinScore = -7
)

// SignalScorer evaluates a fixed, ordered set of rules. Each rule
// contributes -1, 0, or +1; the composite is their clamped sum.
type SignalScorer struct {
	smaFast      int
	smaMid       int
	smaSlow      int
	rsiPeriod    int
	volumePeriod int
}

// NewSignalScorer creates a scorer with the standard rule parameters.
func NewSignalScorer() *SignalScorer {
	return &SignalScorer{
		smaFast:      20,
		smaMid:       50,
		smaSlow:      200,
		rsiPeriod:    14,
		volumePeriod: 20,
	}
}

// Score evaluates all rules in order. Rules whose inputs are unavailable
// contribute zero with a reason, so short series still score.
func (s *SignalScorer) Score(bars []models.Bar, patterns []analysis.PatternMatch) analysis.SignalScore {
	components := []analysis.SignalComponent{
		s.scoreTrend(bars),
		s.scoreMACD(bars),
		s.scoreMomentum(bars),
		s.scoreVolatility(bars),
		s.scoreVolume(bars),
		s.scoreVWAP(bars),
		s.scorePatterns(patterns),
	}

	total := 0
	for _, c := range components {
		total += c.Contribution
	}
	total = clamp(total, MinScore, MaxScore)

	return analysis.SignalScore{
		Score:          total,
		Recommendation: scoreToRecommendation(total),
		Components:     components,
	}
}

// scoreTrend reads the close against the 20/50/200 moving average stack:
// above all three is bullish, below all three bearish, anything mixed is
// neutral.
func (s *SignalScorer) scoreTrend(bars []models.Bar) analysis.SignalComponent {
	c := analysis.SignalComponent{Rule: "trend"}
	last := bars[len(bars)-1].Close

	above := 0
	below := 0
	for _, period := range []int{s.smaFast, s.smaMid, s.smaSlow} {
		sma, err := indicators.NewSMA(period).Calculate(bars)
		if err != nil {
			c.Reason = fmt.Sprintf("SMA_%d unavailable", period)
			return c
		}
		ma := sma[len(sma)-1]
		if last > ma {
			above++
		}
		if last < ma {
			below++
		}
	}

	switch {
	case above == 3:
		c.Contribution = 1
		c.Reason = fmt.Sprintf("close %.2f above SMA %d/%d/%d", last, s.smaFast, s.smaMid, s.smaSlow)
	case below == 3:
		c.Contribution = -1
		c.Reason = fmt.Sprintf("close %.2f below SMA %d/%d/%d", last, s.smaFast, s.smaMid, s.smaSlow)
	default:
		c.Reason = "close mixed against the moving average stack"
	}
	return c
}

// scoreMACD compares the MACD line against its signal line at the last bar.
func (s *SignalScorer) scoreMACD(bars []models.Bar) analysis.SignalComponent {
	c := analysis.SignalComponent{Rule: "macd"}
	macd, err := indicators.NewMACD(12, 26, 9).Calculate(bars)
	if err != nil {
		c.Reason = "MACD unavailable"
		return c
	}
	n := len(bars) - 1
	line := macd["macd"][n]
	signal := macd["signal"][n]
	switch {
	case line > signal:
		c.Contribution = 1
		c.Reason = fmt.Sprintf("MACD %.3f above signal %.3f", line, signal)
	case line < signal:
		c.Contribution = -1
		c.Reason = fmt.Sprintf("MACD %.3f below signal %.3f", line, signal)
	default:
		c.Reason = "MACD at signal line"
	}
	return c
}

// scoreMomentum reads RSI as momentum confirmation: 40-60 is neutral,
// strength above is bullish continuation, weakness below bearish.
func (s *SignalScorer) scoreMomentum(bars []models.Bar) analysis.SignalComponent {
	c := analysis.SignalComponent{Rule: "momentum"}
	rsi, err := indicators.NewRSI(s.rsiPeriod).Calculate(bars)
	if err != nil {
		c.Reason = fmt.Sprintf("RSI_%d unavailable", s.rsiPeriod)
		return c
	}
	last := rsi[len(rsi)-1]
	switch {
	case last > 60:
		c.Contribution = 1
		c.Reason = fmt.Sprintf("RSI %.1f shows strength", last)
	case last < 40:
		c.Contribution = -1
		c.Reason = fmt.Sprintf("RSI %.1f shows weakness", last)
	default:
		c.Reason = fmt.Sprintf("RSI %.1f neutral", last)
	}
	return c
}

// scoreVolatility reads the close against the Bollinger envelope.
func (s *SignalScorer) scoreVolatility(bars []models.Bar) analysis.SignalComponent {
	c := analysis.SignalComponent{Rule: "volatility"}
	bb, err := indicators.NewBollingerBands(20, 2.0).Calculate(bars)
	if err != nil {
		c.Reason = "Bollinger Bands unavailable"
		return c
	}
	n := len(bars) - 1
	last := bars[n].Close
	upper := bb["upper"][n]
	lower := bb["lower"][n]
	switch {
	case last > upper:
		c.Contribution = 1
		c.Reason = fmt.Sprintf("close %.2f above upper band %.2f", last, upper)
	case last < lower:
		c.Contribution = -1
		c.Reason = fmt.Sprintf("close %.2f below lower band %.2f", last, lower)
	default:
		c.Reason = "close inside Bollinger envelope"
	}
	return c
}

// scoreVolume treats expanded volume as confirmation of the last bar's
// direction. Volume carries no direction of its own: quiet tape scores
// zero, and heavy tape on a flat close scores zero too.
func (s *SignalScorer) scoreVolume(bars []models.Bar) analysis.SignalComponent {
	c := analysis.SignalComponent{Rule: "volume"}
	avg, err := indicators.NewVolumeSMA(s.volumePeriod).Calculate(bars)
	if err != nil {
		c.Reason = fmt.Sprintf("VolumeSMA_%d unavailable", s.volumePeriod)
		return c
	}
	ma := avg[len(avg)-1]
	if ma == 0 {
		c.Reason = "no average volume"
		return c
	}

	n := len(bars) - 1
	ratio := float64(bars[n].Volume) / ma
	if ratio < 1.5 {
		c.Reason = fmt.Sprintf("volume %.1fx average", ratio)
		return c
	}

	prevClose := bars[n].Open
	if n > 0 {
		prevClose = bars[n-1].Close
	}
	switch {
	case bars[n].Close > prevClose:
		c.Contribution = 1
		c.Reason = fmt.Sprintf("volume %.1fx average confirming the up move", ratio)
	case bars[n].Close < prevClose:
		c.Contribution = -1
		c.Reason = fmt.Sprintf("volume %.1fx average confirming the down move", ratio)
	default:
		c.Reason = fmt.Sprintf("volume %.1fx average on a flat close", ratio)
	}
	return c
}

// scoreVWAP leans with the close against the cumulative VWAP of the window.
func (s *SignalScorer) scoreVWAP(bars []models.Bar) analysis.SignalComponent {
	c := analysis.SignalComponent{Rule: "vwap"}
	vwap, err := indicators.NewVWAP().Calculate(bars)
	if err != nil {
		c.Reason = "VWAP unavailable"
		return c
	}
	last := bars[len(bars)-1].Close
	v := vwap[len(vwap)-1]
	switch {
	case last > v:
		c.Contribution = 1
		c.Reason = fmt.Sprintf("close %.2f above VWAP %.2f", last, v)
	case last < v:
		c.Contribution = -1
		c.Reason = fmt.Sprintf("close %.2f below VWAP %.2f", last, v)
	default:
		c.Reason = "close at VWAP"
	}
	return c
}

// scorePatterns reads the detected pattern set. Bullish detections outrank
// bearish only by count.
func (s *SignalScorer) scorePatterns(patterns []analysis.PatternMatch) analysis.SignalComponent {
	c := analysis.SignalComponent{Rule: "pattern"}
	bullish := 0
	bearish := 0
	var names []string
	for _, p := range patterns {
		if !p.Detected {
			continue
		}
		names = append(names, p.Name)
		switch p.Direction {
		case analysis.PatternBullish:
			bullish++
		case analysis.PatternBearish:
			bearish++
		}
	}
	switch {
	case bullish > bearish:
		c.Contribution = 1
		c.Reason = fmt.Sprintf("bullish pattern detected: %v", names)
	case bearish > bullish:
		c.Contribution = -1
		c.Reason = fmt.Sprintf("bearish pattern detected: %v", names)
	case len(names) > 0:
		c.Reason = fmt.Sprintf("mixed patterns: %v", names)
	default:
		c.Reason = "no patterns detected"
	}
	return c
}

// scoreToRecommendation maps a composite score to its band.
func scoreToRecommendation(score int) analysis.SignalRecommendation {
	switch {
	case score >= 4:
		return analysis.StrongBuy
	case score >= 2:
		return analysis.Buy
	case score >= -1:
		return analysis.Hold
	case score >= -3:
		return analysis.Sell
	default:
		return analysis.StrongSell
	}
}

func clamp(value, minVal, maxVal int) int {
	if value < minVal {
		return minVal
	}
	if value > maxVal {
		return maxVal
	}
	return value
}
