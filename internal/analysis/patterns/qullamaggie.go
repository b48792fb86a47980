package patterns

import (
	"fmt"

	"stock-analyzer/internal/analysis"
	"stock-analyzer/internal/analysis/indicators"
	"stock-analyzer/internal/models"
)

const (
	PatternBreakoutVDU    = "Breakout with Volume Dry-Up"
	PatternEpisodicPivot  = "Episodic Pivot"
	PatternParabolicShort = "Parabolic Short"
)

// DetectBreakoutVolumeDryUp detects a tightening range whose volume dries up
// and which then breaks out above the range high on renewed volume.
func (d *Detector) DetectBreakoutVolumeDryUp(bars []models.Bar, swings []SwingPoint) analysis.PatternMatch {
	const (
		rangeBars     = 20
		dryUpBars     = 5
		dryUpRatio    = 0.5
		breakoutRatio = 1.0
	)

	match := analysis.NewPatternMatch(PatternBreakoutVDU, analysis.PatternBullish)
	n := len(bars)
	if n < rangeBars+dryUpBars+1 {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "series too short for breakout setup")
		return match
	}

	last := bars[n-1]
	rangeEnd := n - 1
	rangeStart := rangeEnd - rangeBars
	rangeHigh := highestHigh(bars, rangeStart, rangeEnd)
	rangeLow := lowestLow(bars, rangeStart, rangeEnd)

	avgVol := d.trailingAverageVolume(bars, rangeEnd)
	dryVol := averageVolume(bars, rangeEnd-dryUpBars, rangeEnd)

	match.KeyLevels["range_high"] = rangeHigh
	match.KeyLevels["range_low"] = rangeLow
	if rangeHigh > 0 {
		match.MeasuredMetrics["range_pct"] = (rangeHigh - rangeLow) / rangeHigh * 100
	}
	if avgVol > 0 {
		match.MeasuredMetrics["dry_up_ratio"] = dryVol / avgVol
		match.MeasuredMetrics["breakout_volume_ratio"] = float64(last.Volume) / avgVol
	}

	if avgVol == 0 {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "no volume history")
		return match
	}
	if dryVol/avgVol > dryUpRatio {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "volume did not dry up in the range")
		return match
	}
	if last.Close <= rangeHigh {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "no close above range high yet")
		return match
	}
	if float64(last.Volume) < avgVol*breakoutRatio {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "breakout volume below baseline")
		return match
	}

	match.Detected = true
	match.KeyLevels["breakout"] = rangeHigh
	match.KeyLevels["stop"] = rangeLow
	match.ConfidenceNotes = append(match.ConfidenceNotes,
		fmt.Sprintf("dry-up to %.0f%% of average, breakout on %.1fx volume",
			dryVol/avgVol*100, float64(last.Volume)/avgVol))
	return match
}

// DetectEpisodicPivot detects a gap up on extreme volume after a quiet
// period, with the close holding the gains of the open.
func (d *Detector) DetectEpisodicPivot(bars []models.Bar, swings []SwingPoint) analysis.PatternMatch {
	const (
		minGap      = 0.02
		minVolRatio = 10.0
		quietBars   = 90
	)

	match := analysis.NewPatternMatch(PatternEpisodicPivot, analysis.PatternBullish)
	n := len(bars)
	if n < 2 {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "series too short for gap analysis")
		return match
	}

	last := bars[n-1]
	prev := bars[n-2]
	gap := (last.Open - prev.Close) / prev.Close
	match.MeasuredMetrics["gap_pct"] = gap * 100

	avgVol := d.trailingAverageVolume(bars, n-1)
	if avgVol > 0 {
		match.MeasuredMetrics["volume_ratio"] = float64(last.Volume) / avgVol
	}

	if gap < minGap {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "no qualifying gap on the last bar")
		return match
	}
	if avgVol == 0 || float64(last.Volume) < avgVol*minVolRatio {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "gap without volume expansion")
		return match
	}
	if last.Close < last.Open {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "gap faded below the open")
		return match
	}

	// A quiet base: no comparable gap in the preceding window
	start := n - 1 - quietBars
	if start < 1 {
		start = 1
	}
	for i := start; i < n-1; i++ {
		g := (bars[i].Open - bars[i-1].Close) / bars[i-1].Close
		if g >= minGap {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "recent history already gapped")
			return match
		}
	}

	match.Detected = true
	match.KeyLevels["gap_open"] = last.Open
	match.KeyLevels["prior_close"] = prev.Close
	match.KeyLevels["day_low_stop"] = last.Low
	match.ConfidenceNotes = append(match.ConfidenceNotes,
		fmt.Sprintf("gap +%.1f%% on %.1fx volume, holding the open after quiet base",
			gap*100, float64(last.Volume)/avgVol))
	return match
}

// DetectParabolicShort detects a vertical advance stretched far above its
// short moving averages that has just printed its first reversal bar.
func (d *Detector) DetectParabolicShort(bars []models.Bar, swings []SwingPoint) analysis.PatternMatch {
	const (
		advanceBars  = 20
		emaFast      = 10
		emaSlow      = 20
		minExtension = 0.15
	)

	match := analysis.NewPatternMatch(PatternParabolicShort, analysis.PatternBearish)
	n := len(bars)
	if n < advanceBars+2 {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "series too short for parabolic analysis")
		return match
	}

	last := bars[n-1]
	prev := bars[n-2]

	windowLow := lowestLow(bars, n-1-advanceBars, n-1)
	advance := (prev.High - windowLow) / windowLow
	match.MeasuredMetrics["advance_pct"] = advance * 100

	// Count consecutive up closes ending at the bar before last
	streak := 0
	for i := n - 2; i > 0; i-- {
		if bars[i].Close > bars[i-1].Close {
			streak++
		} else {
			break
		}
	}
	match.MeasuredMetrics["up_streak"] = float64(streak)

	fast, errFast := indicators.NewEMA(emaFast).Calculate(bars)
	slow, errSlow := indicators.NewEMA(emaSlow).Calculate(bars)
	if errFast != nil || errSlow != nil {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "moving averages unavailable")
		return match
	}
	extFast := prev.Close/fast[n-2] - 1
	extSlow := prev.Close/slow[n-2] - 1
	match.MeasuredMetrics["ema_10_extension_pct"] = extFast * 100
	match.MeasuredMetrics["ema_20_extension_pct"] = extSlow * 100

	if extFast < minExtension || extSlow < minExtension {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "close not extended above moving averages")
		return match
	}
	if last.Close >= prev.Low {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "no reversal bar yet")
		return match
	}

	match.Detected = true
	match.KeyLevels["reversal_high"] = prev.High
	match.KeyLevels["reversal_close"] = last.Close
	match.KeyLevels["cover_zone"] = windowLow + (prev.High-windowLow)*0.5
	match.ConfidenceNotes = append(match.ConfidenceNotes,
		fmt.Sprintf("close %.0f%%/%.0f%% above the %d/%d EMA, reversal below prior low",
			extFast*100, extSlow*100, emaFast, emaSlow))
	return match
}
