package patterns

import (
	"fmt"

	"stock-analyzer/internal/analysis"
	"stock-analyzer/internal/models"
)

// Pattern names reported in match results.
const (
	PatternCupAndHandle      = "Cup and Handle"
	PatternHighTightFlag     = "High Tight Flag"
	PatternAscendingTriangle = "Ascending Triangle"
	PatternFlatBase          = "Flat Base"
	PatternFallingWedge      = "Falling Wedge"
)

// DetectCupAndHandle detects a cup (rounded correction between two rims at
// similar levels) followed by a shallow handle in the upper half of the
// cup, completed by a breakout bar closing above the handle high on heavy
// volume.
func (d *Detector) DetectCupAndHandle(bars []models.Bar, swings []SwingPoint) analysis.PatternMatch {
	const (
		minCupBars       = 35
		minDepth         = 0.12
		maxDepth         = 0.33
		minHandleBars    = 5
		maxHandleBars    = 20
		maxHandleRange   = 0.15
		breakoutVolRatio = 3.0
	)

	match := analysis.NewPatternMatch(PatternCupAndHandle, analysis.PatternBullish)
	n := len(bars)
	if n < d.minPatternBars {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "series too short for cup formation")
		return match
	}

	lows := d.swingLows(swings)
	highs := d.swingHighs(swings)
	if len(lows) < 1 || len(highs) < 2 {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "not enough swing points")
		return match
	}

	for i := len(lows) - 1; i >= 0; i-- {
		cupLow := lows[i]

		// Rims are the nearest swing highs on either side of the cup low
		var leftRim, rightRim *SwingPoint
		for j := range highs {
			if highs[j].Index < cupLow.Index {
				if leftRim == nil || highs[j].Index > leftRim.Index {
					leftRim = &highs[j]
				}
			}
			if highs[j].Index > cupLow.Index {
				if rightRim == nil || highs[j].Index < rightRim.Index {
					rightRim = &highs[j]
				}
			}
		}
		if leftRim == nil || rightRim == nil {
			continue
		}

		cupDepth := leftRim.Price - cupLow.Price
		cupWidth := rightRim.Index - leftRim.Index
		depthPct := cupDepth / leftRim.Price

		match.MeasuredMetrics["cup_depth_pct"] = depthPct * 100
		match.MeasuredMetrics["cup_width_bars"] = float64(cupWidth)
		match.KeyLevels["cup_low"] = cupLow.Price
		match.KeyLevels["left_rim"] = leftRim.Price
		match.KeyLevels["right_rim"] = rightRim.Price

		if !d.pricesEqual(leftRim.Price, rightRim.Price) {
			continue
		}
		if cupWidth < minCupBars {
			continue
		}
		if depthPct < minDepth || depthPct > maxDepth {
			continue
		}

		// Handle: the bars between the right rim and the last bar. The
		// last bar itself is the breakout candidate.
		handleStart := rightRim.Index + 1
		handleEnd := n - 1
		handleBars := handleEnd - handleStart
		match.MeasuredMetrics["handle_bars"] = float64(handleBars)
		if handleBars < minHandleBars || handleBars > maxHandleBars {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "cup formed but no qualifying handle")
			continue
		}

		handleHigh := highestHigh(bars, handleStart, handleEnd)
		handleLow := lowestLow(bars, handleStart, handleEnd)
		handleRange := (handleHigh - handleLow) / handleHigh
		match.MeasuredMetrics["handle_range_pct"] = handleRange * 100
		match.KeyLevels["handle_high"] = handleHigh
		match.KeyLevels["handle_low"] = handleLow

		if handleRange > maxHandleRange {
			continue
		}
		if handleLow < cupLow.Price+cupDepth/2 {
			continue
		}

		cupVol := averageVolume(bars, leftRim.Index, rightRim.Index+1)
		handleVol := averageVolume(bars, handleStart, handleEnd)
		if cupVol > 0 {
			match.MeasuredMetrics["handle_volume_ratio"] = handleVol / cupVol
		}
		if handleVol >= cupVol {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "handle volume did not contract")
			continue
		}

		breakout := bars[n-1]
		volMultiple := 0.0
		if handleVol > 0 {
			volMultiple = float64(breakout.Volume) / handleVol
			match.MeasuredMetrics["breakout_volume_multiple"] = volMultiple
		}
		if breakout.Close <= handleHigh {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "no close above handle high yet")
			continue
		}
		if volMultiple < breakoutVolRatio {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "breakout volume below threshold")
			continue
		}

		match.Detected = true
		match.KeyLevels["buy_point"] = handleHigh
		match.KeyLevels["measured_move"] = rightRim.Price + cupDepth
		match.ConfidenceNotes = append(match.ConfidenceNotes,
			fmt.Sprintf("cup %d bars deep %.1f%%, handle %d bars, breakout on %.1fx handle volume",
				cupWidth, depthPct*100, handleBars, volMultiple))
		return match
	}

	return match
}

// DetectHighTightFlag detects a sharp advance followed by a brief, shallow
// correction on contracting volume, completed by a breakout bar above the
// flag high.
func (d *Detector) DetectHighTightFlag(bars []models.Bar, swings []SwingPoint) analysis.PatternMatch {
	const (
		minPoleGain = 0.20
		maxPoleBars = 40
		maxFlagDrop = 0.15
		minFlagBars = 15
		maxFlagBars = 25
	)

	match := analysis.NewPatternMatch(PatternHighTightFlag, analysis.PatternBullish)
	n := len(bars)
	if n < d.minPatternBars {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "series too short for flag formation")
		return match
	}

	// Walk candidate flag lengths; the last bar is the breakout candidate.
	for flagBars := minFlagBars; flagBars <= maxFlagBars && flagBars < n-2; flagBars++ {
		flagStart := n - 1 - flagBars
		if flagStart < 1 {
			break
		}
		flagHigh := highestHigh(bars, flagStart, n-1)
		flagLow := lowestLow(bars, flagStart, n-1)

		// Pole: net gain from the window low in the trailing weeks before
		// the flag up to the flag high.
		poleStart := flagStart - maxPoleBars
		if poleStart < 0 {
			poleStart = 0
		}
		poleLow := lowestLow(bars, poleStart, flagStart)
		if poleLow <= 0 {
			continue
		}
		gain := (flagHigh - poleLow) / poleLow
		if gain > match.MeasuredMetrics["pole_gain_pct"]/100 {
			match.MeasuredMetrics["pole_gain_pct"] = gain * 100
			match.MeasuredMetrics["flag_bars"] = float64(flagBars)
		}
		if gain < minPoleGain {
			continue
		}

		drop := (flagHigh - flagLow) / flagHigh
		match.MeasuredMetrics["flag_drop_pct"] = drop * 100
		if drop > maxFlagDrop {
			continue
		}

		poleVol := averageVolume(bars, poleStart, flagStart)
		flagVol := averageVolume(bars, flagStart, n-1)
		if poleVol > 0 {
			match.MeasuredMetrics["flag_volume_ratio"] = flagVol / poleVol
		}
		if poleVol > 0 && flagVol >= poleVol {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "flag volume not contracting")
			continue
		}

		breakout := bars[n-1]
		if breakout.Close <= flagHigh {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "no close above flag high yet")
			continue
		}

		match.Detected = true
		match.KeyLevels["pole_low"] = poleLow
		match.KeyLevels["flag_high"] = flagHigh
		match.KeyLevels["flag_low"] = flagLow
		match.KeyLevels["buy_point"] = flagHigh
		match.ConfidenceNotes = append(match.ConfidenceNotes,
			fmt.Sprintf("pole +%.0f%% then %d-bar flag -%.1f%%, breakout above %.2f",
				gain*100, flagBars, drop*100, flagHigh))
		return match
	}

	return match
}

// DetectAscendingTriangle detects flat resistance with rising swing lows.
func (d *Detector) DetectAscendingTriangle(bars []models.Bar, swings []SwingPoint) analysis.PatternMatch {
	match := analysis.NewPatternMatch(PatternAscendingTriangle, analysis.PatternBullish)
	if len(bars) < d.minPatternBars {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "series too short for triangle formation")
		return match
	}

	highs := d.swingHighs(swings)
	lows := d.swingLows(swings)
	if len(highs) < 2 || len(lows) < 2 {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "not enough swing points")
		return match
	}

	for i := len(highs) - 1; i >= 1; i-- {
		if !d.pricesEqual(highs[i].Price, highs[i-1].Price) {
			continue
		}

		resistance := highs[i].Price
		startIdx := highs[i-1].Index
		endIdx := highs[i].Index

		var patternLows []SwingPoint
		for _, low := range lows {
			if low.Index >= startIdx && low.Index <= endIdx {
				patternLows = append(patternLows, low)
			}
		}
		if len(patternLows) < 2 {
			continue
		}

		rising := true
		for j := 1; j < len(patternLows); j++ {
			if patternLows[j].Price <= patternLows[j-1].Price {
				rising = false
				break
			}
		}

		height := resistance - patternLows[0].Price
		match.KeyLevels["resistance"] = resistance
		match.MeasuredMetrics["pattern_bars"] = float64(endIdx - startIdx)
		match.MeasuredMetrics["height"] = height
		match.MeasuredMetrics["resistance_touches"] = 2

		if !rising {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "flat resistance but lows not rising")
			continue
		}

		match.Detected = true
		match.KeyLevels["breakout"] = resistance * (1 + d.tolerancePercent/2)
		match.KeyLevels["first_low"] = patternLows[0].Price
		match.KeyLevels["measured_move"] = resistance + height
		match.ConfidenceNotes = append(match.ConfidenceNotes,
			fmt.Sprintf("flat resistance %.2f with %d rising lows", resistance, len(patternLows)))
		return match
	}

	return match
}

// DetectFlatBase detects a long tight range following an advance.
func (d *Detector) DetectFlatBase(bars []models.Bar, swings []SwingPoint) analysis.PatternMatch {
	const (
		minBaseBars  = 25
		maxBaseRange = 0.15
		minPriorGain = 0.20
	)

	match := analysis.NewPatternMatch(PatternFlatBase, analysis.PatternBullish)
	n := len(bars)
	if n < minBaseBars+d.minPatternBars {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "series too short for base formation")
		return match
	}

	baseStart := n - minBaseBars
	baseHigh := highestHigh(bars, baseStart, n)
	baseLow := lowestLow(bars, baseStart, n)
	baseRange := (baseHigh - baseLow) / baseHigh

	match.KeyLevels["base_high"] = baseHigh
	match.KeyLevels["base_low"] = baseLow
	match.MeasuredMetrics["base_bars"] = float64(minBaseBars)
	match.MeasuredMetrics["base_range_pct"] = baseRange * 100

	priorLow := lowestLow(bars, 0, baseStart)
	if priorLow > 0 {
		priorGain := (baseHigh - priorLow) / priorLow
		match.MeasuredMetrics["prior_gain_pct"] = priorGain * 100
		if priorGain < minPriorGain {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "no meaningful advance before base")
			return match
		}
	}

	if baseRange > maxBaseRange {
		match.ConfidenceNotes = append(match.ConfidenceNotes,
			fmt.Sprintf("range %.1f%% too wide for a flat base", baseRange*100))
		return match
	}

	match.Detected = true
	match.KeyLevels["buy_point"] = baseHigh * (1 + d.tolerancePercent/2)
	match.ConfidenceNotes = append(match.ConfidenceNotes,
		fmt.Sprintf("%d-bar base with %.1f%% range", minBaseBars, baseRange*100))
	return match
}

// DetectFallingWedge detects lower highs and lower lows converging downward,
// a bullish reversal. At least three swing touches on each trendline.
func (d *Detector) DetectFallingWedge(bars []models.Bar, swings []SwingPoint) analysis.PatternMatch {
	const minTouches = 3

	match := analysis.NewPatternMatch(PatternFallingWedge, analysis.PatternBullish)
	if len(bars) < d.minPatternBars {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "series too short for wedge formation")
		return match
	}

	highs := d.swingHighs(swings)
	lows := d.swingLows(swings)
	if len(highs) < minTouches || len(lows) < minTouches {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "not enough swing points")
		return match
	}

	wedgeLows := lows[len(lows)-minTouches:]
	wedgeHighs := highs[len(highs)-minTouches:]
	match.MeasuredMetrics["low_touches"] = float64(len(wedgeLows))
	match.MeasuredMetrics["high_touches"] = float64(len(wedgeHighs))

	for j := 1; j < minTouches; j++ {
		if wedgeLows[j].Price >= wedgeLows[j-1].Price {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "swing lows not making lower lows")
			return match
		}
		if wedgeHighs[j].Price >= wedgeHighs[j-1].Price {
			match.ConfidenceNotes = append(match.ConfidenceNotes, "swing highs not making lower highs")
			return match
		}
	}

	// The two trendlines must cover overlapping stretches of the series.
	if wedgeHighs[0].Index >= wedgeLows[minTouches-1].Index ||
		wedgeLows[0].Index >= wedgeHighs[minTouches-1].Index {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "trendline touches do not overlap")
		return match
	}

	firstLow := wedgeLows[0]
	lastLow := wedgeLows[minTouches-1]
	firstHigh := wedgeHighs[0]
	lastHigh := wedgeHighs[minTouches-1]

	lowSlope := (lastLow.Price - firstLow.Price) / float64(lastLow.Index-firstLow.Index)
	highSlope := (lastHigh.Price - firstHigh.Price) / float64(lastHigh.Index-firstHigh.Index)

	match.MeasuredMetrics["low_slope"] = lowSlope
	match.MeasuredMetrics["high_slope"] = highSlope
	match.MeasuredMetrics["pattern_bars"] = float64(lastLow.Index - firstHigh.Index)

	// Converging: the upper line falls faster than the lower line
	if lowSlope <= highSlope {
		match.ConfidenceNotes = append(match.ConfidenceNotes, "trendlines not converging")
		return match
	}

	height := lastHigh.Price - lastLow.Price
	match.Detected = true
	match.KeyLevels["upper_trendline"] = lastHigh.Price
	match.KeyLevels["wedge_low"] = lastLow.Price
	match.KeyLevels["breakout"] = lastHigh.Price * (1 + d.tolerancePercent/2)
	match.KeyLevels["measured_move"] = lastHigh.Price + height
	match.ConfidenceNotes = append(match.ConfidenceNotes,
		fmt.Sprintf("%d lower highs against %d lower lows, converging", minTouches, minTouches))
	return match
}
