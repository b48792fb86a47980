// Package levels identifies horizontal support/resistance, trend lines,
// consolidation zones, and Fibonacci levels in a bar series.
package levels

import (
	"math"
	"sort"

	"stock-analyzer/internal/analysis"
	"stock-analyzer/internal/models"
)

// Analyzer identifies price levels in a series.
type Analyzer struct {
	pivotStrength    int     // bars on each side for pivot confirmation
	clusterTolerance float64 // fractional tolerance for merging levels
	minTouches       int
	maxLevels        int // per side
	maxTrendLines    int // per direction
}

// NewAnalyzer creates a level analyzer with the standard parameters.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		pivotStrength:    2,
		clusterTolerance: 0.02,
		minTouches:       1,
		maxLevels:        5,
		maxTrendLines:    3,
	}
}

func (a *Analyzer) Name() string {
	return "LevelAnalyzer"
}

// Result contains all identified levels.
type Result struct {
	Support       []analysis.Level     `json:"support"`
	Resistance    []analysis.Level     `json:"resistance"`
	TrendLines    []analysis.TrendLine `json:"trend_lines"`
	Consolidation []Zone               `json:"consolidation_zones"`
	Fibonacci     Fibonacci            `json:"fibonacci"`
}

// Zone is a low-volatility consolidation range.
type Zone struct {
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Breakout   string  `json:"breakout"` // "up", "down", or "none"
}

// Fibonacci holds retracement and extension levels over the series swing.
type Fibonacci struct {
	SwingHigh    float64            `json:"swing_high"`
	SwingLow     float64            `json:"swing_low"`
	Retracements map[string]float64 `json:"retracements"`
	Extensions   map[string]float64 `json:"extensions"`
}

type pivot struct {
	index int
	price float64
}

// Analyze runs the full level study. Short series yield a partial result
// rather than an error.
func (a *Analyzer) Analyze(bars []models.Bar) *Result {
	result := &Result{}
	if len(bars) < a.pivotStrength*2+1 {
		return result
	}

	highPivots, lowPivots := a.findPivots(bars)

	result.Resistance = a.clusterLevels(highPivots, bars, analysis.LevelResistance)
	result.Support = a.clusterLevels(lowPivots, bars, analysis.LevelSupport)
	result.TrendLines = a.findTrendLines(bars, highPivots, lowPivots)
	result.Consolidation = a.findConsolidationZones(bars)
	result.Fibonacci = computeFibonacci(bars)

	return result
}

// findPivots locates local extrema confirmed by pivotStrength bars on each side.
func (a *Analyzer) findPivots(bars []models.Bar) (highs, lows []pivot) {
	n := len(bars)
	for i := a.pivotStrength; i < n-a.pivotStrength; i++ {
		isHigh := true
		isLow := true
		for j := 1; j <= a.pivotStrength; j++ {
			if bars[i].High <= bars[i-j].High || bars[i].High <= bars[i+j].High {
				isHigh = false
			}
			if bars[i].Low >= bars[i-j].Low || bars[i].Low >= bars[i+j].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, pivot{i, bars[i].High})
		}
		if isLow {
			lows = append(lows, pivot{i, bars[i].Low})
		}
	}
	return highs, lows
}

// clusterLevels merges nearby pivots, counts touches across the whole
// series, and keeps the strongest levels sorted by price.
func (a *Analyzer) clusterLevels(pivots []pivot, bars []models.Bar, levelType analysis.LevelType) []analysis.Level {
	if len(pivots) == 0 {
		return nil
	}

	sorted := make([]pivot, len(pivots))
	copy(sorted, pivots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].price < sorted[j].price })

	var clusters []float64
	current := sorted[0].price
	count := 1
	for _, p := range sorted[1:] {
		if math.Abs(p.price-current)/current <= a.clusterTolerance {
			current = (current*float64(count) + p.price) / float64(count+1)
			count++
		} else {
			clusters = append(clusters, current)
			current = p.price
			count = 1
		}
	}
	clusters = append(clusters, current)

	var out []analysis.Level
	for _, price := range clusters {
		touches := a.countTouches(bars, price, levelType)
		if touches < a.minTouches {
			continue
		}
		strength := float64(touches) * 0.5
		if strength > 3 {
			strength = 3
		}
		out = append(out, analysis.Level{
			Price:      price,
			Type:       levelType,
			Strength:   strength,
			TouchCount: touches,
			Source:     "pivot",
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Strength > out[j].Strength })
	if len(out) > a.maxLevels {
		out = out[:a.maxLevels]
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out
}

// countTouches counts bars whose relevant extreme came within tolerance of the level.
func (a *Analyzer) countTouches(bars []models.Bar, price float64, levelType analysis.LevelType) int {
	tolerance := price * a.clusterTolerance
	touches := 0
	for _, bar := range bars {
		ref := bar.Low
		if levelType == analysis.LevelResistance {
			ref = bar.High
		}
		if math.Abs(ref-price) <= tolerance {
			touches++
		}
	}
	return touches
}

// findTrendLines fits lines through swing-point pairs and keeps those the
// market respected at least twice, the best few per direction.
func (a *Analyzer) findTrendLines(bars []models.Bar, highPivots, lowPivots []pivot) []analysis.TrendLine {
	n := len(bars)
	var out []analysis.TrendLine

	resistance := a.linesThrough(bars, highPivots, analysis.LevelResistance)
	support := a.linesThrough(bars, lowPivots, analysis.LevelSupport)

	sort.Slice(resistance, func(i, j int) bool { return resistance[i].TouchCount > resistance[j].TouchCount })
	sort.Slice(support, func(i, j int) bool { return support[i].TouchCount > support[j].TouchCount })

	if len(resistance) > a.maxTrendLines {
		resistance = resistance[:a.maxTrendLines]
	}
	if len(support) > a.maxTrendLines {
		support = support[:a.maxTrendLines]
	}

	out = append(out, resistance...)
	out = append(out, support...)
	for i := range out {
		out[i].CurrentValue = out[i].ValueAt(n - 1)
	}
	return out
}

func (a *Analyzer) linesThrough(bars []models.Bar, pivots []pivot, levelType analysis.LevelType) []analysis.TrendLine {
	var lines []analysis.TrendLine
	for i := 0; i < len(pivots); i++ {
		for j := i + 1; j < len(pivots); j++ {
			run := float64(pivots[j].index - pivots[i].index)
			if run == 0 {
				continue
			}
			slope := (pivots[j].price - pivots[i].price) / run
			intercept := pivots[i].price - slope*float64(pivots[i].index)

			line := analysis.TrendLine{
				Slope:      slope,
				Intercept:  intercept,
				Type:       levelType,
				StartIndex: pivots[i].index,
				EndIndex:   pivots[j].index,
			}
			line.TouchCount = a.countLineTouches(bars, line)
			if line.TouchCount >= 2 {
				lines = append(lines, line)
			}
		}
	}
	return lines
}

func (a *Analyzer) countLineTouches(bars []models.Bar, line analysis.TrendLine) int {
	touches := 0
	for i := line.StartIndex; i < len(bars); i++ {
		linePrice := line.ValueAt(i)
		if linePrice <= 0 {
			continue
		}
		tolerance := linePrice * a.clusterTolerance
		ref := bars[i].Low
		if line.Type == analysis.LevelResistance {
			ref = bars[i].High
		}
		if math.Abs(ref-linePrice) <= tolerance {
			touches++
		}
	}
	return touches
}

// findConsolidationZones scans for runs where the rolling volatility of
// closes sits in the quietest third of its own distribution, the run lasts
// at least ten bars, and the price range stays within three percent. A zone
// is marked broken out when price leaves it by two percent within five bars.
func (a *Analyzer) findConsolidationZones(bars []models.Bar) []Zone {
	const (
		window        = 20
		minZoneLen    = 10
		quietQuantile = 0.3
		maxZoneRange  = 0.03
		breakoutMove  = 0.02
		breakoutScan  = 5
	)

	n := len(bars)
	if n < window+minZoneLen {
		return nil
	}

	closes := models.Closes(bars)
	ratios := make([]float64, n)
	for i := window - 1; i < n; i++ {
		w := closes[i-window+1 : i+1]
		m := meanOf(w)
		if m == 0 {
			continue
		}
		ratios[i] = stdDevOf(w, m) / m
	}

	defined := make([]float64, 0, n-window+1)
	for i := window - 1; i < n; i++ {
		defined = append(defined, ratios[i])
	}
	sort.Float64s(defined)
	threshold := defined[int(quietQuantile*float64(len(defined)-1))]

	var zones []Zone
	start := -1
	for i := window - 1; i <= n; i++ {
		quiet := i < n && ratios[i] <= threshold
		if quiet && start < 0 {
			start = i
		}
		if (!quiet || i == n) && start >= 0 {
			end := i - 1
			if end-start+1 >= minZoneLen {
				zone := buildZone(bars, start, end, maxZoneRange, breakoutMove, breakoutScan)
				if zone != nil {
					zones = append(zones, *zone)
				}
			}
			start = -1
		}
	}
	return zones
}

func buildZone(bars []models.Bar, start, end int, maxRange, breakoutMove float64, scan int) *Zone {
	high := bars[start].High
	low := bars[start].Low
	for i := start + 1; i <= end; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	mid := (high + low) / 2
	if mid == 0 || (high-low)/mid > maxRange {
		return nil
	}

	zone := &Zone{
		StartIndex: start,
		EndIndex:   end,
		High:       high,
		Low:        low,
		Breakout:   "none",
	}
	for i := end + 1; i <= end+scan && i < len(bars); i++ {
		if bars[i].Close >= high*(1+breakoutMove) {
			zone.Breakout = "up"
			break
		}
		if bars[i].Close <= low*(1-breakoutMove) {
			zone.Breakout = "down"
			break
		}
	}
	return zone
}

// computeFibonacci derives retracement and extension levels from the
// full-series swing.
func computeFibonacci(bars []models.Bar) Fibonacci {
	high := bars[0].High
	low := bars[0].Low
	for _, bar := range bars[1:] {
		if bar.High > high {
			high = bar.High
		}
		if bar.Low < low {
			low = bar.Low
		}
	}
	diff := high - low

	retracements := map[string]float64{
		"0.236": high - 0.236*diff,
		"0.382": high - 0.382*diff,
		"0.500": high - 0.500*diff,
		"0.618": high - 0.618*diff,
		"0.786": high - 0.786*diff,
	}
	extensions := map[string]float64{
		"1.272": low + 1.272*diff,
		"1.414": low + 1.414*diff,
		"1.618": low + 1.618*diff,
		"2.000": low + 2.000*diff,
		"2.618": low + 2.618*diff,
	}

	return Fibonacci{
		SwingHigh:    high,
		SwingLow:     low,
		Retracements: retracements,
		Extensions:   extensions,
	}
}

// NearestLevels returns the closest support below and resistance above the price.
func NearestLevels(result *Result, price float64) (support, resistance *analysis.Level) {
	if result == nil {
		return nil, nil
	}
	minSupportDist := math.MaxFloat64
	minResistanceDist := math.MaxFloat64

	for i := range result.Support {
		level := &result.Support[i]
		if level.Price < price && price-level.Price < minSupportDist {
			minSupportDist = price - level.Price
			support = level
		}
	}
	for i := range result.Resistance {
		level := &result.Resistance[i]
		if level.Price > price && level.Price-price < minResistanceDist {
			minResistanceDist = level.Price - price
			resistance = level
		}
	}
	return support, resistance
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

func stdDevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
