// Package patterns detects chart patterns in price data.
package patterns

import (
	"math"

	"stock-analyzer/internal/analysis"
	"stock-analyzer/internal/models"
)

// Detector detects chart patterns in price data. Detection never fails on
// short input: a detector reports Detected=false and fills in whatever it
// could measure.
type Detector struct {
	minPatternBars   int     // minimum bars for pattern formation
	tolerancePercent float64 // tolerance for level matching
	minSwingStrength int     // bars on each side for swing confirmation
	volumeAvgPeriod  int     // lookback for average volume comparisons
}

// NewDetector creates a pattern detector with the standard parameters.
func NewDetector() *Detector {
	return &Detector{
		minPatternBars:   10,
		tolerancePercent: 0.02,
		minSwingStrength: 3,
		volumeAvgPeriod:  50,
	}
}

func (d *Detector) Name() string {
	return "PatternDetector"
}

// SwingPoint represents a swing high or low point.
type SwingPoint struct {
	Index    int
	Price    float64
	IsHigh   bool
	Strength int
}

// DetectAll runs every detector and returns the matches in a fixed order.
func (d *Detector) DetectAll(bars []models.Bar) []analysis.PatternMatch {
	swings := d.findSwingPoints(bars)
	return []analysis.PatternMatch{
		d.DetectCupAndHandle(bars, swings),
		d.DetectHighTightFlag(bars, swings),
		d.DetectAscendingTriangle(bars, swings),
		d.DetectFlatBase(bars, swings),
		d.DetectFallingWedge(bars, swings),
		d.DetectBreakoutVolumeDryUp(bars, swings),
		d.DetectEpisodicPivot(bars, swings),
		d.DetectParabolicShort(bars, swings),
	}
}

// findSwingPoints identifies swing highs and lows in the price data.
func (d *Detector) findSwingPoints(bars []models.Bar) []SwingPoint {
	var swings []SwingPoint
	n := len(bars)

	for i := d.minSwingStrength; i < n-d.minSwingStrength; i++ {
		isSwingHigh := true
		for j := 1; j <= d.minSwingStrength; j++ {
			if bars[i].High <= bars[i-j].High || bars[i].High <= bars[i+j].High {
				isSwingHigh = false
				break
			}
		}
		if isSwingHigh {
			swings = append(swings, SwingPoint{
				Index:    i,
				Price:    bars[i].High,
				IsHigh:   true,
				Strength: d.minSwingStrength,
			})
		}

		isSwingLow := true
		for j := 1; j <= d.minSwingStrength; j++ {
			if bars[i].Low >= bars[i-j].Low || bars[i].Low >= bars[i+j].Low {
				isSwingLow = false
				break
			}
		}
		if isSwingLow {
			swings = append(swings, SwingPoint{
				Index:    i,
				Price:    bars[i].Low,
				IsHigh:   false,
				Strength: d.minSwingStrength,
			})
		}
	}

	return swings
}

// pricesEqual checks whether two prices match within tolerance.
func (d *Detector) pricesEqual(p1, p2 float64) bool {
	if p1 == 0 {
		return p2 == 0
	}
	return math.Abs(p1-p2)/p1 <= d.tolerancePercent
}

// swingHighs returns only swing highs from the swing points.
func (d *Detector) swingHighs(swings []SwingPoint) []SwingPoint {
	var highs []SwingPoint
	for _, s := range swings {
		if s.IsHigh {
			highs = append(highs, s)
		}
	}
	return highs
}

// swingLows returns only swing lows from the swing points.
func (d *Detector) swingLows(swings []SwingPoint) []SwingPoint {
	var lows []SwingPoint
	for _, s := range swings {
		if !s.IsHigh {
			lows = append(lows, s)
		}
	}
	return lows
}

// highestHigh returns the highest high in bars[start:end].
func highestHigh(bars []models.Bar, start, end int) float64 {
	h := bars[start].High
	for i := start + 1; i < end; i++ {
		if bars[i].High > h {
			h = bars[i].High
		}
	}
	return h
}

// lowestLow returns the lowest low in bars[start:end].
func lowestLow(bars []models.Bar, start, end int) float64 {
	l := bars[start].Low
	for i := start + 1; i < end; i++ {
		if bars[i].Low < l {
			l = bars[i].Low
		}
	}
	return l
}

// averageVolume returns the mean volume over bars[start:end].
func averageVolume(bars []models.Bar, start, end int) float64 {
	if end <= start {
		return 0
	}
	var total float64
	for i := start; i < end; i++ {
		total += float64(bars[i].Volume)
	}
	return total / float64(end-start)
}

// trailingAverageVolume returns the mean volume of up to period bars ending
// before index end.
func (d *Detector) trailingAverageVolume(bars []models.Bar, end int) float64 {
	start := end - d.volumeAvgPeriod
	if start < 0 {
		start = 0
	}
	return averageVolume(bars, start, end)
}
