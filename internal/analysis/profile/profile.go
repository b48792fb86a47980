// Package profile builds a volume-at-price histogram over a bar series and
// derives the point of control, value area, and volume node classifications.
package profile

import (
	"math"
	"sort"

	apperrors "stock-analyzer/internal/errors"
	"stock-analyzer/internal/models"
)

const (
	// DefaultBinCount is the number of price bins when none is configured.
	DefaultBinCount = 24
	// DefaultValueAreaFraction is the share of total volume the value area covers.
	DefaultValueAreaFraction = 0.70

	singlePrintFraction = 0.3
)

// Bin is one price bucket of the profile.
type Bin struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	Midpoint float64 `json:"midpoint"`
	Volume   float64 `json:"volume"`
}

// Result is the computed volume profile.
type Result struct {
	Bins              []Bin     `json:"bins"`
	TotalVolume       float64   `json:"total_volume"`
	POC               float64   `json:"poc"`
	POCIndex          int       `json:"poc_index"`
	ValueAreaHigh     float64   `json:"value_area_high"`
	ValueAreaLow      float64   `json:"value_area_low"`
	ValueAreaVolume   float64   `json:"value_area_volume"`
	HighVolumeNodes   []float64 `json:"high_volume_nodes"`
	LowVolumeNodes    []float64 `json:"low_volume_nodes"`
	SinglePrints      []float64 `json:"single_prints"`
}

// Builder computes volume profiles with a fixed bin count and value area fraction.
type Builder struct {
	binCount          int
	valueAreaFraction float64
}

// NewBuilder creates a profile builder. Non-positive or out-of-range
// arguments fall back to the defaults.
func NewBuilder(binCount int, valueAreaFraction float64) *Builder {
	if binCount <= 0 {
		binCount = DefaultBinCount
	}
	if valueAreaFraction <= 0 || valueAreaFraction > 1 {
		valueAreaFraction = DefaultValueAreaFraction
	}
	return &Builder{
		binCount:          binCount,
		valueAreaFraction: valueAreaFraction,
	}
}

func (b *Builder) Name() string {
	return "VolumeProfile"
}

// Build computes the volume profile of the series. Each bar's volume is
// spread across the bins its high-low range overlaps, proportionally to
// the overlap, so total bin volume equals total bar volume.
func (b *Builder) Build(bars []models.Bar) (*Result, error) {
	if len(bars) < 2 {
		return nil, apperrors.NewInsufficientDataError("VolumeProfile", 2, len(bars))
	}

	minPrice := bars[0].Low
	maxPrice := bars[0].High
	for _, bar := range bars[1:] {
		if bar.Low < minPrice {
			minPrice = bar.Low
		}
		if bar.High > maxPrice {
			maxPrice = bar.High
		}
	}
	if maxPrice <= minPrice {
		return nil, apperrors.NewInsufficientDataError("VolumeProfile", 2, len(bars))
	}

	binSize := (maxPrice - minPrice) / float64(b.binCount)
	bins := make([]Bin, b.binCount)
	for i := range bins {
		bins[i] = Bin{
			Low:      minPrice + float64(i)*binSize,
			High:     minPrice + float64(i+1)*binSize,
			Midpoint: minPrice + (float64(i)+0.5)*binSize,
		}
	}

	var totalVolume float64
	for _, bar := range bars {
		vol := float64(bar.Volume)
		totalVolume += vol

		barRange := bar.High - bar.Low
		if barRange == 0 {
			bins[b.binIndex(bar.Close, minPrice, binSize)].Volume += vol
			continue
		}

		lo := b.binIndex(bar.Low, minPrice, binSize)
		hi := b.binIndex(bar.High, minPrice, binSize)
		for i := lo; i <= hi; i++ {
			overlap := math.Min(bar.High, bins[i].High) - math.Max(bar.Low, bins[i].Low)
			if overlap > 0 {
				bins[i].Volume += vol * overlap / barRange
			}
		}
	}

	if totalVolume == 0 {
		return nil, apperrors.NewInsufficientDataError("VolumeProfile", 2, len(bars))
	}

	result := &Result{
		Bins:        bins,
		TotalVolume: totalVolume,
	}

	lastClose := bars[len(bars)-1].Close
	result.POCIndex = pocIndex(bins, lastClose)
	result.POC = bins[result.POCIndex].Midpoint

	b.growValueArea(result)
	classifyNodes(result)

	return result, nil
}

// binIndex maps a price onto a bin, closing the right edge into the top bin.
func (b *Builder) binIndex(price, minPrice, binSize float64) int {
	idx := int((price - minPrice) / binSize)
	if idx < 0 {
		idx = 0
	}
	if idx >= b.binCount {
		idx = b.binCount - 1
	}
	return idx
}

// pocIndex picks the highest-volume bin, resolving ties toward the bin
// whose midpoint is closest to the last close, then the lower index.
func pocIndex(bins []Bin, lastClose float64) int {
	best := 0
	for i := 1; i < len(bins); i++ {
		if bins[i].Volume > bins[best].Volume {
			best = i
			continue
		}
		if bins[i].Volume == bins[best].Volume {
			if math.Abs(bins[i].Midpoint-lastClose) < math.Abs(bins[best].Midpoint-lastClose) {
				best = i
			}
		}
	}
	return best
}

// growValueArea expands outward from the POC, absorbing whichever adjacent
// bin has more volume, until the configured fraction of total volume is covered.
func (b *Builder) growValueArea(r *Result) {
	lowIdx := r.POCIndex
	highIdx := r.POCIndex
	covered := r.Bins[r.POCIndex].Volume
	target := r.TotalVolume * b.valueAreaFraction

	for covered < target {
		belowOK := lowIdx > 0
		aboveOK := highIdx < len(r.Bins)-1
		if !belowOK && !aboveOK {
			break
		}

		var below, above float64
		if belowOK {
			below = r.Bins[lowIdx-1].Volume
		}
		if aboveOK {
			above = r.Bins[highIdx+1].Volume
		}

		if aboveOK && (!belowOK || above >= below) {
			highIdx++
			covered += above
		} else {
			lowIdx--
			covered += below
		}
	}

	r.ValueAreaLow = r.Bins[lowIdx].Low
	r.ValueAreaHigh = r.Bins[highIdx].High
	r.ValueAreaVolume = covered
}

// classifyNodes marks each bin against the quartiles of the bin volume
// distribution: HVN at or above the upper quartile, LVN at or below the
// lower, and single prints below a fraction of the mean.
func classifyNodes(r *Result) {
	volumes := make([]float64, len(r.Bins))
	var total float64
	for i, bin := range r.Bins {
		volumes[i] = bin.Volume
		total += bin.Volume
	}
	sort.Float64s(volumes)

	upper := quantile(volumes, 0.75)
	lower := quantile(volumes, 0.25)
	meanVol := total / float64(len(r.Bins))

	for _, bin := range r.Bins {
		if bin.Volume >= upper && bin.Volume > 0 {
			r.HighVolumeNodes = append(r.HighVolumeNodes, bin.Midpoint)
		}
		if bin.Volume <= lower {
			r.LowVolumeNodes = append(r.LowVolumeNodes, bin.Midpoint)
		}
		if bin.Volume < meanVol*singlePrintFraction {
			r.SinglePrints = append(r.SinglePrints, bin.Midpoint)
		}
	}
}

// quantile linearly interpolates the q-quantile of sorted values.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
