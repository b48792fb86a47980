package indicators

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stock-analyzer/internal/models"
)

// barGen generates valid bars with realistic OHLCV values.
func barGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(models.Bar{}), map[string]gopter.Gen{
		"Timestamp": gen.TimeRange(time.Now().Add(-365*24*time.Hour), time.Hour),
		"Open":      gen.Float64Range(100.0, 1000.0),
		"High":      gen.Float64Range(100.0, 1000.0),
		"Low":       gen.Float64Range(100.0, 1000.0),
		"Close":     gen.Float64Range(100.0, 1000.0),
		"Volume":    gen.Int64Range(1000, 10000000),
	}).Map(fixBar)
}

// fixBar enforces OHLC constraints on a generated bar.
func fixBar(b models.Bar) models.Bar {
	if b.Open <= 0 {
		b.Open = 100.0
	}
	if b.Close <= 0 {
		b.Close = 100.0
	}
	b.High = math.Max(b.High, math.Max(b.Open, b.Close))
	b.Low = math.Min(b.Low, math.Min(b.Open, b.Close))
	if b.Low <= 0 {
		b.Low = math.Min(b.Open, b.Close)
	}
	if b.Low > b.High {
		b.Low, b.High = b.High, b.Low
	}
	if b.High <= b.Low {
		b.High = b.Low + 1.0
	}
	if b.Volume <= 0 {
		b.Volume = 1000
	}
	return b
}

// barSliceGen generates a slice of valid bars with ascending timestamps.
func barSliceGen(minLen, maxLen int) gopter.Gen {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return gen.SliceOfN(maxLen, barGen()).Map(func(bars []models.Bar) []models.Bar {
		if len(bars) < minLen {
			for len(bars) < minLen {
				bars = append(bars, bars[len(bars)-1])
			}
		}
		// Re-validate each bar after shrinking and normalize timestamps.
		for i := range bars {
			bars[i] = fixBar(bars[i])
			bars[i].Timestamp = base.Add(time.Duration(i) * 24 * time.Hour)
		}
		return bars
	})
}

func newProperties(t *testing.T) *gopter.Properties {
	t.Helper()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	parameters.MaxShrinkCount = 0
	return gopter.NewProperties(parameters)
}

func TestProperty_RSIWithinBounds(t *testing.T) {
	properties := newProperties(t)

	properties.Property("RSI values are within [0, 100]", prop.ForAll(
		func(bars []models.Bar) bool {
			rsi := NewRSI(14)
			values, err := rsi.Calculate(bars)
			if err != nil {
				return true
			}
			for i := rsi.Period(); i < len(values); i++ {
				if values[i] < 0 || values[i] > 100 {
					return false
				}
			}
			return true
		},
		barSliceGen(20, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_StochasticWithinBounds(t *testing.T) {
	properties := newProperties(t)

	properties.Property("Stochastic %K and %D values are within [0, 100]", prop.ForAll(
		func(bars []models.Bar) bool {
			stoch := NewStochastic(14, 3, 3)
			values, err := stoch.Calculate(bars)
			if err != nil {
				return true
			}
			for _, series := range [][]float64{values["percent_k"], values["percent_d"]} {
				for i := stoch.Period(); i < len(series); i++ {
					if series[i] < 0 || series[i] > 100 {
						return false
					}
				}
			}
			return true
		},
		barSliceGen(25, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_WilliamsRWithinBounds(t *testing.T) {
	properties := newProperties(t)

	properties.Property("Williams %R values are within [-100, 0]", prop.ForAll(
		func(bars []models.Bar) bool {
			wr := NewWilliamsR(14)
			values, err := wr.Calculate(bars)
			if err != nil {
				return true
			}
			for i := wr.Period() - 1; i < len(values); i++ {
				if values[i] < -100 || values[i] > 0 {
					return false
				}
			}
			return true
		},
		barSliceGen(20, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_BollingerBandsOrdering(t *testing.T) {
	properties := newProperties(t)

	properties.Property("Bollinger Bands: Lower <= Middle <= Upper", prop.ForAll(
		func(bars []models.Bar) bool {
			bb := NewBollingerBands(20, 2.0)
			values, err := bb.Calculate(bars)
			if err != nil {
				return true
			}
			upper := values["upper"]
			middle := values["middle"]
			lower := values["lower"]
			for i := bb.Period() - 1; i < len(upper); i++ {
				if lower[i] > middle[i] || middle[i] > upper[i] {
					return false
				}
			}
			return true
		},
		barSliceGen(25, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_DonchianChannelsContainPrices(t *testing.T) {
	properties := newProperties(t)

	properties.Property("Donchian upper bounds the period high, lower bounds the period low", prop.ForAll(
		func(bars []models.Bar) bool {
			dc := NewDonchianChannels(20)
			values, err := dc.Calculate(bars)
			if err != nil {
				return true
			}
			upper := values["upper"]
			lower := values["lower"]
			middle := values["middle"]
			for i := dc.Period() - 1; i < len(upper); i++ {
				if upper[i] < bars[i].High || lower[i] > bars[i].Low {
					return false
				}
				if middle[i] < lower[i] || middle[i] > upper[i] {
					return false
				}
			}
			return true
		},
		barSliceGen(25, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_SMAIsAverageOfPrices(t *testing.T) {
	properties := newProperties(t)

	properties.Property("SMA is the arithmetic mean of closing prices over the period", prop.ForAll(
		func(bars []models.Bar) bool {
			period := 10
			sma := NewSMA(period)
			values, err := sma.Calculate(bars)
			if err != nil {
				return true
			}
			closes := models.Closes(bars)
			for i := period - 1; i < len(values); i++ {
				expected := mean(closes[i-period+1 : i+1])
				if math.Abs(values[i]-expected) > 0.0001 {
					return false
				}
			}
			return true
		},
		barSliceGen(15, 50),
	))

	properties.TestingRun(t)
}

func TestProperty_ATRIsNonNegative(t *testing.T) {
	properties := newProperties(t)

	properties.Property("ATR values are non-negative", prop.ForAll(
		func(bars []models.Bar) bool {
			atr := NewATR(14)
			values, err := atr.Calculate(bars)
			if err != nil {
				return true
			}
			for i := atr.Period() - 1; i < len(values); i++ {
				if values[i] < 0 {
					return false
				}
			}
			return true
		},
		barSliceGen(20, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_VWAPWithinPriceRange(t *testing.T) {
	properties := newProperties(t)

	properties.Property("VWAP stays within the cumulative low/high range", prop.ForAll(
		func(bars []models.Bar) bool {
			vwap := NewVWAP()
			values, err := vwap.Calculate(bars)
			if err != nil {
				return true
			}
			lo := bars[0].Low
			hi := bars[0].High
			for i, v := range values {
				lo = math.Min(lo, bars[i].Low)
				hi = math.Max(hi, bars[i].High)
				if v < lo-0.0001 || v > hi+0.0001 {
					return false
				}
			}
			return true
		},
		barSliceGen(5, 100),
	))

	properties.TestingRun(t)
}

func TestProperty_OBVStepsByVolume(t *testing.T) {
	properties := newProperties(t)

	properties.Property("OBV starts at zero and each step is 0 or the bar's volume", prop.ForAll(
		func(bars []models.Bar) bool {
			obv := NewOBV()
			values, err := obv.Calculate(bars)
			if err != nil {
				return true
			}
			if values[0] != 0 {
				return false
			}
			for i := 1; i < len(values); i++ {
				step := math.Abs(values[i] - values[i-1])
				if step != 0 && step != float64(bars[i].Volume) {
					return false
				}
			}
			return true
		},
		barSliceGen(5, 100),
	))

	properties.TestingRun(t)
}
