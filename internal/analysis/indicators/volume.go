package indicators

import (
	"fmt"

	"stock-analyzer/internal/models"
)

// VWAP calculates Volume Weighted Average Price, cumulative from the first bar.
type VWAP struct{}

// NewVWAP creates a new VWAP indicator.
func NewVWAP() *VWAP {
	return &VWAP{}
}

func (v *VWAP) Name() string {
	return "VWAP"
}

func (v *VWAP) Period() int {
	return 1
}

func (v *VWAP) Calculate(bars []models.Bar) ([]float64, error) {
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	result := make([]float64, n)

	var cumulativeTPV float64 // cumulative typical price * volume
	var cumulativeVol float64

	for i := 0; i < n; i++ {
		tp := bars[i].TypicalPrice()
		cumulativeTPV += tp * float64(bars[i].Volume)
		cumulativeVol += float64(bars[i].Volume)

		if cumulativeVol != 0 {
			result[i] = cumulativeTPV / cumulativeVol
		}
	}

	return result, nil
}

// OBV calculates On-Balance Volume. The series starts at zero.
type OBV struct{}

// NewOBV creates a new OBV indicator.
func NewOBV() *OBV {
	return &OBV{}
}

func (o *OBV) Name() string {
	return "OBV"
}

func (o *OBV) Period() int {
	return 1
}

func (o *OBV) Calculate(bars []models.Bar) ([]float64, error) {
	if len(bars) == 0 {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	result := make([]float64, n)
	result[0] = 0

	for i := 1; i < n; i++ {
		if bars[i].Close > bars[i-1].Close {
			result[i] = result[i-1] + float64(bars[i].Volume)
		} else if bars[i].Close < bars[i-1].Close {
			result[i] = result[i-1] - float64(bars[i].Volume)
		} else {
			result[i] = result[i-1]
		}
	}

	return result, nil
}

// VolumeSMA calculates the simple moving average of volume.
type VolumeSMA struct {
	period int
}

// NewVolumeSMA creates a new volume SMA indicator.
func NewVolumeSMA(period int) *VolumeSMA {
	return &VolumeSMA{period: period}
}

func (v *VolumeSMA) Name() string {
	return fmt.Sprintf("VolumeSMA_%d", v.period)
}

func (v *VolumeSMA) Period() int {
	return v.period
}

func (v *VolumeSMA) Calculate(bars []models.Bar) ([]float64, error) {
	if v.period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(bars) < v.period {
		return nil, ErrInsufficientData
	}

	n := len(bars)
	result := make([]float64, n)

	var window float64
	for i := 0; i < n; i++ {
		window += float64(bars[i].Volume)
		if i >= v.period {
			window -= float64(bars[i-v.period].Volume)
		}
		if i >= v.period-1 {
			result[i] = window / float64(v.period)
		}
	}

	return result, nil
}

// VolumeRatio returns last volume relative to the volume SMA at the last bar.
// It reports 0 when the average is unavailable or zero.
func VolumeRatio(bars []models.Bar, period int) float64 {
	v := NewVolumeSMA(period)
	avg, err := v.Calculate(bars)
	if err != nil {
		return 0
	}
	last := avg[len(avg)-1]
	if last == 0 {
		return 0
	}
	return float64(bars[len(bars)-1].Volume) / last
}
