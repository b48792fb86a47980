package models

import (
	"testing"
	"time"
)

func TestBarDerivedValues(t *testing.T) {
	bar := Bar{
		Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Open:      100,
		High:      110,
		Low:       95,
		Close:     105,
		Volume:    50000,
	}

	if got, want := bar.TypicalPrice(), (110.0+95.0+105.0)/3.0; got != want {
		t.Errorf("TypicalPrice = %v, want %v", got, want)
	}
	if got := bar.Range(); got != 15 {
		t.Errorf("Range = %v, want 15", got)
	}
	if got := bar.Body(); got != 5 {
		t.Errorf("Body = %v, want 5", got)
	}
	if !bar.IsBullish() || bar.IsBearish() {
		t.Error("bar closing above its open should be bullish")
	}

	down := bar
	down.Close = 98
	if down.IsBullish() || !down.IsBearish() {
		t.Error("bar closing below its open should be bearish")
	}
}

func TestSeriesExtraction(t *testing.T) {
	bars := []Bar{
		{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Open: 1.5, High: 3, Low: 1, Close: 2.5, Volume: 20},
	}

	closes := Closes(bars)
	if len(closes) != 2 || closes[0] != 1.5 || closes[1] != 2.5 {
		t.Errorf("Closes = %v", closes)
	}
	highs := Highs(bars)
	if highs[1] != 3 {
		t.Errorf("Highs = %v", highs)
	}
	lows := Lows(bars)
	if lows[0] != 0.5 {
		t.Errorf("Lows = %v", lows)
	}
	volumes := Volumes(bars)
	if volumes[1] != 20 {
		t.Errorf("Volumes = %v", volumes)
	}
}
