package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "stock-analyzer/internal/errors"
	"stock-analyzer/internal/models"
)

// Property: saving bars to the cache and reading them back produces
// equivalent data.
func TestProperty_BarRoundTripConsistency(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bars_property.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOG", "META", "TSLA", "AMD"}

	timeframeGen := gen.OneConstOf("day", "week")
	countGen := gen.IntRange(1, 20)
	priceGen := gen.Float64Range(100.0, 5000.0)
	volumeGen := gen.Int64Range(1000, 1000000)

	run := 0

	properties.Property("Bar round-trip: save then retrieve produces equivalent data", prop.ForAll(
		func(symbolIdx int, timeframe string, count int, basePrice float64, baseVolume int64) bool {
			ctx := context.Background()
			run++
			uniqueSymbol := fmt.Sprintf("%s_%d", symbols[symbolIdx%len(symbols)], run)

			bars := generateTestBars(count, basePrice, baseVolume)

			if err := store.SaveBars(ctx, uniqueSymbol, timeframe, bars); err != nil {
				t.Logf("Failed to save bars: %v", err)
				return false
			}

			from := bars[0].Timestamp.Add(-time.Second)
			to := bars[len(bars)-1].Timestamp.Add(time.Second)
			retrieved, err := store.GetBars(ctx, uniqueSymbol, timeframe, from, to)
			if err != nil {
				t.Logf("Failed to get bars: %v", err)
				return false
			}

			if len(retrieved) != len(bars) {
				t.Logf("Count mismatch: expected %d, got %d", len(bars), len(retrieved))
				return false
			}

			for i, orig := range bars {
				if !barsEqual(orig, retrieved[i]) {
					t.Logf("Bar mismatch at index %d: original=%+v, retrieved=%+v", i, orig, retrieved[i])
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(symbols)-1),
		timeframeGen,
		countGen,
		priceGen,
		volumeGen,
	))

	properties.Property("Empty bars: saving an empty slice should succeed", prop.ForAll(
		func(symbolIdx int, timeframe string) bool {
			ctx := context.Background()
			run++
			uniqueSymbol := fmt.Sprintf("%s_empty_%d", symbols[symbolIdx%len(symbols)], run)
			return store.SaveBars(ctx, uniqueSymbol, timeframe, []models.Bar{}) == nil
		},
		gen.IntRange(0, len(symbols)-1),
		timeframeGen,
	))

	properties.TestingRun(t)
}

func TestSQLiteStore_SaveIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bars_idempotent.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	bars := generateTestBars(10, 150.0, 5000)

	for i := 0; i < 3; i++ {
		if err := store.SaveBars(ctx, "AAPL", "day", bars); err != nil {
			t.Fatalf("SaveBars run %d: %v", i, err)
		}
	}

	retrieved, err := store.GetBars(ctx, "AAPL", "day", time.Time{}, time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("GetBars: %v", err)
	}
	if len(retrieved) != len(bars) {
		t.Errorf("got %d bars after repeated saves, want %d", len(retrieved), len(bars))
	}
}

func TestSQLiteStore_LatestTimestamp(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bars_latest.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	if _, err := store.LatestTimestamp(ctx, "MISSING", "day"); err == nil {
		t.Error("expected error for unknown symbol")
	}

	bars := generateTestBars(5, 200.0, 1000)
	if err := store.SaveBars(ctx, "MSFT", "day", bars); err != nil {
		t.Fatalf("SaveBars: %v", err)
	}

	latest, err := store.LatestTimestamp(ctx, "MSFT", "day")
	if err != nil {
		t.Fatalf("LatestTimestamp: %v", err)
	}
	want := bars[len(bars)-1].Timestamp
	if !latest.Equal(want) {
		t.Errorf("latest = %v, want %v", latest, want)
	}
}

// generateTestBars creates valid daily bars for testing.
func generateTestBars(count int, basePrice float64, baseVolume int64) []models.Bar {
	bars := make([]models.Bar, count)
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		variation := float64(i%10) * 0.01 * basePrice
		open := basePrice + variation
		close := basePrice + variation*0.5
		high := math.Max(open, close) * 1.01
		low := math.Min(open, close) * 0.99

		bars[i] = models.Bar{
			Timestamp: baseTime.Add(time.Duration(i) * 24 * time.Hour),
			Open:      roundToDecimal(open, 2),
			High:      roundToDecimal(high, 2),
			Low:       roundToDecimal(low, 2),
			Close:     roundToDecimal(close, 2),
			Volume:    baseVolume + int64(i*1000),
		}
	}
	return bars
}

func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

// barsEqual compares two bars with a small floating point tolerance.
func barsEqual(a, b models.Bar) bool {
	const tolerance = 0.01

	if !a.Timestamp.Equal(b.Timestamp) {
		return false
	}
	if a.Volume != b.Volume {
		return false
	}
	for _, pair := range [][2]float64{{a.Open, b.Open}, {a.High, b.High}, {a.Low, b.Low}, {a.Close, b.Close}} {
		diff := pair[0] - pair[1]
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			return false
		}
	}
	return true
}

func TestSQLiteStore_ClosedStoreReportsDatabaseError(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bars_closed.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	store.Close()

	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err = store.GetBars(ctx, "AAPL", "day", from, from.AddDate(0, 1, 0))
	if !errors.Is(err, apperrors.ErrDatabaseError) {
		t.Errorf("GetBars on closed store: err = %v, want ErrDatabaseError", err)
	}

	err = store.SaveBars(ctx, "AAPL", "day", generateTestBars(3, 100.0, 1000))
	if !errors.Is(err, apperrors.ErrDatabaseError) {
		t.Errorf("SaveBars on closed store: err = %v, want ErrDatabaseError", err)
	}
}
