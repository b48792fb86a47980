// Package store provides bar persistence and CSV loading.
package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "stock-analyzer/internal/errors"
	"stock-analyzer/internal/models"
)

// BarStore persists OHLCV series keyed by symbol and timeframe.
type BarStore interface {
	SaveBars(ctx context.Context, symbol, timeframe string, bars []models.Bar) error
	GetBars(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Bar, error)
	LatestTimestamp(ctx context.Context, symbol, timeframe string) (time.Time, error)
	Symbols(ctx context.Context) ([]string, error)
	Close() error
}

// csvBar is the CSV row shape for bar import/export.
type csvBar struct {
	Date   string  `csv:"Date"`
	Open   float64 `csv:"Open"`
	High   float64 `csv:"High"`
	Low    float64 `csv:"Low"`
	Close  float64 `csv:"Close"`
	Volume int64   `csv:"Volume"`
}

var csvDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// LoadCSV reads a bar series from a CSV file with Date,Open,High,Low,Close,Volume
// columns, ordered ascending by date.
func LoadCSV(path string) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var rows []*csvBar
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, apperrors.Wrapf(err, "parsing %s", path)
	}

	bars := make([]models.Bar, 0, len(rows))
	for i, row := range rows {
		ts, err := parseCSVDate(row.Date)
		if err != nil {
			return nil, apperrors.NewDataError("csv", path, fmt.Sprintf("row %d: bad date %q", i+1, row.Date), err)
		}
		bars = append(bars, models.Bar{
			Timestamp: ts,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return bars, nil
}

// WriteCSV writes a bar series to a CSV file.
func WriteCSV(path string, bars []models.Bar) error {
	rows := make([]*csvBar, len(bars))
	for i, b := range bars {
		rows[i] = &csvBar{
			Date:   b.Timestamp.Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrapf(err, "creating %s", path)
	}
	defer f.Close()

	return gocsv.MarshalFile(&rows, f)
}

func parseCSVDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range csvDateLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
