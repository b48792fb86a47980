package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stock-analyzer/internal/models"
)

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")

	want := []models.Bar{
		{Timestamp: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 100.5, High: 103, Low: 99.25, Close: 102, Volume: 150000},
		{Timestamp: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 102, High: 104, Low: 101, Close: 103.75, Volume: 180000},
	}

	if err := WriteCSV(path, want); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d bars, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Timestamp.Equal(want[i].Timestamp) ||
			got[i].Open != want[i].Open || got[i].High != want[i].High ||
			got[i].Low != want[i].Low || got[i].Close != want[i].Close ||
			got[i].Volume != want[i].Volume {
			t.Errorf("bar %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadCSV_DateFormats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	data := "Date,Open,High,Low,Close,Volume\n" +
		"2024-01-02,100,101,99,100.5,1000\n" +
		"2024-01-03 00:00:00,100.5,102,100,101,2000\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	bars, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}
	if bars[1].Timestamp.Day() != 3 {
		t.Errorf("second bar day = %d, want 3", bars[1].Timestamp.Day())
	}
}

func TestLoadCSV_BadDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	data := "Date,Open,High,Low,Close,Volume\nnot-a-date,100,101,99,100.5,1000\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCSV(path); err == nil {
		t.Error("expected error for malformed date")
	}
}
