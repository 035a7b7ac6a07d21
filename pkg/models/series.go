// Package models defines the core data structures used throughout finchart.
package models

import (
	"fmt"
	"time"
)

// TimeSeriesRow is one daily OHLCV trading summary.
type TimeSeriesRow struct {
	Date   time.Time `json:"date"` // calendar date, midnight UTC
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// NormalizedPoint is a percent change from the first observation of a series.
type NormalizedPoint struct {
	Date          time.Time `json:"date"`
	PercentChange float64   `json:"percent_change"`
}

// CompanyInfo carries descriptive data about a listed symbol.
type CompanyInfo struct {
	Symbol      string `json:"symbol"`
	DisplayName string `json:"display_name"`
	Currency    string `json:"currency,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
}

// Name returns the display name, falling back to the symbol.
func (c *CompanyInfo) Name() string {
	if c == nil {
		return ""
	}
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Symbol
}

// ChartArtifact points at a rendered image. The renderer keeps no reference
// to it once returned.
type ChartArtifact struct {
	FilePath    string `json:"file_path"`
	Description string `json:"description"`
}

// String returns the human-readable description.
func (a ChartArtifact) String() string { return a.Description }

// Closes extracts the close column.
func Closes(rows []TimeSeriesRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = r.Close
	}
	return out
}

// ValidateRows checks the ordering and sanity invariants of a fetched table.
func ValidateRows(rows []TimeSeriesRow) error {
	for i, r := range rows {
		if r.Close <= 0 {
			return fmt.Errorf("row %d (%s): non-positive close %v", i, r.Date.Format("2006-01-02"), r.Close)
		}
		if r.High < r.Low {
			return fmt.Errorf("row %d (%s): high %v below low %v", i, r.Date.Format("2006-01-02"), r.High, r.Low)
		}
		if i > 0 && !r.Date.After(rows[i-1].Date) {
			return fmt.Errorf("row %d (%s): dates not strictly increasing", i, r.Date.Format("2006-01-02"))
		}
	}
	return nil
}
