package chart

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/finchart/internal/config"
	"github.com/seenimoa/finchart/pkg/models"
)

// fakeSource serves canned tables and records how often prices were fetched.
type fakeSource struct {
	mu         sync.Mutex
	prices     map[string][]models.TimeSeriesRow
	eps        map[string][]models.FundamentalsRow
	info       map[string]*models.CompanyInfo
	priceErr   error
	infoErr    error
	priceCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		prices: map[string][]models.TimeSeriesRow{},
		eps:    map[string][]models.FundamentalsRow{},
		info:   map[string]*models.CompanyInfo{},
	}
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) GetPriceHistory(_ context.Context, symbol string, from, to time.Time) ([]models.TimeSeriesRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.priceCalls++
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	var out []models.TimeSeriesRow
	for _, r := range f.prices[symbol] {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeSource) GetCompanyInfo(_ context.Context, symbol string) (*models.CompanyInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	if info, ok := f.info[symbol]; ok {
		return info, nil
	}
	return &models.CompanyInfo{Symbol: symbol}, nil
}

func (f *fakeSource) GetIncomeStatement(_ context.Context, symbol string) ([]models.FundamentalsRow, error) {
	return f.eps[symbol], nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// tradingRows builds n weekday rows from start with a wavy, drifting close.
func tradingRows(start time.Time, n int, base float64) []models.TimeSeriesRow {
	rows := make([]models.TimeSeriesRow, 0, n)
	for d := start; len(rows) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		i := float64(len(rows))
		c := base + base*0.08*math.Sin(i/5) + i*base*0.002
		rows = append(rows, models.TimeSeriesRow{
			Date:   d,
			Open:   c - base*0.004,
			High:   c + base*0.01,
			Low:    c - base*0.01,
			Close:  c,
			Volume: int64(1_000_000 + 10_000*int(i)),
		})
	}
	return rows
}

func closesRows(start time.Time, closes ...float64) []models.TimeSeriesRow {
	rows := make([]models.TimeSeriesRow, len(closes))
	for i, c := range closes {
		rows[i] = models.TimeSeriesRow{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return rows
}

func quarterly(t time.Time, eps string) models.FundamentalsRow {
	return models.FundamentalsRow{
		PeriodEnd:  t,
		DilutedEPS: decimal.RequireFromString(eps),
		PeriodType: models.PeriodQuarterly,
	}
}

func testChartsConfig(outputDir string) config.ChartsConfig {
	return config.ChartsConfig{
		OutputDir:       outputDir,
		Width:           800,
		Height:          500,
		DPI:             96,
		Style:           "default",
		ChartType:       "candle",
		BenchmarkSymbol: "^GSPC",
		BenchmarkName:   "S&P 500",
		LookbackYears:   4,
		RenkoATRLength:  14,
		PnFReversal:     3,
	}
}

func testCanvas(t *testing.T) *Canvas {
	t.Helper()
	c, err := NewCanvas(CanvasConfig{Width: 800, Height: 500, DPI: 96})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func quietLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// requirePNG asserts path holds a PNG image.
func requirePNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	require.Equal(t, "\x89PNG\r\n\x1a\n", string(data[:8]))
}

// tempFiles lists leftover temp files from atomic writes in dir.
func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	return matches
}
