package chart

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/finchart/pkg/models"
)

func newPerformanceFixture(t *testing.T) (*PerformanceRenderer, *fakeSource, string) {
	t.Helper()
	dir := t.TempDir()
	src := newFakeSource()
	src.prices["AAPL"] = tradingRows(day(2023, 6, 1), 300, 170)
	src.prices["^GSPC"] = tradingRows(day(2023, 6, 1), 300, 4500)
	src.info["AAPL"] = &models.CompanyInfo{Symbol: "AAPL", DisplayName: "Apple Inc."}
	return NewPerformanceRenderer(src, testChartsConfig(dir), quietLogger()), src, dir
}

func TestPerformanceRender(t *testing.T) {
	r, _, dir := newPerformanceFixture(t)

	art, err := r.Render(context.Background(), testCanvas(t), PerformanceRequest{
		Symbol:   "AAPL",
		AsOf:     day(2024, 5, 1),
		SavePath: dir,
	})
	require.NoError(t, err)

	want := filepath.Join(dir, "stock_performance.png")
	assert.Equal(t, want, art.FilePath)
	assert.Equal(t, "Apple Inc. vs S&P 500 - Change % Over the Past Year saved to <img "+want+">", art.Description)
	requirePNG(t, want)
}

func TestPerformanceRenderVerbatimPath(t *testing.T) {
	r, _, dir := newPerformanceFixture(t)
	path := filepath.Join(dir, "perf", "aapl-vs-spx")

	art, err := r.Render(context.Background(), testCanvas(t), PerformanceRequest{
		Symbol: "AAPL", AsOf: day(2024, 5, 1), SavePath: path,
	})
	require.NoError(t, err)
	assert.Equal(t, path, art.FilePath)
	requirePNG(t, path)
}

func TestPerformanceRenderFallsBackToSymbol(t *testing.T) {
	r, src, dir := newPerformanceFixture(t)
	src.infoErr = errors.New("quote page unavailable")

	art, err := r.Render(context.Background(), testCanvas(t), PerformanceRequest{
		Symbol: "AAPL", AsOf: day(2024, 5, 1), SavePath: dir,
	})
	require.NoError(t, err)
	assert.Contains(t, art.Description, "AAPL vs S&P 500 - Change % Over the Past Year")
}

func TestPerformanceRenderCustomBenchmark(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	src.prices["AAPL"] = tradingRows(day(2023, 6, 1), 300, 170)
	src.prices["^NDX"] = tradingRows(day(2023, 6, 1), 300, 15000)
	cfg := testChartsConfig(dir)
	cfg.BenchmarkSymbol = "^NDX"
	cfg.BenchmarkName = "Nasdaq 100"

	art, err := NewPerformanceRenderer(src, cfg, quietLogger()).Render(context.Background(), testCanvas(t), PerformanceRequest{
		Symbol: "AAPL", AsOf: day(2024, 5, 1), SavePath: dir,
	})
	require.NoError(t, err)
	assert.Contains(t, art.Description, "AAPL vs Nasdaq 100")
}

func TestPerformanceRenderMisalignedCalendars(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	// The benchmark trades on days the stock does not and vice versa.
	src.prices["AAPL"] = closesRows(day(2024, 1, 1), 100, 102, 99)
	src.prices["^GSPC"] = closesRows(day(2024, 1, 2), 50, 55, 45, 47)

	art, err := NewPerformanceRenderer(src, testChartsConfig(dir), quietLogger()).Render(context.Background(), testCanvas(t), PerformanceRequest{
		Symbol: "AAPL", AsOf: day(2024, 3, 1), SavePath: dir,
	})
	require.NoError(t, err)
	requirePNG(t, art.FilePath)
}

func TestPerformanceRenderNoData(t *testing.T) {
	tests := []struct {
		name  string
		setup func(src *fakeSource)
	}{
		{"empty stock", func(src *fakeSource) { delete(src.prices, "AAPL") }},
		{"empty benchmark", func(src *fakeSource) { delete(src.prices, "^GSPC") }},
		{"zero first close", func(src *fakeSource) {
			src.prices["AAPL"] = closesRows(day(2024, 1, 2), 0, 10, 11)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, src, dir := newPerformanceFixture(t)
			tt.setup(src)
			_, err := r.Render(context.Background(), testCanvas(t), PerformanceRequest{
				Symbol: "AAPL", AsOf: day(2024, 5, 1), SavePath: dir,
			})
			assert.ErrorIs(t, err, ErrNoData)
			assert.NoFileExists(t, filepath.Join(dir, "stock_performance.png"))
		})
	}
}

func TestPerformanceRenderWindow(t *testing.T) {
	r, _, dir := newPerformanceFixture(t)
	// Fixture data ends in July 2024; an as-of two years later leaves the window empty.
	_, err := r.Render(context.Background(), testCanvas(t), PerformanceRequest{
		Symbol: "AAPL", AsOf: day(2026, 5, 1), SavePath: dir,
	})
	assert.ErrorIs(t, err, ErrNoData)
}
