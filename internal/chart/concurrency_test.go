package chart

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/finchart/pkg/models"
)

func TestRenderersRunConcurrently(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	src.prices["AAPL"] = tradingRows(day(2020, 6, 1), 1100, 150)
	src.prices["^GSPC"] = tradingRows(day(2020, 6, 1), 1100, 4000)
	src.eps["AAPL"] = []models.FundamentalsRow{
		quarterly(day(2023, 12, 30), "2.18"),
		quarterly(day(2024, 3, 30), "1.53"),
	}
	cfg := testChartsConfig(dir)
	log := quietLogger()
	asOf := day(2024, 5, 1)

	price := NewPriceRenderer(src, cfg, log)
	perf := NewPerformanceRenderer(src, cfg, log)
	pe := NewFundamentalsRenderer(src, cfg, log)

	canvases := []*Canvas{testCanvas(t), testCanvas(t), testCanvas(t)}
	var arts [3]*models.ChartArtifact
	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() (err error) {
		arts[0], err = price.Render(ctx, canvases[0], PriceRequest{Symbol: "AAPL", End: asOf, SavePath: dir})
		return err
	})
	g.Go(func() (err error) {
		arts[1], err = perf.Render(ctx, canvases[1], PerformanceRequest{Symbol: "AAPL", AsOf: asOf, SavePath: dir})
		return err
	})
	g.Go(func() (err error) {
		arts[2], err = pe.Render(ctx, canvases[2], FundamentalsRequest{Symbol: "AAPL", AsOf: asOf, SavePath: dir})
		return err
	})
	require.NoError(t, g.Wait())

	assert.Equal(t, filepath.Join(dir, "AAPL_candlestick_chart.png"), arts[0].FilePath)
	assert.Equal(t, filepath.Join(dir, "stock_performance.png"), arts[1].FilePath)
	assert.Equal(t, filepath.Join(dir, "pe_performance.png"), arts[2].FilePath)
	for _, a := range arts {
		requirePNG(t, a.FilePath)
	}
}

func TestSharedCanvasSerializesRenders(t *testing.T) {
	dir := t.TempDir()
	src := newFakeSource()
	src.prices["AAPL"] = tradingRows(day(2024, 1, 2), 60, 170)
	r := NewPriceRenderer(src, testChartsConfig(dir), quietLogger())
	canvas := testCanvas(t)

	var g errgroup.Group
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		path := filepath.Join(dir, name)
		g.Go(func() error {
			_, err := r.Render(context.Background(), canvas, PriceRequest{
				Symbol: "AAPL", Start: day(2024, 1, 1), End: day(2024, 3, 1), SavePath: path,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		requirePNG(t, filepath.Join(dir, name))
	}
}
