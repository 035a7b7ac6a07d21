package chart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCanvasValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  CanvasConfig
	}{
		{"zero width", CanvasConfig{Width: 0, Height: 400}},
		{"negative height", CanvasConfig{Width: 400, Height: -1}},
		{"negative dpi", CanvasConfig{Width: 400, Height: 400, DPI: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCanvas(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	c, err := NewCanvas(CanvasConfig{Width: 640, Height: 480})
	require.NoError(t, err)
	w, h := c.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestClosedCanvasRefusesWork(t *testing.T) {
	src := newFakeSource()
	src.prices["AAPL"] = tradingRows(day(2024, 3, 1), 20, 170)

	c, err := NewCanvas(CanvasConfig{Width: 640, Height: 480})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	r := NewPriceRenderer(src, testChartsConfig(t.TempDir()), quietLogger())
	_, err = r.Render(context.Background(), c, PriceRequest{Symbol: "AAPL", Start: day(2024, 3, 1), End: day(2024, 4, 1)})
	assert.ErrorIs(t, err, ErrCanvasClosed)
	assert.Zero(t, src.priceCalls)
}

func TestNilCanvas(t *testing.T) {
	r := NewPriceRenderer(newFakeSource(), testChartsConfig(t.TempDir()), quietLogger())
	_, err := r.Render(context.Background(), nil, PriceRequest{Symbol: "AAPL", Start: day(2024, 3, 1), End: day(2024, 4, 1)})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLookupPalette(t *testing.T) {
	names := StyleNames()
	assert.Len(t, names, 14)
	for _, name := range names {
		p, err := LookupPalette(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name)
		assert.NotEmpty(t, p.MA, name)
	}

	p, err := LookupPalette(" Yahoo ")
	require.NoError(t, err)
	assert.Equal(t, "yahoo", p.Name)

	_, err = LookupPalette("neon")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseChartType(t *testing.T) {
	for _, ct := range ChartTypes {
		got, err := ParseChartType(string(ct))
		require.NoError(t, err)
		assert.Equal(t, ct, got)
	}
	got, err := ParseChartType("CANDLE")
	require.NoError(t, err)
	assert.Equal(t, "candlestick", got.DisplayName())
	assert.Equal(t, "ohlc", OHLC.DisplayName())

	_, err = ParseChartType("heikin")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
