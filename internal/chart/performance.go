package chart

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/seenimoa/finchart/internal/analysis/technical"
	"github.com/seenimoa/finchart/internal/config"
	"github.com/seenimoa/finchart/internal/datasource"
	"github.com/seenimoa/finchart/pkg/models"
	"github.com/seenimoa/finchart/pkg/utils"
)

// PerformanceRequest describes a one-year relative performance chart.
type PerformanceRequest struct {
	Symbol   string
	AsOf     time.Time // zero means today
	SavePath string    // file or existing directory
}

// PerformanceRenderer compares a stock's percent change with a benchmark
// index over the trailing year.
type PerformanceRenderer struct {
	source datasource.DataSource
	cfg    config.ChartsConfig
	log    zerolog.Logger
}

// NewPerformanceRenderer creates a relative performance renderer.
func NewPerformanceRenderer(src datasource.DataSource, cfg config.ChartsConfig, log zerolog.Logger) *PerformanceRenderer {
	return &PerformanceRenderer{
		source: src,
		cfg:    cfg,
		log:    log.With().Str("renderer", "performance").Logger(),
	}
}

// Render draws the symbol and the benchmark as percent change from the
// first close of the window, each against its own trading dates.
func (p *PerformanceRenderer) Render(ctx context.Context, canvas *Canvas, req PerformanceRequest) (*models.ChartArtifact, error) {
	sym := utils.NormalizeTicker(req.Symbol)
	if !utils.ValidTicker(sym) {
		return nil, fmt.Errorf("%w: invalid symbol %q", ErrInvalidConfig, req.Symbol)
	}
	bench := utils.NormalizeTicker(firstNonEmpty(p.cfg.BenchmarkSymbol, "^GSPC"))
	benchName := firstNonEmpty(p.cfg.BenchmarkName, bench)
	palette, err := LookupPalette(firstNonEmpty(p.cfg.Style, "default"))
	if err != nil {
		return nil, err
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	start, end := utils.TrailingWindow(asOf, 1)

	release, err := canvas.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	stock, err := p.normalized(ctx, sym, start, end)
	if err != nil {
		return nil, err
	}
	benchmark, err := p.normalized(ctx, bench, start, end)
	if err != nil {
		return nil, err
	}

	name := sym
	if info, err := p.source.GetCompanyInfo(ctx, sym); err != nil {
		p.log.Debug().Err(err).Str("symbol", sym).Msg("company info unavailable, using symbol")
	} else if n := info.Name(); n != "" {
		name = n
	}

	title := fmt.Sprintf("%s vs %s - Change %% Over the Past Year", name, benchName)
	graph := baseChart(title, palette)
	graph.XAxis.Ticks = monthTicks(start, end, 4, "2006-01")
	graph.YAxis.ValueFormatter = numberFormatter(0, "%")

	var all []float64
	for _, s := range []struct {
		name   string
		points []models.NormalizedPoint
		style  gochart.Style
	}{
		{name, stock, gochart.Style{StrokeColor: palette.Line, StrokeWidth: 2}},
		{benchName, benchmark, gochart.Style{StrokeColor: palette.Accent, StrokeWidth: 2}},
	} {
		xs := make([]float64, len(s.points))
		ys := make([]float64, len(s.points))
		for i, pt := range s.points {
			xs[i], ys[i] = timeX(pt.Date), pt.PercentChange
		}
		all = append(all, ys...)
		graph.Series = append(graph.Series, gochart.ContinuousSeries{
			Name:    s.name,
			XValues: xs,
			YValues: ys,
			Style:   s.style,
		})
	}
	graph.YAxis.Range = paddedRange(0.08, all...)
	withLegend(&graph, palette)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := canvas.encode(graph)
	if err != nil {
		return nil, err
	}

	path := outputPath(req.SavePath, p.cfg.OutputDir, "stock_performance.png")
	if err := writeImage(path, data); err != nil {
		return nil, err
	}
	p.log.Info().Str("symbol", sym).Str("benchmark", bench).Str("path", path).Msg("performance chart written")

	return &models.ChartArtifact{
		FilePath:    path,
		Description: fmt.Sprintf("%s saved to <img %s>", title, path),
	}, nil
}

// normalized fetches closes for symbol and converts them to percent change.
func (p *PerformanceRenderer) normalized(ctx context.Context, symbol string, from, to time.Time) ([]models.NormalizedPoint, error) {
	rows, err := p.source.GetPriceHistory(ctx, symbol, from, to)
	if err != nil {
		return nil, fetchError("price history", symbol, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no price rows for %s in the past year", ErrNoData, symbol)
	}
	if err := models.ValidateRows(rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoData, symbol, err)
	}

	points, err := technical.PercentChange(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoData, symbol, err)
	}
	p.log.Debug().Str("symbol", symbol).Int("rows", len(rows)).Msg("normalized closes")
	return points, nil
}
