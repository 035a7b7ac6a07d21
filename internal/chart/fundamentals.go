package chart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/seenimoa/finchart/internal/analysis/fundamental"
	"github.com/seenimoa/finchart/internal/config"
	"github.com/seenimoa/finchart/internal/datasource"
	"github.com/seenimoa/finchart/pkg/models"
	"github.com/seenimoa/finchart/pkg/utils"
)

// DefaultLookbackYears is used when neither the request nor the config sets one.
const DefaultLookbackYears = 4

// FundamentalsRequest describes a P/E trend chart.
type FundamentalsRequest struct {
	Symbol        string
	AsOf          time.Time // zero means today
	LookbackYears int       // zero uses the configured default
	SavePath      string    // file or existing directory
}

// FundamentalsRenderer plots P/E ratios at each filing date against the
// daily close.
type FundamentalsRenderer struct {
	source datasource.DataSource
	cfg    config.ChartsConfig
	log    zerolog.Logger
}

// NewFundamentalsRenderer creates a P/E trend renderer.
func NewFundamentalsRenderer(src datasource.DataSource, cfg config.ChartsConfig, log zerolog.Logger) *FundamentalsRenderer {
	return &FundamentalsRenderer{
		source: src,
		cfg:    cfg,
		log:    log.With().Str("renderer", "fundamentals").Logger(),
	}
}

// Render aligns each filing in the lookback window to the last close on or
// before its period end and plots close / annualized EPS.
func (f *FundamentalsRenderer) Render(ctx context.Context, canvas *Canvas, req FundamentalsRequest) (*models.ChartArtifact, error) {
	sym := utils.NormalizeTicker(req.Symbol)
	if !utils.ValidTicker(sym) {
		return nil, fmt.Errorf("%w: invalid symbol %q", ErrInvalidConfig, req.Symbol)
	}

	years := req.LookbackYears
	if years == 0 {
		years = f.cfg.LookbackYears
	}
	if years == 0 {
		years = DefaultLookbackYears
	}
	if years < 1 {
		return nil, fmt.Errorf("%w: lookback of %d years", ErrInvalidConfig, years)
	}
	palette, err := LookupPalette(firstNonEmpty(f.cfg.Style, "default"))
	if err != nil {
		return nil, err
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	start, end := utils.TrailingWindow(asOf, years)

	release, err := canvas.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	history, err := f.source.GetIncomeStatement(ctx, sym)
	if err != nil {
		return nil, fetchError("EPS history", sym, err)
	}
	var filings []models.FundamentalsRow
	for _, row := range history {
		pe := utils.Date(row.PeriodEnd)
		if pe.After(end) || pe.Before(start) {
			continue
		}
		filings = append(filings, row)
	}

	prices, err := f.source.GetPriceHistory(ctx, sym, start, end)
	if err != nil {
		return nil, fetchError("price history", sym, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w: no price rows for %s in the past %d years", ErrNoData, sym, years)
	}
	if err := models.ValidateRows(prices); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoData, sym, err)
	}

	aligned, failures, err := fundamental.AlignPE(prices, filings)
	if errors.Is(err, fundamental.ErrDivisionByZero) {
		return nil, fmt.Errorf("%w: %s: %v", ErrDivisionByZero, sym, err)
	}
	if err != nil {
		return nil, err
	}
	for _, fail := range failures {
		f.log.Warn().
			Err(fmt.Errorf("%w: %v", ErrAlignmentFailure, fail.Err)).
			Str("symbol", sym).
			Str("period_end", utils.FormatDate(fail.PeriodEnd)).
			Msg("filing dropped")
	}
	if len(filings) > 0 && len(aligned) == 0 {
		return nil, fmt.Errorf("%w: %w: none of %d filings for %s precede a trading day in range",
			ErrNoData, ErrAlignmentFailure, len(filings), sym)
	}
	f.log.Debug().Str("symbol", sym).Int("filings", len(filings)).Int("aligned", len(aligned)).Int("prices", len(prices)).Msg("aligned P/E")

	name := sym
	if info, err := f.source.GetCompanyInfo(ctx, sym); err != nil {
		f.log.Debug().Err(err).Str("symbol", sym).Msg("company info unavailable, using symbol")
	} else if n := info.Name(); n != "" {
		name = n
	}

	title := fmt.Sprintf("%s PE Ratios and EPS Over the Past %d Years", name, years)
	graph := f.build(title, palette, start, end, years, prices, aligned)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := canvas.encode(graph)
	if err != nil {
		return nil, err
	}

	path := outputPath(req.SavePath, f.cfg.OutputDir, "pe_performance.png")
	if err := writeImage(path, data); err != nil {
		return nil, err
	}
	f.log.Info().Str("symbol", sym).Str("path", path).Msg("P/E chart written")

	desc := fmt.Sprintf("%s saved to <img %s>", title, path)
	if eps, ok := fundamental.LatestEPS(filings); ok {
		desc += fmt.Sprintf("; latest annualized EPS %s (quarterly EPS x4, an approximation of trailing twelve months)", eps.StringFixed(2))
	}
	return &models.ChartArtifact{FilePath: path, Description: desc}, nil
}

func (f *FundamentalsRenderer) build(title string, palette Palette, start, end time.Time, years int, prices []models.TimeSeriesRow, aligned []models.AlignedPERow) gochart.Chart {
	graph := baseChart(title, palette)
	step := 6
	if years > 3 {
		step = 12
	}
	graph.XAxis.Ticks = monthTicks(start, end, step, "2006-01")

	xs := make([]float64, len(prices))
	for i, r := range prices {
		xs[i] = timeX(r.Date)
	}
	closes := models.Closes(prices)
	graph.YAxisSecondary = gochart.YAxis{
		Style:          graph.YAxis.Style,
		ValueFormatter: numberFormatter(0, ""),
		Range:          paddedRange(0.05, closes...),
	}
	graph.Series = append(graph.Series, gochart.ContinuousSeries{
		Name:    "Close",
		YAxis:   gochart.YAxisSecondary,
		XValues: xs,
		YValues: closes,
		Style:   gochart.Style{StrokeColor: palette.Accent, StrokeWidth: 1},
	})

	peX := make([]float64, len(aligned))
	peY := make([]float64, len(aligned))
	notes := make([]gochart.Value2, len(aligned))
	for i, row := range aligned {
		pe, _ := row.PE.Float64()
		peX[i], peY[i] = timeX(row.Date), pe
		notes[i] = gochart.Value2{
			XValue: peX[i],
			YValue: pe,
			Label:  fmt.Sprintf("%s (EPS %s)", row.PE.StringFixed(1), row.TrailingEPS.StringFixed(2)),
		}
	}
	graph.YAxis.Range = paddedRange(0.15, peY...)

	if len(aligned) > 0 {
		graph.Series = append(graph.Series,
			gochart.ContinuousSeries{
				Name:    "P/E",
				XValues: peX,
				YValues: peY,
				Style: gochart.Style{
					StrokeColor: palette.Line,
					StrokeWidth: 2,
					DotColor:    palette.Line,
					DotWidth:    3,
				},
			},
			gochart.AnnotationSeries{
				Annotations: notes,
				Style: gochart.Style{
					FillColor:   palette.Background,
					FontColor:   palette.Text,
					StrokeColor: palette.Line,
				},
			},
		)
	}
	withLegend(&graph, palette)
	return graph
}
