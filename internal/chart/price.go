package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/seenimoa/finchart/internal/analysis/technical"
	"github.com/seenimoa/finchart/internal/config"
	"github.com/seenimoa/finchart/internal/datasource"
	"github.com/seenimoa/finchart/pkg/models"
	"github.com/seenimoa/finchart/pkg/utils"
)

// PriceRequest describes one price chart.
type PriceRequest struct {
	Symbol             string
	Start              time.Time // zero means one year before End
	End                time.Time // zero means today; inclusive
	SavePath           string    // file or existing directory; empty uses the configured output dir
	ChartType          string    // empty uses the configured chart type
	Style              string    // empty uses the configured style
	MovingAverages     []int
	ShowNonTradingDays bool
	Verbose            bool // write the fetched table before rendering
}

// PriceRenderer draws OHLCV history as a styled price chart with volume.
type PriceRenderer struct {
	source  datasource.DataSource
	cfg     config.ChartsConfig
	log     zerolog.Logger
	verbose io.Writer
}

// NewPriceRenderer creates a price renderer reading from src.
func NewPriceRenderer(src datasource.DataSource, cfg config.ChartsConfig, log zerolog.Logger) *PriceRenderer {
	return &PriceRenderer{
		source:  src,
		cfg:     cfg,
		log:     log.With().Str("renderer", "price").Logger(),
		verbose: os.Stdout,
	}
}

// SetVerboseWriter redirects the table printed for verbose requests.
func (p *PriceRenderer) SetVerboseWriter(w io.Writer) {
	p.verbose = w
}

// Render fetches the requested range, draws it and writes the image.
func (p *PriceRenderer) Render(ctx context.Context, canvas *Canvas, req PriceRequest) (*models.ChartArtifact, error) {
	sym := utils.NormalizeTicker(req.Symbol)
	if !utils.ValidTicker(sym) {
		return nil, fmt.Errorf("%w: invalid symbol %q", ErrInvalidConfig, req.Symbol)
	}

	end := utils.Date(req.End)
	if req.End.IsZero() {
		end = utils.Date(time.Now())
	}
	start := utils.Date(req.Start)
	if req.Start.IsZero() {
		start = utils.DaysBefore(end, 365)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidConfig, utils.FormatDate(start), utils.FormatDate(end))
	}

	kind, err := ParseChartType(firstNonEmpty(req.ChartType, p.cfg.ChartType, string(Candle)))
	if err != nil {
		return nil, err
	}
	palette, err := LookupPalette(firstNonEmpty(req.Style, p.cfg.Style, "default"))
	if err != nil {
		return nil, err
	}
	for _, w := range req.MovingAverages {
		if w <= 0 {
			return nil, fmt.Errorf("%w: moving average window %d must be positive", ErrInvalidConfig, w)
		}
	}

	release, err := canvas.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := p.source.GetPriceHistory(ctx, sym, start, end)
	if err != nil {
		return nil, fetchError("price history", sym, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no price rows for %s between %s and %s",
			ErrNoData, sym, utils.FormatDate(start), utils.FormatDate(end))
	}
	if err := models.ValidateRows(rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoData, sym, err)
	}
	p.log.Debug().Str("symbol", sym).Int("rows", len(rows)).Str("type", string(kind)).Msg("fetched price history")

	if req.Verbose {
		if err := writeTable(p.verbose, sym, rows); err != nil {
			p.log.Warn().Err(err).Msg("writing verbose table")
		}
	}

	title := fmt.Sprintf("%s %s chart", sym, kind.DisplayName())
	graph, err := p.build(title, kind, palette, rows, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := canvas.encode(graph)
	if err != nil {
		return nil, err
	}

	defaultName := fmt.Sprintf("%s_%s_chart.png", utils.FileSafeTicker(sym), kind.DisplayName())
	path := withPNGExt(outputPath(req.SavePath, p.cfg.OutputDir, defaultName))
	if err := writeImage(path, data); err != nil {
		return nil, err
	}
	p.log.Info().Str("symbol", sym).Str("path", path).Msg("price chart written")

	return &models.ChartArtifact{
		FilePath:    path,
		Description: fmt.Sprintf("%s saved to <img %s>", title, path),
	}, nil
}

func (p *PriceRenderer) build(title string, kind ChartType, palette Palette, rows []models.TimeSeriesRow, req PriceRequest) (gochart.Chart, error) {
	graph := baseChart(title, palette)

	if kind.bricks() {
		if len(req.MovingAverages) > 0 {
			p.log.Info().Str("type", string(kind)).Msg("moving averages are not drawn on brick charts")
		}
		return p.buildBricks(graph, kind, palette, rows)
	}

	xs := make([]float64, len(rows))
	dates := make([]time.Time, len(rows))
	width := 0.7
	for i, r := range rows {
		dates[i] = r.Date
		xs[i] = float64(i)
	}
	if req.ShowNonTradingDays {
		for i, r := range rows {
			xs[i] = timeX(r.Date)
		}
		width *= nanosPerDay
		graph.XAxis.Range = &gochart.ContinuousRange{
			Min: xs[0] - nanosPerDay,
			Max: xs[len(xs)-1] + nanosPerDay,
		}
		graph.XAxis.ValueFormatter = dateFormatter(utils.DateLayout)
	} else {
		graph.XAxis.Ticks = indexTicks(dates, 8)
	}

	lo, hi := rows[0].Low, rows[0].High
	volumes := make([]int64, len(rows))
	for i, r := range rows {
		lo, hi = min(lo, r.Low), max(hi, r.High)
		volumes[i] = r.Volume
	}
	bottom, top := volumeRange(lo, hi)
	graph.YAxis.Range = &gochart.ContinuousRange{Min: bottom, Max: top}

	graph.Series = append(graph.Series, volumeSeries{xs: xs, volumes: volumes, width: width, palette: palette})
	if kind == Line {
		graph.Series = append(graph.Series, gochart.ContinuousSeries{
			Name:    title,
			XValues: xs,
			YValues: models.Closes(rows),
			Style:   gochart.Style{StrokeColor: palette.Line, StrokeWidth: 2},
		})
	} else {
		graph.Series = append(graph.Series, barSeries{
			name:    title,
			kind:    kind,
			xs:      xs,
			rows:    rows,
			width:   width,
			palette: palette,
		})
	}

	mas, skipped := technical.MovingAverages(models.Closes(rows), req.MovingAverages)
	for _, w := range skipped {
		p.log.Info().Int("window", w).Int("rows", len(rows)).Msg("moving average window too long for range, skipped")
	}
	for i, ma := range mas {
		from := ma.Window - 1
		graph.Series = append(graph.Series, gochart.ContinuousSeries{
			Name:    fmt.Sprintf("MA %d", ma.Window),
			XValues: xs[from:],
			YValues: ma.Values[from:],
			Style:   gochart.Style{StrokeColor: palette.MAColor(i), StrokeWidth: 1.5},
		})
	}
	if len(mas) > 0 {
		withLegend(&graph, palette)
	}
	return graph, nil
}

func (p *PriceRenderer) buildBricks(graph gochart.Chart, kind ChartType, palette Palette, rows []models.TimeSeriesRow) (gochart.Chart, error) {
	atrLength := p.cfg.RenkoATRLength
	if atrLength <= 0 {
		atrLength = 14
	}
	box := technical.BoxSize(rows, atrLength)

	var (
		dates  []time.Time
		levels []float64
	)
	switch kind {
	case Renko:
		bricks := technical.Renko(rows, box)
		if len(bricks) == 0 {
			return graph, fmt.Errorf("%w: price never moved a full %.4g brick", ErrNoData, box)
		}
		for _, b := range bricks {
			dates = append(dates, b.Date)
			levels = append(levels, b.Open, b.Close)
		}
		graph.Series = append(graph.Series, renkoSeries{bricks: bricks, palette: palette})

	case PnF:
		reversal := p.cfg.PnFReversal
		if reversal <= 0 {
			reversal = 3
		}
		cols := technical.PointAndFigure(rows, box, reversal)
		if len(cols) == 0 {
			return graph, fmt.Errorf("%w: price never moved a full %.4g box", ErrNoData, box)
		}
		for _, c := range cols {
			dates = append(dates, c.EndDate)
			levels = append(levels, c.Start-box, c.End-box, c.Start+box, c.End+box)
		}
		graph.Series = append(graph.Series, pnfSeries{columns: cols, box: box, palette: palette})
	}

	p.log.Debug().Float64("box", box).Int("columns", len(dates)).Msg("built brick series")
	graph.XAxis.Ticks = indexTicks(dates, 8)
	graph.YAxis.Range = paddedRange(0.05, levels...)
	return graph, nil
}

// writeTable prints rows as an aligned table.
func writeTable(w io.Writer, symbol string, rows []models.TimeSeriesRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s\t\t\t\t\t\t\n", symbol)
	fmt.Fprintln(tw, "Date\tOpen\tHigh\tLow\tClose\tVolume\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t\n",
			utils.FormatDate(r.Date), r.Open, r.High, r.Low, r.Close, r.Volume)
	}
	return tw.Flush()
}

// fetchError wraps a datasource failure. Unknown tickers and unparseable
// responses become ErrNoData.
func fetchError(what, symbol string, err error) error {
	if errors.Is(err, datasource.ErrTickerNotFound) || errors.Is(err, datasource.ErrMalformed) {
		return fmt.Errorf("%w: %s for %s: %w", ErrNoData, what, symbol, err)
	}
	return fmt.Errorf("fetching %s for %s: %w", what, symbol, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
