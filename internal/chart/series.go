package chart

import (
	"fmt"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/seenimoa/finchart/internal/analysis/technical"
	"github.com/seenimoa/finchart/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Drawing helpers
// ════════════════════════════════════════════════════════════════════

func toPixelX(box gochart.Box, xr gochart.Range, x float64) int {
	return box.Left + xr.Translate(x)
}

func toPixelY(box gochart.Box, yr gochart.Range, y float64) int {
	return box.Bottom - yr.Translate(y)
}

// halfWidth converts a width in x units to half its pixel width, at least 1.
func halfWidth(xr gochart.Range, width float64) int {
	if xr.GetDelta() == 0 {
		return 1
	}
	hw := int(float64(xr.GetDomain()) * width / xr.GetDelta() / 2)
	if hw < 1 {
		return 1
	}
	return hw
}

func drawLine(r gochart.Renderer, x0, y0, x1, y1 int, color drawing.Color, width float64) {
	r.SetStrokeColor(color)
	r.SetStrokeWidth(width)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y1)
	r.Stroke()
}

func rectPath(r gochart.Renderer, x0, y0, x1, y1 int) {
	if y0 == y1 {
		y1++
	}
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.LineTo(x0, y0)
	r.Close()
}

func fillRect(r gochart.Renderer, x0, y0, x1, y1 int, fill, edge drawing.Color) {
	r.SetFillColor(fill)
	r.SetStrokeColor(edge)
	r.SetStrokeWidth(1)
	rectPath(r, x0, y0, x1, y1)
	r.FillStroke()
}

func strokeRect(r gochart.Renderer, x0, y0, x1, y1 int, edge drawing.Color) {
	r.SetStrokeColor(edge)
	r.SetStrokeWidth(1)
	rectPath(r, x0, y0, x1, y1)
	r.Stroke()
}

// ════════════════════════════════════════════════════════════════════
// OHLC bars: candle, ohlc, hollow_and_filled
// ════════════════════════════════════════════════════════════════════

// barSeries draws one glyph per row at xs[i]; width is in x units.
type barSeries struct {
	name    string
	kind    ChartType
	xs      []float64
	rows    []models.TimeSeriesRow
	width   float64
	palette Palette
}

func (s barSeries) GetName() string             { return s.name }
func (s barSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (s barSeries) GetStyle() gochart.Style     { return gochart.Style{StrokeColor: s.palette.Up, StrokeWidth: 2} }
func (s barSeries) Len() int                    { return len(s.rows) }

func (s barSeries) GetBoundedValues(i int) (x, y1, y2 float64) {
	return s.xs[i], s.rows[i].High, s.rows[i].Low
}

func (s barSeries) Validate() error {
	if len(s.rows) == 0 {
		return fmt.Errorf("%s: no rows", s.name)
	}
	if len(s.xs) != len(s.rows) {
		return fmt.Errorf("%s: %d x values for %d rows", s.name, len(s.xs), len(s.rows))
	}
	return nil
}

func (s barSeries) Render(r gochart.Renderer, box gochart.Box, xr, yr gochart.Range, _ gochart.Style) {
	hw := halfWidth(xr, s.width)
	for i, row := range s.rows {
		x := toPixelX(box, xr, s.xs[i])
		yo, yc := toPixelY(box, yr, row.Open), toPixelY(box, yr, row.Close)
		yh, yl := toPixelY(box, yr, row.High), toPixelY(box, yr, row.Low)

		color := s.palette.Down
		if row.Close >= row.Open {
			color = s.palette.Up
		}

		switch s.kind {
		case OHLC:
			drawLine(r, x, yh, x, yl, color, 1.5)
			drawLine(r, x-hw, yo, x, yo, color, 1.5)
			drawLine(r, x, yc, x+hw, yc, color, 1.5)

		case HollowAndFilled:
			// Color follows the previous close; hollow bodies mark close above open.
			color = s.palette.Up
			if i > 0 && row.Close < s.rows[i-1].Close {
				color = s.palette.Down
			}
			top, bottom := min(yo, yc), max(yo, yc)
			drawLine(r, x, yh, x, top, color, 1)
			drawLine(r, x, bottom, x, yl, color, 1)
			if row.Close > row.Open {
				strokeRect(r, x-hw, top, x+hw, bottom, color)
			} else {
				fillRect(r, x-hw, top, x+hw, bottom, color, color)
			}

		default:
			top, bottom := min(yo, yc), max(yo, yc)
			drawLine(r, x, yh, x, top, s.palette.Edge, 1)
			drawLine(r, x, bottom, x, yl, s.palette.Edge, 1)
			fillRect(r, x-hw, top, x+hw, bottom, color, s.palette.Edge)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// Volume band
// ════════════════════════════════════════════════════════════════════

// volumeBandRatio is the share of the plot height given to volume bars.
const volumeBandRatio = 0.25

// volumeSeries scales its own bars into the bottom band of the plot and
// ignores the y range.
type volumeSeries struct {
	xs      []float64
	volumes []int64
	width   float64
	palette Palette
}

func (s volumeSeries) GetName() string             { return "Volume" }
func (s volumeSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (s volumeSeries) GetStyle() gochart.Style     { return gochart.Style{StrokeColor: s.palette.Volume} }

func (s volumeSeries) Validate() error {
	if len(s.xs) != len(s.volumes) {
		return fmt.Errorf("volume: %d x values for %d volumes", len(s.xs), len(s.volumes))
	}
	return nil
}

func (s volumeSeries) Render(r gochart.Renderer, box gochart.Box, xr, _ gochart.Range, _ gochart.Style) {
	var peak int64
	for _, v := range s.volumes {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		return
	}

	band := float64(box.Height()) * volumeBandRatio
	hw := halfWidth(xr, s.width)
	for i, v := range s.volumes {
		h := int(band * float64(v) / float64(peak))
		if h == 0 {
			continue
		}
		x := toPixelX(box, xr, s.xs[i])
		fillRect(r, x-hw, box.Bottom-h, x+hw, box.Bottom, s.palette.Volume, s.palette.Volume)
	}
}

// volumeRange pads a price range downward so prices clear the volume band.
func volumeRange(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span <= 0 {
		span = math.Max(math.Abs(hi)*0.02, 1)
	}
	top := hi + span*0.05
	bottom := lo - span*0.05
	bottom -= (top - bottom) * volumeBandRatio / (1 - volumeBandRatio)
	return bottom, top
}

// ════════════════════════════════════════════════════════════════════
// Renko bricks and point & figure columns
// ════════════════════════════════════════════════════════════════════

type renkoSeries struct {
	bricks  []technical.Brick
	palette Palette
}

func (s renkoSeries) GetName() string             { return "Renko" }
func (s renkoSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (s renkoSeries) GetStyle() gochart.Style     { return gochart.Style{StrokeColor: s.palette.Up} }

func (s renkoSeries) Validate() error {
	if len(s.bricks) == 0 {
		return fmt.Errorf("renko: no bricks")
	}
	return nil
}

func (s renkoSeries) Render(r gochart.Renderer, box gochart.Box, xr, yr gochart.Range, _ gochart.Style) {
	hw := halfWidth(xr, 0.9)
	for i, b := range s.bricks {
		x := toPixelX(box, xr, float64(i))
		color := s.palette.Down
		if b.Up() {
			color = s.palette.Up
		}
		y0, y1 := toPixelY(box, yr, math.Max(b.Open, b.Close)), toPixelY(box, yr, math.Min(b.Open, b.Close))
		fillRect(r, x-hw, y0, x+hw, y1, color, s.palette.Edge)
	}
}

type pnfSeries struct {
	columns []technical.PnFColumn
	box     float64
	palette Palette
}

func (s pnfSeries) GetName() string             { return "Point & Figure" }
func (s pnfSeries) GetYAxis() gochart.YAxisType { return gochart.YAxisPrimary }
func (s pnfSeries) GetStyle() gochart.Style     { return gochart.Style{StrokeColor: s.palette.Up} }

func (s pnfSeries) Validate() error {
	if len(s.columns) == 0 {
		return fmt.Errorf("pnf: no columns")
	}
	if s.box <= 0 {
		return fmt.Errorf("pnf: box size %v", s.box)
	}
	return nil
}

func (s pnfSeries) Render(r gochart.Renderer, box gochart.Box, xr, yr gochart.Range, _ gochart.Style) {
	hw := halfWidth(xr, 0.8)
	for i, col := range s.columns {
		x := toPixelX(box, xr, float64(i))
		step := s.box
		if !col.Up {
			step = -s.box
		}
		for k := 0; k < col.Boxes(s.box); k++ {
			level := col.Start + float64(k)*step
			top := toPixelY(box, yr, level+s.box/2)
			bottom := toPixelY(box, yr, level-s.box/2)
			if col.Up {
				drawLine(r, x-hw, top, x+hw, bottom, s.palette.Up, 1.5)
				drawLine(r, x-hw, bottom, x+hw, top, s.palette.Up, 1.5)
				continue
			}
			radius := float64(min(hw, (bottom-top)/2))
			r.SetStrokeColor(s.palette.Down)
			r.SetStrokeWidth(1.5)
			r.SetFillColor(drawing.Color{})
			r.Circle(math.Max(radius, 1), x, (top+bottom)/2)
			r.Stroke()
		}
	}
}
