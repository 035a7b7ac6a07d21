package chart

import (
	"fmt"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/seenimoa/finchart/pkg/utils"
)

const nanosPerDay = float64(24 * time.Hour)

// timeX maps a date to the x value used on calendar axes.
func timeX(t time.Time) float64 {
	return float64(t.UnixNano())
}

// dateFormatter labels calendar-axis values in UTC with layout.
func dateFormatter(layout string) gochart.ValueFormatter {
	return func(v interface{}) string {
		switch typed := v.(type) {
		case float64:
			return time.Unix(0, int64(typed)).UTC().Format(layout)
		case time.Time:
			return typed.UTC().Format(layout)
		}
		return ""
	}
}

// numberFormatter formats y values with the given precision and suffix.
func numberFormatter(precision int, suffix string) gochart.ValueFormatter {
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("%.*f%s", precision, f, suffix)
		}
		return ""
	}
}

// indexTicks labels row positions 0..len(dates)-1 with their dates. Two
// unlabelled ticks half a slot beyond the ends widen the axis so the outer
// bars are not clipped.
func indexTicks(dates []time.Time, maxLabels int) []gochart.Tick {
	n := len(dates)
	ticks := []gochart.Tick{{Value: -1}}
	if n == 0 {
		return append(ticks, gochart.Tick{Value: 1})
	}

	labels := min(maxLabels, n)
	last := -1
	for k := 0; k < labels; k++ {
		idx := 0
		if labels > 1 {
			idx = int(math.Round(float64(k) * float64(n-1) / float64(labels-1)))
		}
		if idx == last {
			continue
		}
		last = idx
		ticks = append(ticks, gochart.Tick{Value: float64(idx), Label: utils.FormatDate(dates[idx])})
	}
	return append(ticks, gochart.Tick{Value: float64(n)})
}

// monthTicks places ticks at start, every stepMonths after it while before
// end, and at end.
func monthTicks(start, end time.Time, stepMonths int, layout string) []gochart.Tick {
	format := dateFormatter(layout)
	ticks := []gochart.Tick{{Value: timeX(start), Label: format(timeX(start))}}
	for t := start.AddDate(0, stepMonths, 0); t.Before(end); t = t.AddDate(0, stepMonths, 0) {
		ticks = append(ticks, gochart.Tick{Value: timeX(t), Label: format(timeX(t))})
	}
	return append(ticks, gochart.Tick{Value: timeX(end), Label: format(timeX(end))})
}

// paddedRange returns a continuous range covering values with frac padding
// on both sides. A flat or empty input still yields a non-zero span.
func paddedRange(frac float64, values ...float64) *gochart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 1) {
		return &gochart.ContinuousRange{Min: 0, Max: 1}
	}
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(hi)*0.02, 1)
	}
	return &gochart.ContinuousRange{Min: lo - span*frac, Max: hi + span*frac}
}

// baseChart applies the palette to an empty chart.
func baseChart(title string, p Palette) gochart.Chart {
	axis := gochart.Style{
		StrokeColor: p.Text,
		FontColor:   p.Text,
		FontSize:    9,
	}
	grid := gochart.Style{StrokeColor: p.Grid, StrokeWidth: 1}

	return gochart.Chart{
		Title:      title,
		TitleStyle: gochart.Style{FontColor: p.Text, FontSize: 13},
		Background: gochart.Style{
			FillColor: p.Background,
			Padding:   gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: gochart.Style{FillColor: p.Background},
		XAxis: gochart.XAxis{
			Style:          axis,
			GridMajorStyle: grid,
		},
		YAxis: gochart.YAxis{
			Style:          axis,
			GridMajorStyle: grid,
			ValueFormatter: numberFormatter(2, ""),
		},
	}
}

// withLegend attaches a legend drawn in the palette's colors.
func withLegend(graph *gochart.Chart, p Palette) {
	graph.Elements = append(graph.Elements, gochart.Legend(graph, gochart.Style{
		FillColor:   p.Background,
		FontColor:   p.Text,
		StrokeColor: p.Grid,
	}))
}
