package technical

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/seenimoa/finchart/pkg/models"
)

// BoxSize returns the renko brick / point-and-figure box size: the latest
// ATR over atrLength rows, or 1% of the last close when there are too few
// rows for an ATR.
func BoxSize(rows []models.TimeSeriesRow, atrLength int) float64 {
	if len(rows) == 0 {
		return 0
	}
	fallback := rows[len(rows)-1].Close * 0.01
	if atrLength < 1 || len(rows) <= atrLength {
		return fallback
	}

	high := make([]float64, len(rows))
	low := make([]float64, len(rows))
	closes := make([]float64, len(rows))
	for i, r := range rows {
		high[i], low[i], closes[i] = r.High, r.Low, r.Close
	}
	atr := talib.Atr(high, low, closes, atrLength)
	if last := atr[len(atr)-1]; last > 0 && !math.IsNaN(last) {
		return last
	}
	return fallback
}

// Brick is one renko brick.
type Brick struct {
	Date  time.Time // close date that completed the brick
	Open  float64
	Close float64
}

// Up reports whether the brick is rising.
func (b Brick) Up() bool { return b.Close > b.Open }

// Renko builds close-based renko bricks. A new brick in the current direction
// needs one box of movement past the last brick; a reversal needs two.
func Renko(rows []models.TimeSeriesRow, box float64) []Brick {
	if len(rows) < 2 || box <= 0 {
		return nil
	}

	var bricks []Brick
	top, bottom := rows[0].Close, rows[0].Close
	for _, r := range rows[1:] {
		for r.Close >= top+box {
			bricks = append(bricks, Brick{Date: r.Date, Open: top, Close: top + box})
			bottom, top = top, top+box
		}
		for r.Close <= bottom-box {
			bricks = append(bricks, Brick{Date: r.Date, Open: bottom, Close: bottom - box})
			top, bottom = bottom, bottom-box
		}
	}
	return bricks
}

// PnFColumn is one point-and-figure column of X's (Up) or O's.
type PnFColumn struct {
	Up        bool
	Start     float64 // first box level
	End       float64 // last box level
	StartDate time.Time
	EndDate   time.Time
}

// Boxes returns the number of boxes in the column for the given box size.
func (c PnFColumn) Boxes(box float64) int {
	return int(math.Round(math.Abs(c.End-c.Start)/box)) + 1
}

// PointAndFigure builds close-based point-and-figure columns. A column
// extends on every full box in its direction and reverses after reversal
// boxes against it.
func PointAndFigure(rows []models.TimeSeriesRow, box float64, reversal int) []PnFColumn {
	if len(rows) < 2 || box <= 0 || reversal < 1 {
		return nil
	}
	boxes := func(d float64) float64 { return math.Floor(d/box + 1e-9) }

	var cols []PnFColumn
	ref := rows[0].Close
	for _, r := range rows[1:] {
		if len(cols) == 0 {
			switch {
			case r.Close >= ref+box:
				cols = append(cols, PnFColumn{Up: true, Start: ref + box, End: ref + boxes(r.Close-ref)*box, StartDate: r.Date, EndDate: r.Date})
			case r.Close <= ref-box:
				cols = append(cols, PnFColumn{Up: false, Start: ref - box, End: ref - boxes(ref-r.Close)*box, StartDate: r.Date, EndDate: r.Date})
			}
			continue
		}

		cur := &cols[len(cols)-1]
		if cur.Up {
			if n := boxes(r.Close - cur.End); n >= 1 {
				cur.End += n * box
				cur.EndDate = r.Date
			} else if n := boxes(cur.End - r.Close); n >= float64(reversal) {
				cols = append(cols, PnFColumn{Up: false, Start: cur.End - box, End: cur.End - n*box, StartDate: r.Date, EndDate: r.Date})
			}
		} else {
			if n := boxes(cur.End - r.Close); n >= 1 {
				cur.End -= n * box
				cur.EndDate = r.Date
			} else if n := boxes(r.Close - cur.End); n >= float64(reversal) {
				cols = append(cols, PnFColumn{Up: true, Start: cur.End + box, End: cur.End + n*box, StartDate: r.Date, EndDate: r.Date})
			}
		}
	}
	return cols
}
