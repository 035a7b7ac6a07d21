// Package technical holds the price-series transforms behind the price and
// performance charts.
package technical

import (
	"math"

	"github.com/markcheno/go-talib"
)

// MovingAverage is a simple moving average aligned index-for-index with the
// input closes. Entries before the window fills are NaN.
type MovingAverage struct {
	Window int
	Values []float64
}

// MovingAverages computes an SMA for each window, preserving order and
// dropping duplicates. Windows that are not smaller than len(closes) cannot
// produce a line and are returned in skipped instead.
func MovingAverages(closes []float64, windows []int) (mas []MovingAverage, skipped []int) {
	seen := make(map[int]bool, len(windows))
	for _, w := range windows {
		if seen[w] {
			continue
		}
		seen[w] = true

		if w <= 0 || w >= len(closes) {
			skipped = append(skipped, w)
			continue
		}
		vals := talib.Sma(closes, w)
		for i := 0; i < w-1; i++ {
			vals[i] = math.NaN()
		}
		mas = append(mas, MovingAverage{Window: w, Values: vals})
	}
	return mas, skipped
}
