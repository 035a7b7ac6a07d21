package technical

import (
	"errors"

	"github.com/seenimoa/finchart/pkg/models"
)

var (
	// ErrEmptySeries is returned when there is nothing to normalize.
	ErrEmptySeries = errors.New("empty series")
	// ErrNonPositiveBase is returned when the first close cannot anchor a percent change.
	ErrNonPositiveBase = errors.New("first close is not positive")
)

// PercentChange rescales closes to percent change from the first row:
// (close[i] - close[0]) / close[0] * 100. The first point is exactly 0.
func PercentChange(rows []models.TimeSeriesRow) ([]models.NormalizedPoint, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySeries
	}
	base := rows[0].Close
	if base <= 0 {
		return nil, ErrNonPositiveBase
	}

	out := make([]models.NormalizedPoint, len(rows))
	for i, r := range rows {
		out[i] = models.NormalizedPoint{
			Date:          r.Date,
			PercentChange: (r.Close - base) / base * 100,
		}
	}
	return out, nil
}
