// Package fundamental aligns quarterly earnings with daily prices to build
// a trailing price-to-earnings series.
package fundamental

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/finchart/pkg/models"
	"github.com/seenimoa/finchart/pkg/utils"
)

var (
	// ErrDivisionByZero is returned when an aligned filing reports zero EPS.
	ErrDivisionByZero = errors.New("EPS is zero")
	// ErrNoAlignment marks a filing dated before the first available price row.
	ErrNoAlignment = errors.New("no trading day on or before filing date")
)

// AnnualizedEPS scales a filing's diluted EPS to a yearly figure. Quarterly
// values are multiplied by four, which approximates a trailing-twelve-month
// sum; annual values are used as reported.
func AnnualizedEPS(row models.FundamentalsRow) decimal.Decimal {
	switch row.PeriodType {
	case models.PeriodAnnual:
		return row.DilutedEPS
	case "6M":
		return row.DilutedEPS.Mul(decimal.NewFromInt(2))
	default:
		return row.DilutedEPS.Mul(decimal.NewFromInt(4))
	}
}

// AsOfIndex returns the index of the latest row dated on or before date.
// Rows must be sorted ascending by date.
func AsOfIndex(rows []models.TimeSeriesRow, date time.Time) (int, bool) {
	date = utils.Date(date)
	i := sort.Search(len(rows), func(i int) bool {
		return rows[i].Date.After(date)
	})
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// AlignmentFailure records a filing that could not be matched to a price.
type AlignmentFailure struct {
	PeriodEnd time.Time
	Err       error
}

func (f AlignmentFailure) Error() string {
	return fmt.Sprintf("%s: %v", utils.FormatDate(f.PeriodEnd), f.Err)
}

// AlignPE matches every filing to the most recent close on or before its
// period end and divides that close by the annualized EPS. Filings with no
// such close are reported as failures and left out of the result. A zero
// EPS on an aligned filing aborts the whole computation.
func AlignPE(prices []models.TimeSeriesRow, filings []models.FundamentalsRow) ([]models.AlignedPERow, []AlignmentFailure, error) {
	var (
		out      []models.AlignedPERow
		failures []AlignmentFailure
	)
	for _, f := range filings {
		idx, ok := AsOfIndex(prices, f.PeriodEnd)
		if !ok {
			failures = append(failures, AlignmentFailure{PeriodEnd: f.PeriodEnd, Err: ErrNoAlignment})
			continue
		}

		eps := AnnualizedEPS(f)
		if eps.IsZero() {
			return nil, failures, fmt.Errorf("filing %s: %w", utils.FormatDate(f.PeriodEnd), ErrDivisionByZero)
		}

		px := prices[idx]
		out = append(out, models.AlignedPERow{
			Date:        utils.Date(f.PeriodEnd),
			PriceDate:   px.Date,
			Close:       px.Close,
			TrailingEPS: eps,
			PE:          decimal.NewFromFloat(px.Close).Div(eps),
		})
	}
	return out, failures, nil
}

// LatestEPS returns the annualized EPS of the most recent filing.
func LatestEPS(filings []models.FundamentalsRow) (decimal.Decimal, bool) {
	if len(filings) == 0 {
		return decimal.Zero, false
	}
	latest := filings[0]
	for _, f := range filings[1:] {
		if f.PeriodEnd.After(latest.PeriodEnd) {
			latest = f
		}
	}
	return AnnualizedEPS(latest), true
}
