// Package datasource provides market data fetching for the chart renderers.
// It defines a common DataSource interface and implements a Yahoo Finance
// source and an offline CSV source.
package datasource

import (
	"errors"
	"context"
	"fmt"
	"time"

	"github.com/seenimoa/finchart/internal/config"
	"github.com/seenimoa/finchart/internal/infra"
	"github.com/seenimoa/finchart/pkg/models"
)

// DataSource defines the interface the renderers fetch through.
// Empty slices signal "no data" and are not errors.
type DataSource interface {
	// Name returns the human-readable name of this data source.
	Name() string

	// GetPriceHistory returns daily OHLCV rows for [from, to], both inclusive,
	// in ascending date order.
	GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.TimeSeriesRow, error)

	// GetCompanyInfo returns descriptive data for the symbol.
	GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error)

	// GetIncomeStatement returns the diluted EPS filing history in ascending
	// period order.
	GetIncomeStatement(ctx context.Context, symbol string) ([]models.FundamentalsRow, error)
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker cannot be resolved.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrMalformed is returned when a source answers with data it cannot parse.
var ErrMalformed = errors.New("malformed data")

// ErrUnknownProvider is returned by New for an unsupported provider name.
var ErrUnknownProvider = errors.New("unknown data provider")

// New builds the data source selected by cfg.Provider.
func New(cfg config.DataConfig) (DataSource, error) {
	switch cfg.Provider {
	case "yfinance", "":
		client := infra.NewClient(time.Duration(cfg.TimeoutSec)*time.Second, cfg.RequestsPerSecond)
		return NewYFinance(client, YFinanceEndpoints{
			Chart:      cfg.ChartURL,
			Timeseries: cfg.TimeseriesURL,
			QuotePage:  cfg.QuotePageURL,
		}), nil
	case "csv":
		return NewCSV(cfg.CSVDir), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
