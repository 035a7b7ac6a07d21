package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reporting period types for fundamentals rows.
const (
	PeriodQuarterly = "3M"
	PeriodAnnual    = "12M"
)

// FundamentalsRow is one diluted EPS figure from a periodic filing.
type FundamentalsRow struct {
	PeriodEnd  time.Time       `json:"period_end"`
	DilutedEPS decimal.Decimal `json:"diluted_eps"`
	PeriodType string          `json:"period_type"` // "3M" or "12M"
}

// AlignedPERow pairs a filing with the close of the last trading day at or
// before it.
type AlignedPERow struct {
	Date        time.Time       `json:"date"`       // filing period end
	PriceDate   time.Time       `json:"price_date"` // matched trading day
	Close       float64         `json:"close"`
	TrailingEPS decimal.Decimal `json:"trailing_eps"`
	PE          decimal.Decimal `json:"pe"`
}
