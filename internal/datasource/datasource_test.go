package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seenimoa/finchart/internal/config"
	"github.com/seenimoa/finchart/pkg/utils"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	ds, err := New(config.DataConfig{Provider: "csv", CSVDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ds.(*CSV); !ok {
		t.Errorf("expected *CSV, got %T", ds)
	}

	ds, err = New(config.DataConfig{Provider: "yfinance", TimeoutSec: 5, RequestsPerSecond: 1})
	if err != nil {
		t.Fatal(err)
	}
	if ds.Name() != "Yahoo Finance" {
		t.Errorf("Name() = %q", ds.Name())
	}

	if _, err := New(config.DataConfig{Provider: "bloomberg"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("expected ErrUnknownProvider, got %v", err)
	}
}

func TestCSVPriceHistory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL_prices.csv", `date,open,high,low,close,volume
2024-03-04,176.15,176.90,173.79,175.10,81510100
2024-03-01,179.55,180.53,177.38,179.66,73488000
2024-03-05,170.76,172.04,169.62,170.12,95132400
`)
	src := NewCSV(dir)
	from, _ := utils.ParseDate("2024-03-01")
	to, _ := utils.ParseDate("2024-03-04")

	rows, err := src.GetPriceHistory(context.Background(), "aapl", from, to)
	if err != nil {
		t.Fatalf("GetPriceHistory error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows in range, got %d", len(rows))
	}
	if utils.FormatDate(rows[0].Date) != "2024-03-01" {
		t.Errorf("rows not sorted: %+v", rows)
	}
	if rows[1].Volume != 81510100 {
		t.Errorf("Volume = %d", rows[1].Volume)
	}
}

func TestCSVMissingFileIsNoData(t *testing.T) {
	src := NewCSV(t.TempDir())
	rows, err := src.GetPriceHistory(context.Background(), "MSFT", utils.DaysBefore(utils.Date(testNow()), 10), testNow())
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}

	eps, err := src.GetIncomeStatement(context.Background(), "MSFT")
	if err != nil || len(eps) != 0 {
		t.Errorf("expected empty EPS, got %v, %v", eps, err)
	}
}

func TestCSVMalformedPrice(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "AAPL_prices.csv", "date,open,high,low,close,volume\n2024-03-01,abc,1,1,1,1\n")
	src := NewCSV(dir)
	from, _ := utils.ParseDate("2024-01-01")
	to, _ := utils.ParseDate("2024-12-31")
	if _, err := src.GetPriceHistory(context.Background(), "AAPL", from, to); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}

	writeFile(t, dir, "AAPL_eps.csv", "period_end,diluted_eps\n2024-03-30,n/a\n")
	if _, err := src.GetIncomeStatement(context.Background(), "AAPL"); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed for EPS, got %v", err)
	}
}

func TestCSVIncomeStatementAndCompany(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "GSPC_prices.csv", "date,open,high,low,close,volume\n2024-03-01,1,1,1,1,0\n")
	writeFile(t, dir, "AAPL_eps.csv", `period_end,diluted_eps,period_type
2024-03-30,1.53,3M
2023-09-30,1.46,
2023-12-30,2.18,3M
`)
	writeFile(t, dir, "companies.csv", "symbol,display_name,currency,exchange\nAAPL,Apple Inc.,USD,NasdaqGS\n")
	src := NewCSV(dir)

	eps, err := src.GetIncomeStatement(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 3 || utils.FormatDate(eps[0].PeriodEnd) != "2023-09-30" {
		t.Fatalf("unexpected EPS rows: %+v", eps)
	}
	if eps[0].PeriodType != "3M" {
		t.Errorf("default period type = %q", eps[0].PeriodType)
	}

	info, err := src.GetCompanyInfo(context.Background(), "aapl")
	if err != nil {
		t.Fatal(err)
	}
	if info.DisplayName != "Apple Inc." || info.Exchange != "NasdaqGS" {
		t.Errorf("info = %+v", info)
	}

	// Index symbols map onto file-safe names.
	from, _ := utils.ParseDate("2024-01-01")
	to, _ := utils.ParseDate("2024-12-31")
	rows, err := src.GetPriceHistory(context.Background(), "^GSPC", from, to)
	if err != nil || len(rows) != 1 {
		t.Errorf("index lookup: rows=%v err=%v", rows, err)
	}

	unknown, err := src.GetCompanyInfo(context.Background(), "MSFT")
	if err != nil || unknown.Name() != "MSFT" {
		t.Errorf("unknown company: %+v, %v", unknown, err)
	}
}

func testNow() time.Time { return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) }
