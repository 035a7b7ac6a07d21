package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/finchart/internal/infra"
	"github.com/seenimoa/finchart/pkg/utils"
)

// 2024-03-01 .. 2024-03-05 14:30 UTC (09:30 New York), with a null bar on
// the weekend placeholder.
const chartJSON = `{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL",
"exchangeName":"NMS","fullExchangeName":"NasdaqGS","exchangeTimezoneName":"America/New_York",
"gmtoffset":-18000,"longName":"Apple Inc.","shortName":"Apple Inc."},
"timestamp":[1709303400,1709389800,1709562600,1709649000],
"indicators":{"quote":[{
"open":[179.55,null,176.15,170.76],
"high":[180.53,null,176.90,172.04],
"low":[177.38,null,173.79,169.62],
"close":[179.66,null,175.10,170.12],
"volume":[73488000,null,81510100,95132400]}]}}],"error":null}}`

const timeseriesJSON = `{"timeseries":{"result":[{"meta":{"symbol":["AAPL"],"type":["quarterlyDilutedEPS"]},
"timestamp":[1696032000,1703980800,1711843200],
"quarterlyDilutedEPS":[
{"asOfDate":"2023-12-30","periodType":"3M","currencyCode":"USD","reportedValue":{"raw":2.18,"fmt":"2.18"}},
null,
{"asOfDate":"2023-09-30","periodType":"3M","currencyCode":"USD","reportedValue":{"raw":1.46,"fmt":"1.46"}},
{"asOfDate":"2024-03-30","periodType":"3M","currencyCode":"USD","reportedValue":{"raw":1.53,"fmt":"1.53"}}]}],
"error":null}}`

func newTestYFinance(t *testing.T, handler http.HandlerFunc) *YFinance {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewYFinance(infra.NewClient(5*time.Second, 100), YFinanceEndpoints{
		Chart:      srv.URL + "/chart",
		Timeseries: srv.URL + "/timeseries",
		QuotePage:  srv.URL + "/quote",
	})
}

func TestYFinanceGetPriceHistory(t *testing.T) {
	yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/chart/AAPL") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("interval = %q", r.URL.Query().Get("interval"))
		}
		w.Write([]byte(chartJSON))
	})

	from, _ := utils.ParseDate("2024-03-01")
	to, _ := utils.ParseDate("2024-03-05")
	rows, err := yf.GetPriceHistory(context.Background(), "aapl", from, to)
	if err != nil {
		t.Fatalf("GetPriceHistory error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (null bar skipped), got %d", len(rows))
	}
	want := []string{"2024-03-01", "2024-03-04", "2024-03-05"}
	for i, r := range rows {
		if got := utils.FormatDate(r.Date); got != want[i] {
			t.Errorf("row %d date = %s, want %s", i, got, want[i])
		}
		if r.Date.Location() != time.UTC || r.Date.Hour() != 0 {
			t.Errorf("row %d date not a naive calendar date: %v", i, r.Date)
		}
	}
	if rows[0].Close != 179.66 || rows[2].Volume != 95132400 {
		t.Errorf("unexpected values: %+v", rows)
	}
}

func TestYFinanceGetPriceHistoryFiltersRange(t *testing.T) {
	yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	})
	from, _ := utils.ParseDate("2024-03-04")
	to, _ := utils.ParseDate("2024-03-04")
	rows, err := yf.GetPriceHistory(context.Background(), "AAPL", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || utils.FormatDate(rows[0].Date) != "2024-03-04" {
		t.Errorf("expected only 2024-03-04, got %+v", rows)
	}
}

func TestYFinanceNotFound(t *testing.T) {
	const notFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
	for _, status := range []int{http.StatusOK, http.StatusNotFound} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				w.Write([]byte(notFound))
			})
			_, err := yf.GetPriceHistory(context.Background(), "ZZZZ", time.Now().AddDate(0, 0, -5), time.Now())
			if !errors.Is(err, ErrTickerNotFound) {
				t.Errorf("expected ErrTickerNotFound, got %v", err)
			}
		})
	}
}

func TestYFinanceIncomeStatementNotFound(t *testing.T) {
	yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"finance":{"error":{"code":"Not Found"}}}`, http.StatusNotFound)
	})
	if _, err := yf.GetIncomeStatement(context.Background(), "ZZZZ"); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("expected ErrTickerNotFound, got %v", err)
	}
}

func TestYFinanceServerErrorStaysGeneric(t *testing.T) {
	yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	_, err := yf.GetPriceHistory(context.Background(), "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
	if err == nil || errors.Is(err, ErrTickerNotFound) {
		t.Fatalf("expected a non-not-found error, got %v", err)
	}
	var httpErr *infra.ErrHTTP
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected *infra.ErrHTTP 502, got %v", err)
	}
}

func TestYFinanceMalformedJSON(t *testing.T) {
	yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":`))
	})
	_, err := yf.GetPriceHistory(context.Background(), "AAPL", time.Now().AddDate(0, 0, -5), time.Now())
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestYFinanceGetIncomeStatement(t *testing.T) {
	yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != epsSeriesType {
			t.Errorf("type = %q", r.URL.Query().Get("type"))
		}
		w.Write([]byte(timeseriesJSON))
	})

	rows, err := yf.GetIncomeStatement(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetIncomeStatement error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 filings, got %d", len(rows))
	}
	if utils.FormatDate(rows[0].PeriodEnd) != "2023-09-30" || rows[0].DilutedEPS.String() != "1.46" {
		t.Errorf("first filing = %+v", rows[0])
	}
	if utils.FormatDate(rows[2].PeriodEnd) != "2024-03-30" {
		t.Errorf("filings not sorted: %+v", rows)
	}
	if rows[1].PeriodType != "3M" {
		t.Errorf("PeriodType = %q", rows[1].PeriodType)
	}
}

func TestYFinanceCompanyInfoFromMeta(t *testing.T) {
	yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chartJSON))
	})
	info, err := yf.GetCompanyInfo(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if info.DisplayName != "Apple Inc." || info.Exchange != "NasdaqGS" || info.Currency != "USD" {
		t.Errorf("info = %+v", info)
	}
}

func TestYFinanceCompanyInfoScrapeFallback(t *testing.T) {
	yf := newTestYFinance(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/chart") {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><body><section><h1>Microsoft Corporation (MSFT)</h1></section></body></html>`))
	})
	info, err := yf.GetCompanyInfo(context.Background(), "MSFT")
	if err != nil {
		t.Fatal(err)
	}
	if info.DisplayName != "Microsoft Corporation" {
		t.Errorf("DisplayName = %q", info.DisplayName)
	}
}
