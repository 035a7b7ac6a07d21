package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/finchart/internal/infra"
	"github.com/seenimoa/finchart/pkg/models"
	"github.com/seenimoa/finchart/pkg/utils"
)

// YFinanceEndpoints holds the base URLs of the Yahoo Finance APIs used.
type YFinanceEndpoints struct {
	Chart      string // v8 chart API
	Timeseries string // fundamentals-timeseries API
	QuotePage  string // HTML quote page, used for display names
}

// YFinance implements DataSource using Yahoo Finance public endpoints.
type YFinance struct {
	client    *infra.Client
	endpoints YFinanceEndpoints
}

// NewYFinance creates a new Yahoo Finance data source.
func NewYFinance(client *infra.Client, endpoints YFinanceEndpoints) *YFinance {
	return &YFinance{client: client, endpoints: endpoints}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance v8 chart API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol               string `json:"symbol"`
	Currency             string `json:"currency"`
	ExchangeName         string `json:"exchangeName"`
	FullExchangeName     string `json:"fullExchangeName"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	GMTOffset            int    `json:"gmtoffset"`
	LongName             string `json:"longName"`
	ShortName            string `json:"shortName"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- fundamentals-timeseries API types ---

type yfTimeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yfError                     `json:"error"`
	} `json:"timeseries"`
}

type yfTimeseriesMeta struct {
	Symbol []string `json:"symbol"`
	Type   []string `json:"type"`
}

type yfTimeseriesPoint struct {
	AsOfDate      string `json:"asOfDate"`
	PeriodType    string `json:"periodType"`
	ReportedValue struct {
		Raw json.Number `json:"raw"`
	} `json:"reportedValue"`
}

const epsSeriesType = "quarterlyDilutedEPS"

// --- Public methods ---

// GetPriceHistory returns daily bars from the Yahoo Finance chart API.
func (y *YFinance) GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.TimeSeriesRow, error) {
	sym := utils.NormalizeTicker(symbol)
	from, to = utils.Date(from), utils.Date(to)

	q := url.Values{}
	q.Set("period1", fmt.Sprint(from.Unix()))
	// period2 is exclusive on Yahoo's side.
	q.Set("period2", fmt.Sprint(to.AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")

	result, err := y.chart(ctx, sym, q)
	if err != nil {
		return nil, err
	}

	rows := parseYFRows(result)
	out := rows[:0]
	for _, r := range rows {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// GetCompanyInfo returns the display name from chart metadata, falling back
// to the quote page heading.
func (y *YFinance) GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	sym := utils.NormalizeTicker(symbol)

	q := url.Values{}
	q.Set("range", "5d")
	q.Set("interval", "1d")

	info := &models.CompanyInfo{Symbol: sym}
	result, err := y.chart(ctx, sym, q)
	if err == nil {
		info.DisplayName = coalesce(result.Meta.LongName, result.Meta.ShortName)
		info.Currency = result.Meta.Currency
		info.Exchange = coalesce(result.Meta.FullExchangeName, result.Meta.ExchangeName)
		if info.DisplayName != "" {
			return info, nil
		}
	}

	name, scrapeErr := y.scrapeDisplayName(ctx, sym)
	if scrapeErr != nil {
		if err != nil {
			return nil, fmt.Errorf("yfinance company info %s: %w", sym, err)
		}
		return nil, fmt.Errorf("yfinance company info %s: %w", sym, scrapeErr)
	}
	info.DisplayName = name
	return info, nil
}

// GetIncomeStatement returns the quarterly diluted EPS history.
func (y *YFinance) GetIncomeStatement(ctx context.Context, symbol string) ([]models.FundamentalsRow, error) {
	sym := utils.NormalizeTicker(symbol)

	q := url.Values{}
	q.Set("symbol", sym)
	q.Set("type", epsSeriesType)
	q.Set("period1", "493590046")
	q.Set("period2", fmt.Sprint(time.Now().Unix()))

	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimRight(y.endpoints.Timeseries, "/"), url.PathEscape(sym), q.Encode())

	var resp yfTimeseriesResponse
	if err := y.fetchJSON(ctx, endpoint, &resp); err != nil {
		if isHTTPNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
		}
		return nil, fmt.Errorf("yfinance timeseries %s: %w", sym, err)
	}
	if resp.Timeseries.Error != nil {
		return nil, fmt.Errorf("yfinance timeseries error: %s", resp.Timeseries.Error.Description)
	}

	return parseYFEPS(resp)
}

// --- Helpers ---

func (y *YFinance) chart(ctx context.Context, sym string, q url.Values) (*yfChartResult, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", strings.TrimRight(y.endpoints.Chart, "/"), url.PathEscape(sym), q.Encode())

	var resp yfChartResponse
	if err := y.fetchJSON(ctx, endpoint, &resp); err != nil {
		if isHTTPNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
		}
		return nil, fmt.Errorf("yfinance chart %s: %w", sym, err)
	}
	if resp.Chart.Error != nil {
		if resp.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
		}
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
	}
	return &resp.Chart.Result[0], nil
}

func (y *YFinance) fetchJSON(ctx context.Context, endpoint string, dest any) error {
	body, err := y.client.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: parse JSON: %v", ErrMalformed, err)
	}
	return nil
}

// isHTTPNotFound reports whether err is a 404 from Yahoo, which is how it
// answers unknown symbols.
func isHTTPNotFound(err error) bool {
	var httpErr *infra.ErrHTTP
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

func (y *YFinance) scrapeDisplayName(ctx context.Context, sym string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/", strings.TrimRight(y.endpoints.QuotePage, "/"), url.PathEscape(sym))
	body, err := y.client.Get(ctx, endpoint, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", fmt.Errorf("parse quote page: %w", err)
	}
	heading := strings.TrimSpace(doc.Find("h1").First().Text())
	if heading == "" {
		return "", fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
	}
	// Headings read "Apple Inc. (AAPL)"; keep the name only.
	if i := strings.LastIndex(heading, " ("); i > 0 {
		heading = strings.TrimSpace(heading[:i])
	}
	return heading, nil
}

// exchangeLocation resolves the exchange time zone so bar timestamps map to
// the trading day they belong to.
func exchangeLocation(meta yfChartMeta) *time.Location {
	if meta.ExchangeTimezoneName != "" {
		if loc, err := time.LoadLocation(meta.ExchangeTimezoneName); err == nil {
			return loc
		}
	}
	return time.FixedZone("exchange", meta.GMTOffset)
}

func parseYFRows(result *yfChartResult) []models.TimeSeriesRow {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	loc := exchangeLocation(result.Meta)

	rows := make([]models.TimeSeriesRow, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Bars without a close are non-trading placeholders.
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		r := models.TimeSeriesRow{
			Date:  utils.Date(time.Unix(ts, 0).In(loc)),
			Close: *q.Close[i],
		}
		r.Open = valueOr(q.Open, i, r.Close)
		r.High = valueOr(q.High, i, r.Close)
		r.Low = valueOr(q.Low, i, r.Close)
		if i < len(q.Volume) && q.Volume[i] != nil {
			r.Volume = *q.Volume[i]
		}
		// Intraday refreshes can repeat the last day; keep the newest bar.
		if n := len(rows); n > 0 && rows[n-1].Date.Equal(r.Date) {
			rows[n-1] = r
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

func parseYFEPS(resp yfTimeseriesResponse) ([]models.FundamentalsRow, error) {
	var rows []models.FundamentalsRow
	for _, result := range resp.Timeseries.Result {
		var meta yfTimeseriesMeta
		if raw, ok := result["meta"]; ok {
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, fmt.Errorf("parse timeseries meta: %w", err)
			}
		}
		if len(meta.Type) == 0 || meta.Type[0] != epsSeriesType {
			continue
		}
		raw, ok := result[epsSeriesType]
		if !ok {
			continue
		}

		var points []*yfTimeseriesPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			return nil, fmt.Errorf("parse %s: %w", epsSeriesType, err)
		}
		for _, p := range points {
			if p == nil || p.ReportedValue.Raw == "" {
				continue
			}
			date, err := utils.ParseDate(p.AsOfDate)
			if err != nil {
				return nil, err
			}
			eps, err := decimal.NewFromString(p.ReportedValue.Raw.String())
			if err != nil {
				return nil, fmt.Errorf("parse EPS %q: %w", p.ReportedValue.Raw, err)
			}
			rows = append(rows, models.FundamentalsRow{
				PeriodEnd:  date,
				DilutedEPS: eps,
				PeriodType: coalesce(p.PeriodType, models.PeriodQuarterly),
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].PeriodEnd.Before(rows[j].PeriodEnd) })
	return rows, nil
}

func valueOr(vals []*float64, i int, fallback float64) float64 {
	if i < len(vals) && vals[i] != nil {
		return *vals[i]
	}
	return fallback
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
