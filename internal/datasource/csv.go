package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/seenimoa/finchart/pkg/models"
	"github.com/seenimoa/finchart/pkg/utils"
)

// CSV is an offline DataSource backed by files in a directory:
//
//	<SYMBOL>_prices.csv  date,open,high,low,close,volume
//	<SYMBOL>_eps.csv     period_end,diluted_eps[,period_type]
//	companies.csv        symbol,display_name[,currency,exchange]
//
// File names use utils.FileSafeTicker, so ^GSPC is read from GSPC_prices.csv.
type CSV struct {
	dir string
}

// NewCSV creates a CSV data source rooted at dir.
func NewCSV(dir string) *CSV {
	return &CSV{dir: dir}
}

// Name returns the data source name.
func (c *CSV) Name() string { return "CSV (" + c.dir + ")" }

// GetPriceHistory reads <SYMBOL>_prices.csv and filters it to [from, to].
// A missing file means no data.
func (c *CSV) GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.TimeSeriesRow, error) {
	records, err := c.read(ctx, utils.FileSafeTicker(symbol)+"_prices.csv")
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	from, to = utils.Date(from), utils.Date(to)

	var rows []models.TimeSeriesRow
	for i, rec := range records {
		if len(rec) < 5 {
			return nil, fmt.Errorf("%w: prices line %d: want at least 5 fields, got %d", ErrMalformed, i+2, len(rec))
		}
		date, err := utils.ParseDate(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: prices line %d: %v", ErrMalformed, i+2, err)
		}
		if date.Before(from) || date.After(to) {
			continue
		}
		vals, err := parseFloats(rec[1:5])
		if err != nil {
			return nil, fmt.Errorf("%w: prices line %d: %v", ErrMalformed, i+2, err)
		}
		row := models.TimeSeriesRow{Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
		if len(rec) > 5 && strings.TrimSpace(rec[5]) != "" {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[5]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: prices line %d: volume: %v", ErrMalformed, i+2, err)
			}
			row.Volume = int64(v)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, nil
}

// GetCompanyInfo looks the symbol up in companies.csv. A missing file or row
// yields the bare symbol.
func (c *CSV) GetCompanyInfo(ctx context.Context, symbol string) (*models.CompanyInfo, error) {
	sym := utils.NormalizeTicker(symbol)
	info := &models.CompanyInfo{Symbol: sym}

	records, err := c.read(ctx, "companies.csv")
	if errors.Is(err, os.ErrNotExist) {
		return info, nil
	}
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if len(rec) < 2 || utils.NormalizeTicker(rec[0]) != sym {
			continue
		}
		info.DisplayName = strings.TrimSpace(rec[1])
		if len(rec) > 2 {
			info.Currency = strings.TrimSpace(rec[2])
		}
		if len(rec) > 3 {
			info.Exchange = strings.TrimSpace(rec[3])
		}
		break
	}
	return info, nil
}

// GetIncomeStatement reads <SYMBOL>_eps.csv.
func (c *CSV) GetIncomeStatement(ctx context.Context, symbol string) ([]models.FundamentalsRow, error) {
	records, err := c.read(ctx, utils.FileSafeTicker(symbol)+"_eps.csv")
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows := make([]models.FundamentalsRow, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("%w: eps line %d: want at least 2 fields, got %d", ErrMalformed, i+2, len(rec))
		}
		date, err := utils.ParseDate(strings.TrimSpace(rec[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: eps line %d: %v", ErrMalformed, i+2, err)
		}
		eps, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("%w: eps line %d: %v", ErrMalformed, i+2, err)
		}
		periodType := models.PeriodQuarterly
		if len(rec) > 2 && strings.TrimSpace(rec[2]) != "" {
			periodType = strings.TrimSpace(rec[2])
		}
		rows = append(rows, models.FundamentalsRow{PeriodEnd: date, DilutedEPS: eps, PeriodType: periodType})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].PeriodEnd.Before(rows[j].PeriodEnd) })
	return rows, nil
}

// read returns all records of name after the header line.
func (c *CSV) read(ctx context.Context, name string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(c.dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s header: %v", ErrMalformed, name, err)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMalformed, name, err)
	}
	return records, nil
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
