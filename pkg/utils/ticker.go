package utils

import (
	"regexp"
	"strings"
)

// Common index aliases mapped to their Yahoo Finance symbols.
var indexAliases = map[string]string{
	"SPX":       "^GSPC",
	"S&P500":    "^GSPC",
	"SP500":     "^GSPC",
	"NASDAQ":    "^IXIC",
	"DOW":       "^DJI",
	"DJIA":      "^DJI",
	"RUSSELL":   "^RUT",
	"NIFTY":     "^NSEI",
	"BANKNIFTY": "^NSEBANK",
	"SENSEX":    "^BSESN",
}

var tickerPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,19}$`)

// NormalizeTicker trims, upper-cases and resolves index aliases.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	t = strings.TrimPrefix(t, "$")
	if alias, ok := indexAliases[t]; ok {
		return alias
	}
	return t
}

// ValidTicker reports whether ticker looks like a Yahoo-style symbol.
func ValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker)
}

// IsIndex returns true for index symbols such as ^GSPC.
func IsIndex(ticker string) bool {
	return strings.HasPrefix(NormalizeTicker(ticker), "^")
}

// FileSafeTicker strips characters that do not belong in file names.
func FileSafeTicker(ticker string) string {
	t := NormalizeTicker(ticker)
	t = strings.TrimPrefix(t, "^")
	return strings.NewReplacer(".", "_", "=", "_", "/", "_").Replace(t)
}
