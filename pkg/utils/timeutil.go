package utils

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date layout used on the command line and in CSV files.
const DateLayout = "2006-01-02"

// Date truncates t to its calendar date at midnight UTC, dropping the zone.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// FormatDate renders a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBefore returns the calendar date n days before t.
func DaysBefore(t time.Time, n int) time.Time {
	return Date(t).AddDate(0, 0, -n)
}

// TrailingWindow returns [asOf - years*365 days, asOf] as calendar dates.
func TrailingWindow(asOf time.Time, years int) (time.Time, time.Time) {
	end := Date(asOf)
	return DaysBefore(end, years*365), end
}
