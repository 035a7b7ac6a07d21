package chart

import (
	"fmt"
	"strings"
)

// ChartType selects how a price series is drawn.
type ChartType string

const (
	Candle          ChartType = "candle"
	OHLC            ChartType = "ohlc"
	Line            ChartType = "line"
	Renko           ChartType = "renko"
	PnF             ChartType = "pnf"
	HollowAndFilled ChartType = "hollow_and_filled"
)

// ChartTypes lists the supported price chart types.
var ChartTypes = []ChartType{Candle, OHLC, Line, Renko, PnF, HollowAndFilled}

// ParseChartType validates a chart type name.
func ParseChartType(s string) (ChartType, error) {
	t := ChartType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ChartTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown chart type %q", ErrInvalidConfig, s)
}

// DisplayName is the name used in titles and default file names.
func (t ChartType) DisplayName() string {
	if t == Candle {
		return "candlestick"
	}
	return string(t)
}

// bricks reports whether the type is drawn on a brick axis with no time scale.
func (t ChartType) bricks() bool {
	return t == Renko || t == PnF
}
