package levels

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Trend is the global direction of the market over a window.
type Trend int

const (
	TrendUp Trend = iota + 1
	TrendDown
	TrendFlat
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	case TrendFlat:
		return "flat"
	default:
		return "unknown"
	}
}

func ParseTrend(s string) (Trend, error) {
	switch strings.ToLower(s) {
	case "up":
		return TrendUp, nil
	case "down":
		return TrendDown, nil
	case "flat", "":
		return TrendFlat, nil
	default:
		return 0, fmt.Errorf("unknown trend %q", s)
	}
}

// ErrNotEnoughExtremums means the window is too small to contain waves.
var ErrNotEnoughExtremums = errors.New("lack of extremums, probably window is too small")

// CalcTrend is supposed to run on a relatively large window, where some
// waves are present.
func CalcTrend(window []decimal.Decimal) (Trend, error) {
	_, maximums := LocalMaximums(window, 1)
	if len(maximums) < 2 {
		return 0, ErrNotEnoughExtremums
	}
	return CalcTrendByExtremums(maximums), nil
}

// CalcTrendByExtremums positions the first and last extremum inside the
// whole extremum range: the trend is up when the window closes near its
// highs, down near its lows, flat otherwise.
func CalcTrendByExtremums(extremums []decimal.Decimal) Trend {
	high := extremums[0]
	low := extremums[0]
	for _, e := range extremums[1:] {
		high = decimal.Max(high, e)
		low = decimal.Min(low, e)
	}

	if high.Equal(low) {
		return TrendFlat
	}

	open := extremums[0]
	close := extremums[len(extremums)-1]

	value := close.Sub(open).Div(high.Sub(low))
	threshold := decimal.NewFromFloat(0.5)

	if value.GreaterThan(threshold) {
		return TrendUp
	}
	if value.LessThan(threshold.Neg()) {
		return TrendDown
	}
	return TrendFlat
}
