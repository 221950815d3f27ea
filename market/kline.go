package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kline is one OHLCV observation over a fixed time interval.
// Prices are exact decimals: threshold comparisons against take profit and
// stop loss levels must not tolerate binary floating point drift.
type Kline struct {
	OpenTime  time.Time
	CloseTime time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Amplitude is the bar's full price range.
func (k Kline) Amplitude() decimal.Decimal {
	return k.High.Sub(k.Low)
}

// IsPriceTouched reports whether price falls within the kline's [low, high]
// range, both ends inclusive.
func IsPriceTouched(k Kline, price decimal.Decimal) bool {
	return k.Low.LessThanOrEqual(price) && price.LessThanOrEqual(k.High)
}

// Closes extracts close prices from a kline window.
func Closes(klines []Kline) []decimal.Decimal {
	res := make([]decimal.Decimal, len(klines))
	for i, k := range klines {
		res[i] = k.Close
	}
	return res
}
