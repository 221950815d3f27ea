package levels

import "github.com/shopspring/decimal"

// CalcMA is a simple moving average over the last size points. Windows
// shorter than size are padded on the left with their first value.
func CalcMA(window []decimal.Decimal, size int) decimal.Decimal {
	if len(window) == 0 || size <= 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for i := 0; i < size; i++ {
		j := len(window) - 1 - i
		if j < 0 {
			j = 0
		}
		sum = sum.Add(window[j])
	}
	return sum.Div(decimal.NewFromInt(int64(size)))
}

// CalcMAList computes the moving average at every prefix of the window.
func CalcMAList(window []decimal.Decimal, size int) []decimal.Decimal {
	res := make([]decimal.Decimal, 0, len(window))
	for i := 1; i <= len(window); i++ {
		res = append(res, CalcMA(window[:i], size))
	}
	return res
}
