package market

import "github.com/shopspring/decimal"

// Level is a price band considered support/resistance.
type Level struct {
	Low  decimal.Decimal
	High decimal.Decimal
}

func NewLevel(low, high decimal.Decimal) Level {
	return Level{Low: low, High: high}
}

func (l Level) Mid() decimal.Decimal {
	return l.Low.Add(l.High).Div(decimal.NewFromInt(2))
}

func (l Level) Size() decimal.Decimal {
	return l.High.Sub(l.Low)
}

func (l Level) String() string {
	return "Level[" + l.Low.String() + ", " + l.High.String() + "]"
}
