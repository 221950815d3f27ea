package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/big-striped-cat/zvezdin/market"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(minutes int) time.Time {
	return time.Date(2022, 2, 18, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func newOrder(typ Type, open string) *Order {
	return &Order{
		Type:   typ,
		Amount: d("1"),
		TradeOpen: Trade{
			Type:      typ.OpenTradeType(),
			Price:     d(open),
			Amount:    d("1"),
			CreatedAt: at(0),
		},
		Level: market.NewLevel(d(open), d(open)),
	}
}

func closeWhole(o *Order, price string, minutes int) {
	o.TradeClose = &Trade{
		Type:      o.Type.CloseTradeType(),
		Price:     d(price),
		Amount:    o.TradeOpen.Amount,
		CreatedAt: at(minutes),
	}
}

func TestTypeMapping(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Buy, Long.OpenTradeType())
	assert.Equal(t, Sell, Long.CloseTradeType())
	assert.Equal(t, Sell, Short.OpenTradeType())
	assert.Equal(t, Buy, Short.CloseTradeType())

	assert.True(t, Long.Sign().Equal(d("1")))
	assert.True(t, Short.Sign().Equal(d("-1")))
}

func TestProfitWholeOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		typ   Type
		open  string
		close string
		want  string
	}{
		{"long gain", Long, "100", "110", "10"},
		{"long loss", Long, "100", "95", "-5"},
		{"short gain", Short, "100", "90", "10"},
		{"short loss", Short, "100", "103", "-3"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			o := newOrder(tt.typ, tt.open)
			closeWhole(o, tt.close, 5)

			assert.True(t, o.Profit().Equal(d(tt.want)), "got %s", o.Profit())
		})
	}
}

func TestProfitSubOrders(t *testing.T) {
	t.Parallel()

	o := newOrder(Long, "100")
	o.Amount = d("2")
	o.TradeOpen.Amount = d("2")
	o.SubOrders = []SubOrder{
		{Type: Long, Amount: d("1"), TakeProfit: d("110")},
		{Type: Long, Amount: d("1"), TakeProfit: d("120")},
	}

	// Nothing closed, nothing realized.
	assert.True(t, o.Profit().IsZero())

	o.SubOrders[0].TradeClose = &Trade{Type: Sell, Price: d("110"), Amount: d("1"), CreatedAt: at(5)}
	assert.True(t, o.Profit().Equal(d("10")))
	assert.False(t, o.IsClosed())

	// Whole-order close picks up the remaining sub-order.
	closeWhole(o, "95", 10)
	assert.True(t, o.Profit().Equal(d("5")), "10 on the first leg, -5 on the second")
	assert.True(t, o.IsClosed())
}

func TestProfitAt(t *testing.T) {
	t.Parallel()

	o := newOrder(Long, "100")
	o.SubOrders = []SubOrder{{Type: Long, Amount: d("1"), TakeProfit: d("120")}}

	assert.True(t, o.ProfitAt(d("107")).Equal(d("7")))
	assert.True(t, o.ProfitAt(d("96")).Equal(d("-4")))
}

func TestIsClosedBySubOrders(t *testing.T) {
	t.Parallel()

	o := newOrder(Long, "100")
	o.SubOrders = []SubOrder{
		{Type: Long, Amount: d("0.5"), TakeProfit: d("110")},
		{Type: Long, Amount: d("0.5"), TakeProfit: d("120")},
	}
	require.False(t, o.IsClosed())

	o.SubOrders[0].TradeClose = &Trade{Type: Sell, Price: d("110"), Amount: d("0.5"), CreatedAt: at(1)}
	assert.False(t, o.IsClosed())

	o.SubOrders[1].TradeClose = &Trade{Type: Sell, Price: d("120"), Amount: d("0.5"), CreatedAt: at(2)}
	assert.True(t, o.IsClosed())
}

func TestNewFromKline(t *testing.T) {
	t.Parallel()

	k := market.Kline{
		OpenTime:  at(0),
		CloseTime: at(5),
		Open:      d("100"),
		High:      d("106"),
		Low:       d("99"),
		Close:     d("105"),
	}
	level := market.NewLevel(d("98"), d("102"))

	o := NewFromKline(Long, k, level, d("2"), d("115"), d("97"), time.Hour, nil)

	assert.Equal(t, Long, o.Type)
	assert.True(t, o.TradeOpen.Price.Equal(d("105")), "opens at kline close price")
	assert.Equal(t, at(5), o.TradeOpen.CreatedAt)
	assert.True(t, o.StopLoss.Equal(d("97")))
	assert.Equal(t, time.Hour, o.AutoCloseIn)

	// Default single sub-order spans the full amount.
	require.Len(t, o.SubOrders, 1)
	assert.True(t, o.SubOrders[0].Amount.Equal(d("2")))
	assert.True(t, o.SubOrders[0].TakeProfit.Equal(d("115")))
}

func TestSplitAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		total     string
		parts     int
		precision int32
		want      []string
	}{
		{"even", "6", 3, 0, []string{"2", "2", "2"}},
		{"remainder to last", "5", 3, 2, []string{"1.67", "1.67", "1.66"}},
		{"single part", "5", 1, 2, []string{"5"}},
		{"fractional", "1", 4, 2, []string{"0.25", "0.25", "0.25", "0.25"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SplitAmount(d(tt.total), tt.parts, tt.precision)
			require.Len(t, got, len(tt.want))

			sum := decimal.Zero
			for i, g := range got {
				assert.True(t, g.Equal(d(tt.want[i])), "part %d: got %s", i, g)
				sum = sum.Add(g)
			}
			assert.True(t, sum.Equal(d(tt.total)), "parts must sum back to total")
		})
	}
}

func TestSplitAmountNoParts(t *testing.T) {
	t.Parallel()
	assert.Nil(t, SplitAmount(d("5"), 0, 2))
}
