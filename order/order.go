package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/market"
)

// ID is assigned by the broker on submission; an unsubmitted order has none.
type ID int64

// Type is the order direction.
type Type int

const (
	Long Type = iota + 1
	Short
)

func (t Type) String() string {
	switch t {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// Sign is +1 for long, -1 for short; profit is signed with it.
func (t Type) Sign() decimal.Decimal {
	if t == Short {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}

// OpenTradeType maps direction to the trade side that opens the position.
func (t Type) OpenTradeType() TradeType {
	if t == Short {
		return Sell
	}
	return Buy
}

// CloseTradeType maps direction to the trade side that closes the position.
func (t Type) CloseTradeType() TradeType {
	if t == Short {
		return Buy
	}
	return Sell
}

type TradeType int

const (
	Buy TradeType = iota + 1
	Sell
)

func (t TradeType) String() string {
	switch t {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// Trade is a single fill: the open or close leg of an order or sub-order.
type Trade struct {
	Type      TradeType
	Price     decimal.Decimal
	Amount    decimal.Decimal
	CreatedAt time.Time
}

func (t Trade) Value() decimal.Decimal {
	return t.Price.Mul(t.Amount)
}

// SubOrder is a partition of an order's amount with its own take profit.
// NextStopLoss, when set, suggests where the parent's stop should trail to
// once this sub-order fills.
type SubOrder struct {
	Type         Type
	Amount       decimal.Decimal
	TakeProfit   decimal.Decimal
	NextStopLoss *decimal.Decimal
	TradeClose   *Trade
}

func (s *SubOrder) IsClosed() bool {
	return s.TradeClose != nil
}

// Order mirrors one position on the broker side. It is created unsubmitted
// (no id), mutated only through the local broker's close and trail
// operations, and never deleted: closed orders stay around for accounting.
type Order struct {
	Type       Type
	Amount     decimal.Decimal
	TradeOpen  Trade
	TradeClose *Trade
	Level      market.Level
	StopLoss   decimal.Decimal
	// AutoCloseIn forces a close this long after opening; zero disables it.
	AutoCloseIn time.Duration
	SubOrders   []SubOrder
}

// IsClosed holds when the whole order was closed, or when every sub-order
// has its own closing trade.
func (o *Order) IsClosed() bool {
	if o.TradeClose != nil {
		return true
	}
	if len(o.SubOrders) == 0 {
		return false
	}
	for i := range o.SubOrders {
		if o.SubOrders[i].TradeClose == nil {
			return false
		}
	}
	return true
}

// Profit is the realized profit over recorded closing trades.
func (o *Order) Profit() decimal.Decimal {
	return o.profit(nil)
}

// ProfitAt values the order as if every leg without a closing trade were
// closed at the mark price.
func (o *Order) ProfitAt(mark decimal.Decimal) decimal.Decimal {
	return o.profit(&mark)
}

func (o *Order) profit(mark *decimal.Decimal) decimal.Decimal {
	sign := o.Type.Sign()
	open := o.TradeOpen.Price

	if len(o.SubOrders) == 0 {
		closePrice, ok := o.closePrice(nil, mark)
		if !ok {
			return decimal.Zero
		}
		return closePrice.Sub(open).Mul(o.Amount).Mul(sign)
	}

	total := decimal.Zero
	for i := range o.SubOrders {
		sub := &o.SubOrders[i]
		closePrice, ok := o.closePrice(sub.TradeClose, mark)
		if !ok {
			continue
		}
		total = total.Add(closePrice.Sub(open).Mul(sub.Amount).Mul(sign))
	}
	return total
}

func (o *Order) closePrice(tradeClose *Trade, mark *decimal.Decimal) (decimal.Decimal, bool) {
	switch {
	case tradeClose != nil:
		return tradeClose.Price, true
	case o.TradeClose != nil:
		return o.TradeClose.Price, true
	case mark != nil:
		return *mark, true
	default:
		return decimal.Decimal{}, false
	}
}

// NewFromKline builds an unsubmitted order opening at the kline close price,
// timestamped with the kline close time. When no sub-orders are supplied the
// order gets a single sub-order spanning the full amount.
func NewFromKline(
	typ Type, k market.Kline, level market.Level,
	amount, takeProfit, stopLoss decimal.Decimal,
	autoCloseIn time.Duration, subOrders []SubOrder,
) *Order {
	if len(subOrders) == 0 {
		subOrders = []SubOrder{{
			Type:       typ,
			Amount:     amount,
			TakeProfit: takeProfit,
		}}
	}

	return &Order{
		Type:   typ,
		Amount: amount,
		TradeOpen: Trade{
			Type:      typ.OpenTradeType(),
			Price:     k.Close,
			Amount:    amount,
			CreatedAt: k.CloseTime,
		},
		Level:       level,
		StopLoss:    stopLoss,
		AutoCloseIn: autoCloseIn,
		SubOrders:   subOrders,
	}
}

// SplitAmount partitions total into equal parts at the given precision.
// The last part absorbs the rounding remainder, so the parts always sum back
// to total exactly: 5 into 3 parts at precision 2 is [1.67, 1.67, 1.66].
func SplitAmount(total decimal.Decimal, parts int, precision int32) []decimal.Decimal {
	if parts <= 0 {
		return nil
	}

	part := total.Div(decimal.NewFromInt(int64(parts))).Round(precision)

	res := make([]decimal.Decimal, parts)
	sum := decimal.Zero
	for i := 0; i < parts-1; i++ {
		res[i] = part
		sum = sum.Add(part)
	}
	res[parts-1] = total.Sub(sum)
	return res
}
