package broker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/order"
)

// EventType tags one broker-side occurrence. Handlers must switch over it
// exhaustively so new kinds cannot be silently ignored.
type EventType int

const (
	EventOrderOpen EventType = iota + 1
	EventOrderClose
	EventOrderCloseByTakeProfit
	EventOrderCloseByStopLoss
	EventSubOrderCloseByTakeProfit
)

func (t EventType) String() string {
	switch t {
	case EventOrderOpen:
		return "order_open"
	case EventOrderClose:
		return "order_close"
	case EventOrderCloseByTakeProfit:
		return "order_close_by_take_profit"
	case EventOrderCloseByStopLoss:
		return "order_close_by_stop_loss"
	case EventSubOrderCloseByTakeProfit:
		return "sub_order_close_by_take_profit"
	default:
		return "unknown"
	}
}

// Event describes one fill or lifecycle change on the broker side.
// Events produced for the same kline must reach the local broker in
// ascending time order; trailing stop sequencing depends on it.
type Event struct {
	OrderID       order.ID
	SubOrderIndex *int
	Type          EventType
	CreatedAt     time.Time
	Price         decimal.Decimal
}
