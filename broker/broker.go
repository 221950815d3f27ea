package broker

import (
	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
)

// Broker is the capability set shared by the simulator and any future live
// implementation. The variant is chosen at construction time.
type Broker interface {
	// Klines exposes the price feed backing this broker.
	Klines() market.Feed

	// SubmitOrder assigns an id, registers the order and reports it opened.
	SubmitOrder(o *order.Order) (Event, error)

	// Events reports, per order, which take profit / stop loss levels the
	// kline touched. Events within one order are ordered by time ascending.
	Events(k market.Kline) (map[order.ID][]Event, error)

	// CloseOrder force-closes an open order at the kline open price.
	CloseOrder(id order.ID, k market.Kline) (Event, error)

	// UpdateOrder moves the broker-side stop loss of an open order.
	UpdateOrder(u StopLossUpdate) error
}

// StopLossUpdate carries a trailing stop suggestion back to the broker.
type StopLossUpdate struct {
	OrderID  order.ID
	StopLoss decimal.Decimal
}
