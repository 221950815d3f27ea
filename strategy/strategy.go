package strategy

import (
	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
)

// Emitter proposes orders from historical klines. The current kline is not
// part of the history: its open price equals the last history close and is
// the execution price of the proposal.
type Emitter interface {
	// GetOrderRequest returns an unsubmitted order, or nil for no signal.
	GetOrderRequest(klines []market.Kline) *order.Order
}

// Decision is the acceptance policy's verdict on a proposed order.
// Rejections are ordinary control flow, never errors.
type Decision struct {
	Accept bool
	// Reason explains a rejection; empty on accept.
	Reason string
	// CloseIDs lists open orders the accepted order supersedes. The caller
	// must close them before submitting the new one.
	CloseIDs []order.ID
}

func accept(closeIDs ...order.ID) Decision {
	return Decision{Accept: true, CloseIDs: closeIDs}
}

func reject(reason string) Decision {
	return Decision{Reason: reason}
}

// OrderManager decides whether a proposed order is taken.
type OrderManager interface {
	IsOrderAcceptable(o *order.Order) Decision
}
