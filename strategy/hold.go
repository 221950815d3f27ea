package strategy

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
)

// HoldOrderManager accepts exactly one order ever: buy and hold.
type HoldOrderManager struct {
	orders *order.List
}

func NewHoldOrderManager(orders *order.List) *HoldOrderManager {
	return &HoldOrderManager{orders: orders}
}

func (m *HoldOrderManager) IsOrderAcceptable(o *order.Order) Decision {
	if m.orders.Len() > 0 {
		return reject("an order already exists")
	}
	return accept()
}

// ConstantEmitter proposes the same order on every bar; paired with
// HoldOrderManager only the first proposal goes through.
type ConstantEmitter struct {
	OrderType order.Type
	Amount    decimal.Decimal
	// TakeProfitFactor multiplies the open price into an (unreachable in
	// practice) take profit, so the position rides until auto close.
	TakeProfitFactor decimal.Decimal
	AutoCloseIn      time.Duration
}

func NewConstantEmitter(orderType order.Type) *ConstantEmitter {
	return &ConstantEmitter{
		OrderType:        orderType,
		Amount:           decimal.NewFromInt(1),
		TakeProfitFactor: decimal.NewFromInt(10),
		AutoCloseIn:      8 * time.Hour,
	}
}

func (e *ConstantEmitter) GetOrderRequest(klines []market.Kline) *order.Order {
	k := klines[len(klines)-1]
	level := market.NewLevel(k.Close, k.Close)
	takeProfit := k.Close.Mul(e.TakeProfitFactor)

	return order.NewFromKline(
		e.OrderType, k, level,
		e.Amount, takeProfit, decimal.Zero,
		e.AutoCloseIn,
		[]order.SubOrder{{
			Type:       e.OrderType,
			Amount:     e.Amount,
			TakeProfit: takeProfit,
		}},
	)
}
