package localbroker

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/broker"
	"github.com/big-striped-cat/zvezdin/order"
)

// LocalBroker implements broker functions missing on the remote side:
// it applies remote events to the local order list, detects order timeouts
// and suggests stop loss updates after partial take profits.
//
// It is stateless apart from the shared order list, and it is the only
// component that mutates orders (closing trades, trailing the stop).
type LocalBroker struct {
	orders *order.List
}

func New(orders *order.List) *LocalBroker {
	return &LocalBroker{orders: orders}
}

// AddOrder records a freshly submitted order under the id the broker
// assigned to it.
func (b *LocalBroker) AddOrder(event broker.Event, o *order.Order) {
	b.orders.Add(event.OrderID, o)
}

// HandleRemoteEvents processes events sequentially and returns at most one
// trailing stop suggestion: each event's suggestion replaces the previous
// one, it does not accumulate. Events must be pre-sorted ascending by time.
func (b *LocalBroker) HandleRemoteEvents(id order.ID, events []broker.Event) (*broker.StopLossUpdate, error) {
	var update *broker.StopLossUpdate

	for _, event := range events {
		if event.OrderID != id {
			return nil, fmt.Errorf("handle events: event for order %d in batch for order %d", event.OrderID, id)
		}
		u, err := b.HandleRemoteEvent(event)
		if err != nil {
			return nil, err
		}
		if u != nil {
			update = u
		}
	}

	return update, nil
}

// HandleRemoteEvent applies one broker event to the local order list.
func (b *LocalBroker) HandleRemoteEvent(event broker.Event) (*broker.StopLossUpdate, error) {
	o, ok := b.orders.Get(event.OrderID)
	if !ok {
		return nil, fmt.Errorf("handle event: order %d not found", event.OrderID)
	}

	switch event.Type {
	case broker.EventOrderOpen:
		// Informational only.
		return nil, nil

	case broker.EventOrderClose,
		broker.EventOrderCloseByTakeProfit,
		broker.EventOrderCloseByStopLoss:
		b.closeOrder(o, event.Price, event.CreatedAt)
		return nil, nil

	case broker.EventSubOrderCloseByTakeProfit:
		return b.closeSubOrder(event, o)

	default:
		return nil, fmt.Errorf("handle event: unknown event type %d", event.Type)
	}
}

func (b *LocalBroker) closeOrder(o *order.Order, price decimal.Decimal, closedAt time.Time) {
	o.TradeClose = &order.Trade{
		Type:      o.Type.CloseTradeType(),
		Price:     price,
		Amount:    o.TradeOpen.Amount,
		CreatedAt: closedAt,
	}
}

func (b *LocalBroker) closeSubOrder(event broker.Event, o *order.Order) (*broker.StopLossUpdate, error) {
	if event.SubOrderIndex == nil {
		return nil, fmt.Errorf("handle event: sub order close for order %d without sub order index", event.OrderID)
	}
	if len(o.SubOrders) == 0 {
		return nil, fmt.Errorf("handle event: order %d has no sub orders", event.OrderID)
	}
	idx := *event.SubOrderIndex
	if idx < 0 || idx >= len(o.SubOrders) {
		return nil, fmt.Errorf("handle event: order %d sub order index %d out of range", event.OrderID, idx)
	}

	sub := &o.SubOrders[idx]
	sub.TradeClose = &order.Trade{
		Type:      sub.Type.CloseTradeType(),
		Price:     event.Price,
		Amount:    sub.Amount,
		CreatedAt: event.CreatedAt,
	}

	if sub.NextStopLoss == nil {
		return nil, nil
	}

	// One-way trailing: a partial take profit can only move the stop in the
	// order's favor. Taking the max keeps it monotonic even when sub-orders
	// close out of the expected price order.
	newStop := *sub.NextStopLoss
	if !o.StopLoss.IsZero() {
		newStop = decimal.Max(o.StopLoss, *sub.NextStopLoss)
	}
	o.StopLoss = newStop

	return &broker.StopLossUpdate{OrderID: event.OrderID, StopLoss: newStop}, nil
}

// FindOrdersForAutoClose returns open orders whose auto close duration has
// elapsed. The boundary instant qualifies: an order opened at T with a 10m
// timeout is flagged at exactly T+10m.
func (b *LocalBroker) FindOrdersForAutoClose(now time.Time) []order.ID {
	var res []order.ID

	for _, id := range b.orders.IDs() {
		o, _ := b.orders.Get(id)
		if o.IsClosed() {
			continue
		}
		if o.AutoCloseIn == 0 {
			continue
		}
		if now.Sub(o.TradeOpen.CreatedAt) >= o.AutoCloseIn {
			res = append(res, id)
		}
	}

	return res
}
