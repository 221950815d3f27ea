package order

import (
	"github.com/shopspring/decimal"
)

// List mirrors orders created on the broker side and aggregates profit.
// Think of it as a wrapper around a database table: it makes no decisions
// about opening or closing, and it does not mutate order parameters.
type List struct {
	orders map[ID]*Order
	ids    []ID // insertion order, for deterministic iteration
	last   *Order
}

func NewList() *List {
	return &List{orders: make(map[ID]*Order)}
}

func (l *List) Add(id ID, o *Order) {
	if _, exists := l.orders[id]; !exists {
		l.ids = append(l.ids, id)
	}
	l.orders[id] = o
	l.last = o
}

func (l *List) Get(id ID) (*Order, bool) {
	o, ok := l.orders[id]
	return o, ok
}

// IDs returns all order ids in insertion order.
func (l *List) IDs() []ID {
	res := make([]ID, len(l.ids))
	copy(res, l.ids)
	return res
}

func (l *List) Len() int {
	return len(l.orders)
}

// LastOrder is the most recently added order, nil when the list is empty.
func (l *List) LastOrder() *Order {
	return l.last
}

// OpenIDs returns ids of orders that are not closed yet, in insertion order.
func (l *List) OpenIDs() []ID {
	var res []ID
	for _, id := range l.ids {
		if !l.orders[id].IsClosed() {
			res = append(res, id)
		}
	}
	return res
}

// ClosedIDs returns ids of closed orders, in insertion order.
func (l *List) ClosedIDs() []ID {
	var res []ID
	for _, id := range l.ids {
		if l.orders[id].IsClosed() {
			res = append(res, id)
		}
	}
	return res
}

// Profit sums realized profit over closed orders.
func (l *List) Profit() decimal.Decimal {
	total := decimal.Zero
	for _, id := range l.ClosedIDs() {
		total = total.Add(l.orders[id].Profit())
	}
	return total
}

// ProfitUnrealized values every open order at the mark price.
func (l *List) ProfitUnrealized(mark decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, id := range l.OpenIDs() {
		total = total.Add(l.orders[id].ProfitAt(mark))
	}
	return total
}
