package broker

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
)

// AmbiguityPolicy decides what happens when a kline touches both the take
// profit and the stop loss of an order. OHLC data cannot tell which was hit
// first, and the choice materially changes reported profit, so there is no
// default: configuration must pick one explicitly.
type AmbiguityPolicy string

const (
	// AmbiguityFatal aborts the run on an ambiguous kline.
	AmbiguityFatal AmbiguityPolicy = "fatal"
	// AmbiguityCloseByStopLoss resolves an ambiguous kline to the worse
	// outcome for the trader and logs a warning.
	AmbiguityCloseByStopLoss AmbiguityPolicy = "close_by_stop_loss"
)

func (p AmbiguityPolicy) Validate() error {
	switch p {
	case AmbiguityFatal, AmbiguityCloseByStopLoss:
		return nil
	case "":
		return errors.New("ambiguity policy is required: set take_profit_stop_loss_both_achieved to \"fatal\" or \"close_by_stop_loss\"")
	default:
		return fmt.Errorf("unknown ambiguity policy %q", string(p))
	}
}

// ErrAmbiguousKline is returned under the fatal policy when a kline touches
// both the take profit and the stop loss of one order.
var ErrAmbiguousKline = errors.New("undefined behaviour: take profit and stop loss both achieved")

// SimulatorConfig tunes the matching simulator.
type SimulatorConfig struct {
	TakeProfitStopLossBothAchieved AmbiguityPolicy
}

// simOrder is the simulator's own view of a working order. The stop loss
// and the set of filled sub-orders live here, not on the order itself:
// the order list stays the single writable owner of order state.
type simOrder struct {
	order      *order.Order
	stopLoss   decimal.Decimal
	closedSubs map[int]bool
}

func (s *simOrder) openSubCount() int {
	return len(s.order.SubOrders) - len(s.closedSubs)
}

// Simulator matches working orders against historical klines: it owns the
// open order set, assigns identifiers and emits fill events when a kline
// range contains a take profit or stop loss price.
type Simulator struct {
	feed market.Feed
	cfg  SimulatorConfig

	nextID order.ID
	open   map[order.ID]*simOrder
}

func NewSimulator(feed market.Feed, cfg SimulatorConfig) (*Simulator, error) {
	if err := cfg.TakeProfitStopLossBothAchieved.Validate(); err != nil {
		return nil, fmt.Errorf("simulator: %w", err)
	}
	return &Simulator{
		feed: feed,
		cfg:  cfg,
		open: make(map[order.ID]*simOrder),
	}, nil
}

func (s *Simulator) Klines() market.Feed { return s.feed }

func (s *Simulator) SubmitOrder(o *order.Order) (Event, error) {
	s.nextID++
	id := s.nextID

	s.open[id] = &simOrder{
		order:      o,
		stopLoss:   o.StopLoss,
		closedSubs: make(map[int]bool),
	}

	return Event{
		OrderID:   id,
		Type:      EventOrderOpen,
		CreatedAt: o.TradeOpen.CreatedAt,
		Price:     o.TradeOpen.Price,
	}, nil
}

// Events tests every open order against the kline's [low, high] range.
// Sub-orders are evaluated in index order and events within one order are
// emitted in that same order, all timestamped with the kline open time, so
// the per-order slices satisfy the ascending-time contract.
func (s *Simulator) Events(k market.Kline) (map[order.ID][]Event, error) {
	events := make(map[order.ID][]Event)

	for _, id := range s.openIDs() {
		so := s.open[id]

		evs, done, err := s.orderEvents(k, id, so)
		if err != nil {
			return nil, err
		}
		if len(evs) > 0 {
			events[id] = evs
		}
		if done {
			delete(s.open, id)
		}
	}

	return events, nil
}

func (s *Simulator) orderEvents(k market.Kline, id order.ID, so *simOrder) ([]Event, bool, error) {
	stopLossHit := market.IsPriceTouched(k, so.stopLoss)

	var evs []Event
	for i := range so.order.SubOrders {
		if so.closedSubs[i] {
			continue
		}
		sub := &so.order.SubOrders[i]
		takeProfitHit := market.IsPriceTouched(k, sub.TakeProfit)

		switch {
		case takeProfitHit && stopLossHit:
			if s.cfg.TakeProfitStopLossBothAchieved != AmbiguityCloseByStopLoss {
				return nil, false, fmt.Errorf("order %d: %w", id, ErrAmbiguousKline)
			}
			log.WithFields(log.Fields{
				"order_id": id,
				"policy":   string(s.cfg.TakeProfitStopLossBothAchieved),
			}).Warn("take profit and stop loss both achieved, closing by stop loss")

			idx := i
			evs = append(evs, Event{
				OrderID:       id,
				SubOrderIndex: &idx,
				Type:          EventOrderCloseByStopLoss,
				CreatedAt:     k.OpenTime,
				Price:         so.stopLoss,
			})
			return evs, true, nil

		case stopLossHit:
			// One event for the whole order, not per sub-order.
			evs = append(evs, Event{
				OrderID:   id,
				Type:      EventOrderCloseByStopLoss,
				CreatedAt: k.OpenTime,
				Price:     so.stopLoss,
			})
			return evs, true, nil

		case takeProfitHit:
			idx := i
			evs = append(evs, Event{
				OrderID:       id,
				SubOrderIndex: &idx,
				Type:          EventSubOrderCloseByTakeProfit,
				CreatedAt:     k.OpenTime,
				Price:         sub.TakeProfit,
			})
			so.closedSubs[i] = true
		}
	}

	return evs, so.openSubCount() == 0, nil
}

func (s *Simulator) CloseOrder(id order.ID, k market.Kline) (Event, error) {
	if _, ok := s.open[id]; !ok {
		return Event{}, fmt.Errorf("close order: order %d not found", id)
	}
	delete(s.open, id)

	return Event{
		OrderID:   id,
		Type:      EventOrderClose,
		CreatedAt: k.OpenTime,
		Price:     k.Open,
	}, nil
}

func (s *Simulator) UpdateOrder(u StopLossUpdate) error {
	so, ok := s.open[u.OrderID]
	if !ok {
		return fmt.Errorf("update order: order %d not found", u.OrderID)
	}
	so.stopLoss = u.StopLoss
	return nil
}

func (s *Simulator) openIDs() []order.ID {
	ids := make([]order.ID, 0, len(s.open))
	for id := range s.open {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
