package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/big-striped-cat/zvezdin/broker"
	"github.com/big-striped-cat/zvezdin/emergency"
	"github.com/big-striped-cat/zvezdin/journal"
	"github.com/big-striped-cat/zvezdin/localbroker"
	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
	"github.com/big-striped-cat/zvezdin/strategy"
)

// ErrNotEnoughKlines means the feed ended before a single full window of
// historical klines plus a current one could be assembled.
var ErrNotEnoughKlines = errors.New("not enough klines for the requested window size")

// Runner wires one backtest: it walks the broker's kline feed window by
// window and drives order lifecycle, the breaker and the strategy.
type Runner struct {
	Broker   broker.Broker
	Manager  strategy.OrderManager
	Emitter  strategy.Emitter
	Detector *emergency.Detector
	Orders   *order.List
	// Journal is optional; nil disables run recording.
	Journal  journal.Journal
	Strategy string
	// WindowSize is how many historical klines the emitter sees.
	WindowSize int
}

// Result summarizes a finished run. Open orders are valued at the close
// price of the last kline.
type Result struct {
	RunID            string
	OrdersOpen       int
	OrdersClosed     int
	Profit           decimal.Decimal
	ProfitUnrealized decimal.Decimal
	Start            time.Time
	End              time.Time
}

// Run executes the backtest loop over the whole feed. Every step sees a
// window of WindowSize historical klines plus the current one:
//  1. auto-close timed out orders
//  2. apply broker fill events, trailing the stop on partial take profits
//  3. advance the breaker; skip the strategy while suppressed
//  4. ask the emitter, run the proposal through the acceptance policy
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if err := r.validate(); err != nil {
		return Result{}, err
	}

	local := localbroker.New(r.Orders)
	feed := market.NewWindowFeed(r.Broker.Klines(), r.WindowSize+1)
	defer feed.Close()

	var first, last market.Kline
	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		window, ok, err := feed.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}

		k := window[len(window)-1]
		if steps == 0 {
			// The first current kline: everything before it is history.
			first = k
			log.WithField("open_time", k.OpenTime).Info("backtest started")
		}
		last = k
		steps++

		if err := r.autoClose(local, k); err != nil {
			return Result{}, err
		}
		if err := r.applyEvents(local, k); err != nil {
			return Result{}, err
		}

		if r.Detector.Detect(window) {
			log.WithField("open_time", k.OpenTime).Warn("emergency detected, pausing new orders")
		}
		if r.Detector.Suppressed() {
			continue
		}

		if err := r.step(local, window[:len(window)-1], k); err != nil {
			return Result{}, err
		}
	}

	if steps == 0 {
		return Result{}, ErrNotEnoughKlines
	}

	res := r.result(first, last)
	if err := r.record(res, last); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (r *Runner) validate() error {
	switch {
	case r.Broker == nil:
		return errors.New("backtest: Broker is required")
	case r.Manager == nil:
		return errors.New("backtest: Manager is required")
	case r.Emitter == nil:
		return errors.New("backtest: Emitter is required")
	case r.Detector == nil:
		return errors.New("backtest: Detector is required")
	case r.Orders == nil:
		return errors.New("backtest: Orders is required")
	case r.WindowSize < 1:
		return fmt.Errorf("backtest: window size %d, want at least 1", r.WindowSize)
	}
	return nil
}

func (r *Runner) autoClose(local *localbroker.LocalBroker, k market.Kline) error {
	for _, id := range local.FindOrdersForAutoClose(k.OpenTime) {
		log.WithField("order_id", id).Info("auto closing order by timeout")

		if err := r.closeOrder(local, id, k); err != nil {
			return err
		}
	}
	return nil
}

// applyEvents forwards broker fills to the local state. Order batches are
// processed in ascending order id; a trailing stop suggestion is pushed back
// to the broker only while the order is still open there.
func (r *Runner) applyEvents(local *localbroker.LocalBroker, k market.Kline) error {
	events, err := r.Broker.Events(k)
	if err != nil {
		return err
	}

	ids := make([]order.ID, 0, len(events))
	for id := range events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		update, err := local.HandleRemoteEvents(id, events[id])
		if err != nil {
			return err
		}
		if update == nil {
			continue
		}

		o, ok := r.Orders.Get(id)
		if !ok || o.IsClosed() {
			continue
		}
		log.WithFields(log.Fields{
			"order_id":  id,
			"stop_loss": update.StopLoss,
		}).Info("trailing stop loss")

		if err := r.Broker.UpdateOrder(*update); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) step(local *localbroker.LocalBroker, history []market.Kline, k market.Kline) error {
	proposal := r.Emitter.GetOrderRequest(history)
	if proposal == nil {
		return nil
	}

	decision := r.Manager.IsOrderAcceptable(proposal)
	if !decision.Accept {
		log.WithField("reason", decision.Reason).Debug("order rejected")
		return nil
	}

	for _, id := range decision.CloseIDs {
		log.WithField("order_id", id).Info("closing order superseded by a new one")

		if err := r.closeOrder(local, id, k); err != nil {
			return err
		}
	}

	event, err := r.Broker.SubmitOrder(proposal)
	if err != nil {
		return err
	}
	local.AddOrder(event, proposal)

	log.WithFields(log.Fields{
		"order_id": event.OrderID,
		"type":     proposal.Type,
		"price":    proposal.TradeOpen.Price,
	}).Info("order opened")
	return nil
}

func (r *Runner) closeOrder(local *localbroker.LocalBroker, id order.ID, k market.Kline) error {
	event, err := r.Broker.CloseOrder(id, k)
	if err != nil {
		return err
	}
	_, err = local.HandleRemoteEvent(event)
	return err
}

func (r *Runner) result(first, last market.Kline) Result {
	res := Result{
		OrdersOpen:       len(r.Orders.OpenIDs()),
		OrdersClosed:     len(r.Orders.ClosedIDs()),
		Profit:           r.Orders.Profit(),
		ProfitUnrealized: r.Orders.ProfitUnrealized(last.Close),
		Start:            first.OpenTime,
		End:              last.CloseTime,
	}

	log.WithFields(log.Fields{
		"orders_open":       res.OrdersOpen,
		"orders_closed":     res.OrdersClosed,
		"profit":            res.Profit,
		"profit_unrealized": res.ProfitUnrealized,
	}).Info("backtest finished")
	return res
}

func (r *Runner) record(res Result, last market.Kline) error {
	if r.Journal == nil {
		return nil
	}

	runID := journal.NewRunID()
	res.RunID = runID

	err := r.Journal.RecordRun(journal.RunRecord{
		ID:               runID,
		Strategy:         r.Strategy,
		Start:            res.Start,
		End:              res.End,
		OrdersOpen:       res.OrdersOpen,
		OrdersClosed:     res.OrdersClosed,
		Profit:           res.Profit,
		ProfitUnrealized: res.ProfitUnrealized,
	})
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	recs := journal.BuildOrderRecords(runID, r.Orders, last.Close)
	if err := r.Journal.RecordOrders(recs); err != nil {
		return fmt.Errorf("record orders: %w", err)
	}
	return nil
}
