package journal

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/order"
)

// RunRecord summarizes one backtest run.
type RunRecord struct {
	ID               string
	Strategy         string
	Start            time.Time
	End              time.Time
	OrdersOpen       int
	OrdersClosed     int
	Profit           decimal.Decimal
	ProfitUnrealized decimal.Decimal
	CreatedAt        time.Time
}

// OrderRecord is the per-order detail of a run. ExitPrice and CloseTime are
// zero for orders still open at the end of the run.
type OrderRecord struct {
	RunID      string          `csv:"run_id"`
	OrderID    order.ID        `csv:"order_id"`
	Type       string          `csv:"type"`
	Amount     decimal.Decimal `csv:"amount"`
	EntryPrice decimal.Decimal `csv:"entry_price"`
	ExitPrice  decimal.Decimal `csv:"exit_price"`
	OpenTime   time.Time       `csv:"open_time"`
	CloseTime  time.Time       `csv:"close_time"`
	Profit     decimal.Decimal `csv:"profit"`
}

type Journal interface {
	RecordRun(r RunRecord) error
	RecordOrders(recs []OrderRecord) error
	Close() error
}

// NewRunID returns a sortable unique run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// BuildOrderRecords flattens the order list into journal rows. Open orders
// are valued at the mark price.
func BuildOrderRecords(runID string, orders *order.List, mark decimal.Decimal) []OrderRecord {
	ids := orders.IDs()
	res := make([]OrderRecord, 0, len(ids))

	for _, id := range ids {
		o, _ := orders.Get(id)

		rec := OrderRecord{
			RunID:      runID,
			OrderID:    id,
			Type:       o.Type.String(),
			Amount:     o.Amount,
			EntryPrice: o.TradeOpen.Price,
			OpenTime:   o.TradeOpen.CreatedAt,
		}

		if o.IsClosed() {
			rec.Profit = o.Profit()
			rec.ExitPrice, rec.CloseTime = exitPoint(o)
		} else {
			rec.Profit = o.ProfitAt(mark)
		}

		res = append(res, rec)
	}
	return res
}

// exitPoint is the whole-order closing trade, or the last sub-order close
// when the order drained through partial take profits.
func exitPoint(o *order.Order) (decimal.Decimal, time.Time) {
	if o.TradeClose != nil {
		return o.TradeClose.Price, o.TradeClose.CreatedAt
	}

	var price decimal.Decimal
	var at time.Time
	for i := range o.SubOrders {
		tc := o.SubOrders[i].TradeClose
		if tc != nil && tc.CreatedAt.After(at) {
			price = tc.Price
			at = tc.CreatedAt
		}
	}
	return price, at
}
