package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
	"github.com/big-striped-cat/zvezdin/strategy/levels"
)

// DeduplicateConfig tunes the deduplicating acceptance policy.
type DeduplicateConfig struct {
	// Trend rejects orders against the global direction: longs in a
	// downtrend, shorts in an uptrend. TrendFlat filters nothing.
	Trend levels.Trend
	// LevelsIntersectionThreshold is the minimal level overlap ratio at
	// which two same-direction orders count as duplicates.
	LevelsIntersectionThreshold decimal.Decimal
	// OrderIntersectionTimeout treats orders opened closer than this as
	// duplicates regardless of levels. Zero disables the time check.
	OrderIntersectionTimeout time.Duration
	// AllowParallelOrders keeps existing orders open next to an accepted
	// one. When false an accepted order supersedes all open orders.
	AllowParallelOrders bool
	// SupersedeChecked, with parallel orders disallowed, closes only those
	// open orders that actually duplicate the candidate; the rest stay
	// open. Default is to close all open orders unconditionally.
	SupersedeChecked bool
}

// DeduplicateOrderManager rejects proposals that duplicate an open order by
// time or by level overlap, and applies a global trend filter.
type DeduplicateOrderManager struct {
	orders *order.List
	cfg    DeduplicateConfig
}

func NewDeduplicateOrderManager(orders *order.List, cfg DeduplicateConfig) *DeduplicateOrderManager {
	if cfg.Trend == 0 {
		cfg.Trend = levels.TrendFlat
	}
	return &DeduplicateOrderManager{orders: orders, cfg: cfg}
}

func (m *DeduplicateOrderManager) IsOrderAcceptable(o *order.Order) Decision {
	if m.cfg.Trend == levels.TrendDown && o.Type == order.Long {
		return reject("long order in a downtrend")
	}
	if m.cfg.Trend == levels.TrendUp && o.Type == order.Short {
		return reject("short order in an uptrend")
	}

	openIDs := m.orders.OpenIDs()
	if len(openIDs) == 0 {
		return accept()
	}

	if !m.cfg.AllowParallelOrders {
		return m.decideSupersede(o, openIDs)
	}

	for _, id := range openIDs {
		existing, _ := m.orders.Get(id)
		if IsDuplicateOrder(o, existing, m.cfg.LevelsIntersectionThreshold, m.cfg.OrderIntersectionTimeout) {
			return reject(fmt.Sprintf("duplicate of open order %d", id))
		}
	}
	return accept()
}

// decideSupersede handles the no-parallel-orders mode: a candidate opened
// too close to any open order is rejected, otherwise it is accepted and the
// open orders make room for it.
func (m *DeduplicateOrderManager) decideSupersede(o *order.Order, openIDs []order.ID) Decision {
	for _, id := range openIDs {
		existing, _ := m.orders.Get(id)
		if withinTimeout(o, existing, m.cfg.OrderIntersectionTimeout) {
			return reject(fmt.Sprintf("opened within timeout of open order %d", id))
		}
	}

	if !m.cfg.SupersedeChecked {
		return accept(openIDs...)
	}

	var closeIDs []order.ID
	for _, id := range openIDs {
		existing, _ := m.orders.Get(id)
		if IsDuplicateOrder(o, existing, m.cfg.LevelsIntersectionThreshold, 0) {
			closeIDs = append(closeIDs, id)
		}
	}
	return accept(closeIDs...)
}

// IsDuplicateOrder reports whether two orders trade the same setup: same
// direction and either opened closer than timeout or overlapping levels at
// or above the threshold.
func IsDuplicateOrder(a, b *order.Order, levelsIntersectionThreshold decimal.Decimal, timeout time.Duration) bool {
	if a.Type != b.Type {
		return false
	}

	if withinTimeout(a, b, timeout) {
		return true
	}

	rate := LevelsIntersectionRate(a.Level, b.Level)
	return rate.GreaterThanOrEqual(levelsIntersectionThreshold)
}

func withinTimeout(a, b *order.Order, timeout time.Duration) bool {
	if timeout == 0 {
		return false
	}
	delta := a.TradeOpen.CreatedAt.Sub(b.TradeOpen.CreatedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta < timeout
}

// LevelsIntersectionRate is a symmetric overlap ratio in [0, 1]:
// 0 for disjoint levels, 2*overlap/(sizeA+sizeB) otherwise.
func LevelsIntersectionRate(a, b market.Level) decimal.Decimal {
	if a.Low.GreaterThanOrEqual(b.High) || b.Low.GreaterThanOrEqual(a.High) {
		return decimal.Zero
	}

	common := decimal.Min(a.High.Sub(b.Low), b.High.Sub(a.Low))

	return common.Mul(decimal.NewFromInt(2)).Div(a.Size().Add(b.Size()))
}
