package broker

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(minutes int) time.Time {
	return time.Date(2022, 2, 18, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute)
}

func kline(minutes int, open, high, low, close string) market.Kline {
	return market.Kline{
		OpenTime:  at(minutes),
		CloseTime: at(minutes + 5),
		Open:      d(open),
		High:      d(high),
		Low:       d(low),
		Close:     d(close),
	}
}

func newSimulator(t *testing.T, policy AmbiguityPolicy) *Simulator {
	t.Helper()
	s, err := NewSimulator(market.NewSliceFeed(nil), SimulatorConfig{
		TakeProfitStopLossBothAchieved: policy,
	})
	require.NoError(t, err)
	return s
}

func longOrder(takeProfit, stopLoss string, subs ...order.SubOrder) *order.Order {
	k := kline(0, "100", "101", "99", "100")
	return order.NewFromKline(
		order.Long, k, market.NewLevel(d("99"), d("101")),
		d("1"), d(takeProfit), d(stopLoss), 0, subs,
	)
}

func TestNewSimulatorRequiresPolicy(t *testing.T) {
	t.Parallel()

	_, err := NewSimulator(market.NewSliceFeed(nil), SimulatorConfig{})
	assert.Error(t, err)

	_, err = NewSimulator(market.NewSliceFeed(nil), SimulatorConfig{
		TakeProfitStopLossBothAchieved: "whatever",
	})
	assert.Error(t, err)
}

func TestSubmitOrderAssignsIncreasingIDs(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)

	e1, err := s.SubmitOrder(longOrder("110", "90"))
	require.NoError(t, err)
	e2, err := s.SubmitOrder(longOrder("110", "90"))
	require.NoError(t, err)

	assert.Equal(t, EventOrderOpen, e1.Type)
	assert.True(t, e1.Price.Equal(d("100")))
	assert.Less(t, e1.OrderID, e2.OrderID)
}

func TestEventsNoTouch(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	_, err := s.SubmitOrder(longOrder("110", "90"))
	require.NoError(t, err)

	events, err := s.Events(kline(5, "100", "105", "95", "102"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventsTakeProfit(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	ev, err := s.SubmitOrder(longOrder("110", "90"))
	require.NoError(t, err)

	events, err := s.Events(kline(5, "105", "111", "100", "108"))
	require.NoError(t, err)
	require.Len(t, events[ev.OrderID], 1)

	got := events[ev.OrderID][0]
	assert.Equal(t, EventSubOrderCloseByTakeProfit, got.Type)
	require.NotNil(t, got.SubOrderIndex)
	assert.Equal(t, 0, *got.SubOrderIndex)
	assert.True(t, got.Price.Equal(d("110")))
	assert.Equal(t, at(5), got.CreatedAt)

	// The order drained, it must not fire again.
	events, err = s.Events(kline(10, "108", "112", "105", "109"))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEventsStopLoss(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	ev, err := s.SubmitOrder(longOrder("110", "90",
		order.SubOrder{Type: order.Long, Amount: d("0.5"), TakeProfit: d("105")},
		order.SubOrder{Type: order.Long, Amount: d("0.5"), TakeProfit: d("110")},
	))
	require.NoError(t, err)

	events, err := s.Events(kline(5, "95", "96", "89", "91"))
	require.NoError(t, err)
	require.Len(t, events[ev.OrderID], 1, "one stop loss event for the whole order")

	got := events[ev.OrderID][0]
	assert.Equal(t, EventOrderCloseByStopLoss, got.Type)
	assert.Nil(t, got.SubOrderIndex)
	assert.True(t, got.Price.Equal(d("90")))
}

func TestEventsPartialTakeProfits(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	ev, err := s.SubmitOrder(longOrder("110", "90",
		order.SubOrder{Type: order.Long, Amount: d("0.5"), TakeProfit: d("105")},
		order.SubOrder{Type: order.Long, Amount: d("0.5"), TakeProfit: d("110")},
	))
	require.NoError(t, err)

	// Only the first rung is reached.
	events, err := s.Events(kline(5, "100", "106", "100", "104"))
	require.NoError(t, err)
	require.Len(t, events[ev.OrderID], 1)
	assert.Equal(t, 0, *events[ev.OrderID][0].SubOrderIndex)

	// Second rung later; the already closed one stays quiet.
	events, err = s.Events(kline(10, "104", "111", "103", "110"))
	require.NoError(t, err)
	require.Len(t, events[ev.OrderID], 1)
	assert.Equal(t, 1, *events[ev.OrderID][0].SubOrderIndex)

	events, err = s.Events(kline(15, "110", "120", "80", "100"))
	require.NoError(t, err)
	assert.Empty(t, events, "fully drained order is gone")
}

func TestEventsBothRungsInOneKline(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	ev, err := s.SubmitOrder(longOrder("110", "90",
		order.SubOrder{Type: order.Long, Amount: d("0.5"), TakeProfit: d("105")},
		order.SubOrder{Type: order.Long, Amount: d("0.5"), TakeProfit: d("110")},
	))
	require.NoError(t, err)

	events, err := s.Events(kline(5, "100", "112", "100", "111"))
	require.NoError(t, err)
	require.Len(t, events[ev.OrderID], 2)
	assert.Equal(t, 0, *events[ev.OrderID][0].SubOrderIndex)
	assert.Equal(t, 1, *events[ev.OrderID][1].SubOrderIndex)
}

func TestEventsAmbiguousKlineFatal(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	_, err := s.SubmitOrder(longOrder("110", "90"))
	require.NoError(t, err)

	_, err = s.Events(kline(5, "100", "111", "89", "100"))
	assert.ErrorIs(t, err, ErrAmbiguousKline)
}

func TestEventsAmbiguousKlineCloseByStopLoss(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityCloseByStopLoss)
	ev, err := s.SubmitOrder(longOrder("110", "90"))
	require.NoError(t, err)

	events, err := s.Events(kline(5, "100", "111", "89", "100"))
	require.NoError(t, err)
	require.Len(t, events[ev.OrderID], 1)

	got := events[ev.OrderID][0]
	assert.Equal(t, EventOrderCloseByStopLoss, got.Type)
	assert.True(t, got.Price.Equal(d("90")), "worst case wins")
}

func TestCloseOrder(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	ev, err := s.SubmitOrder(longOrder("110", "90"))
	require.NoError(t, err)

	k := kline(5, "102", "103", "101", "102")
	got, err := s.CloseOrder(ev.OrderID, k)
	require.NoError(t, err)

	assert.Equal(t, EventOrderClose, got.Type)
	assert.True(t, got.Price.Equal(d("102")), "closes at the kline open price")
	assert.Equal(t, at(5), got.CreatedAt)

	_, err = s.CloseOrder(ev.OrderID, k)
	assert.Error(t, err, "already closed")
}

func TestUpdateOrderMovesStop(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	ev, err := s.SubmitOrder(longOrder("110", "90"))
	require.NoError(t, err)

	require.NoError(t, s.UpdateOrder(StopLossUpdate{OrderID: ev.OrderID, StopLoss: d("100")}))

	// The old stop would not have triggered here; the new one does.
	events, err := s.Events(kline(5, "103", "104", "99", "101"))
	require.NoError(t, err)
	require.Len(t, events[ev.OrderID], 1)
	assert.Equal(t, EventOrderCloseByStopLoss, events[ev.OrderID][0].Type)
	assert.True(t, events[ev.OrderID][0].Price.Equal(d("100")))
}

func TestUpdateOrderUnknownID(t *testing.T) {
	t.Parallel()

	s := newSimulator(t, AmbiguityFatal)
	assert.Error(t, s.UpdateOrder(StopLossUpdate{OrderID: 42, StopLoss: d("100")}))
}
