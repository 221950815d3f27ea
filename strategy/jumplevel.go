package strategy

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
	"github.com/big-striped-cat/zvezdin/strategy/levels"
)

// CalcLevelsStrategy selects the level detection algorithm.
type CalcLevelsStrategy string

const (
	LevelsByDensity     CalcLevelsStrategy = "by_density"
	LevelsByMAExtremums CalcLevelsStrategy = "by_ma_extremums"
)

func (s CalcLevelsStrategy) calc() (func([]market.Kline) []market.Level, error) {
	switch s {
	case LevelsByDensity:
		return func(klines []market.Kline) []market.Level {
			return levels.CalcLevelsByDensity(market.Closes(klines))
		}, nil
	case LevelsByMAExtremums:
		return levels.CalcLevelsByMAExtremums, nil
	default:
		return nil, fmt.Errorf("unknown levels strategy %q", s)
	}
}

// JumpLevelConfig tunes the level bounce emitter.
type JumpLevelConfig struct {
	// PriceOpenToLevelRatioThreshold rejects entries too far from the level:
	// the move has already happened and the entry would be late.
	PriceOpenToLevelRatioThreshold decimal.Decimal
	// MinLevelsVariation drops levels too close to an already kept one.
	// Zero keeps all levels.
	MinLevelsVariation decimal.Decimal
	// StopLossLevelPercent places the stop this far beyond the level mid.
	StopLossLevelPercent decimal.Decimal
	// ProfitLossRatio sets the final take profit distance as a multiple of
	// the stop distance.
	ProfitLossRatio decimal.Decimal
	Amount          decimal.Decimal
	// SubOrdersCount > 1 splits the amount into a ladder of partial take
	// profits below the final one.
	SubOrdersCount int
	// AmountPrecision rounds ladder part amounts.
	AmountPrecision int32
	AutoCloseIn     time.Duration
	CalcLevels      CalcLevelsStrategy
}

func (c *JumpLevelConfig) withDefaults() JumpLevelConfig {
	res := *c
	if res.StopLossLevelPercent.IsZero() {
		res.StopLossLevelPercent = decimal.NewFromInt(1)
	}
	if res.ProfitLossRatio.IsZero() {
		res.ProfitLossRatio = decimal.NewFromInt(2)
	}
	if res.Amount.IsZero() {
		res.Amount = decimal.NewFromInt(1)
	}
	if res.SubOrdersCount == 0 {
		res.SubOrdersCount = 1
	}
	if res.CalcLevels == "" {
		res.CalcLevels = LevelsByMAExtremums
	}
	return res
}

// JumpLevelEmitter proposes an order when the price bounces off an outer
// level: a long above the lowest or highest level after a touch from above,
// a short below it after a touch from below. The trend filters direction.
type JumpLevelEmitter struct {
	cfg        JumpLevelConfig
	calcLevels func([]market.Kline) []market.Level
}

func NewJumpLevelEmitter(cfg JumpLevelConfig) (*JumpLevelEmitter, error) {
	cfg = cfg.withDefaults()
	calc, err := cfg.CalcLevels.calc()
	if err != nil {
		return nil, err
	}
	return &JumpLevelEmitter{cfg: cfg, calcLevels: calc}, nil
}

// GetOrderRequest inspects the historical window and returns a proposal or
// nil. The current price is the close of the last historical kline.
func (e *JumpLevelEmitter) GetOrderRequest(klines []market.Kline) *order.Order {
	kline := klines[len(klines)-1]
	price := kline.Close

	window := market.Closes(klines)
	point := window[len(window)-1]

	trend, err := levels.CalcTrend(window)
	if errors.Is(err, levels.ErrNotEnoughExtremums) {
		return nil
	}

	lvls := e.calcLevels(klines)
	if !e.cfg.MinLevelsVariation.IsZero() {
		lvls = ChooseLevelsByVariation(lvls, e.cfg.MinLevelsVariation)
	}
	if len(lvls) == 0 {
		return nil
	}

	for _, level := range []market.Level{levels.LowestLevel(lvls), levels.HighestLevel(lvls)} {
		interactions := levels.CalcLevelInteractions(window, level)

		if (trend == levels.TrendUp || trend == levels.TrendFlat) &&
			levels.CalcLocation(point, level) == levels.LocationUp &&
			levels.CalcTouchUps(interactions) >= 1 &&
			!e.isOrderLate(level, price) {
			return e.createOrder(order.Long, kline, level)
		}

		if (trend == levels.TrendDown || trend == levels.TrendFlat) &&
			levels.CalcLocation(point, level) == levels.LocationDown &&
			levels.CalcTouchDowns(interactions) >= 1 &&
			!e.isOrderLate(level, price) {
			return e.createOrder(order.Short, kline, level)
		}
	}
	return nil
}

// isOrderLate holds when the price has moved too far off the level mid.
func (e *JumpLevelEmitter) isOrderLate(level market.Level, price decimal.Decimal) bool {
	mid := level.Mid()
	ratio := price.Sub(mid).Abs().Div(mid)
	return ratio.GreaterThan(e.cfg.PriceOpenToLevelRatioThreshold)
}

func (e *JumpLevelEmitter) createOrder(typ order.Type, kline market.Kline, level market.Level) *order.Order {
	mid := level.Mid()

	// The stop sits beyond the level relative to the entry side.
	slPercent := e.cfg.StopLossLevelPercent
	if typ == order.Long {
		slPercent = slPercent.Neg()
	}
	stopLoss := AddPercent(mid, slPercent)

	// risk is signed: positive for a long, negative for a short, so the
	// same formula places the take profit on the right side.
	risk := kline.Close.Sub(stopLoss)
	takeProfit := kline.Close.Add(e.cfg.ProfitLossRatio.Mul(risk))

	subOrders := e.buildSubOrders(typ, kline.Close, stopLoss, risk)

	return order.NewFromKline(
		typ, kline, level,
		e.cfg.Amount, takeProfit, stopLoss,
		e.cfg.AutoCloseIn, subOrders,
	)
}

// buildSubOrders lays the partial take profits evenly between the entry and
// the final target. Filling a rung trails the stop: the first rung moves it
// to break even, later rungs to the previous rung's target.
func (e *JumpLevelEmitter) buildSubOrders(
	typ order.Type, open, stopLoss, risk decimal.Decimal,
) []order.SubOrder {
	n := e.cfg.SubOrdersCount
	if n <= 1 {
		return nil
	}

	amounts := order.SplitAmount(e.cfg.Amount, n, e.cfg.AmountPrecision)
	parts := decimal.NewFromInt(int64(n))

	res := make([]order.SubOrder, n)
	prevTarget := open
	for i := 0; i < n; i++ {
		step := e.cfg.ProfitLossRatio.Mul(risk).Mul(decimal.NewFromInt(int64(i + 1))).Div(parts)
		nextStopLoss := prevTarget

		res[i] = order.SubOrder{
			Type:         typ,
			Amount:       amounts[i],
			TakeProfit:   open.Add(step),
			NextStopLoss: &nextStopLoss,
		}
		prevTarget = res[i].TakeProfit
	}
	return res
}

// ChooseLevelsByVariation greedily keeps levels whose mids differ enough:
// the first level always stays, each next one only when its variation
// against the last kept level exceeds minVariation.
func ChooseLevelsByVariation(lvls []market.Level, minVariation decimal.Decimal) []market.Level {
	var res []market.Level
	for _, l := range lvls {
		if len(res) == 0 || levels.CalcLevelsVariation(l, res[len(res)-1]).GreaterThan(minVariation) {
			res = append(res, l)
		}
	}
	return res
}

// AddPercent shifts d by the given percentage and rounds to a whole price.
func AddPercent(d, percent decimal.Decimal) decimal.Decimal {
	one := decimal.NewFromInt(1)
	factor := one.Add(decimal.NewFromFloat(0.01).Mul(percent))
	return d.Mul(factor).Round(0)
}
