package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/big-striped-cat/zvezdin/broker"
	"github.com/big-striped-cat/zvezdin/emergency"
	"github.com/big-striped-cat/zvezdin/strategy"
	"github.com/big-striped-cat/zvezdin/strategy/levels"
)

// Config is the complete backtest configuration.
type Config struct {
	Broker       BrokerConfig       `yaml:"broker"`
	OrderManager OrderManagerConfig `yaml:"order_manager"`
	Emitter      EmitterConfig      `yaml:"emitter"`
	Emergency    EmergencyConfig    `yaml:"emergency"`
	Journal      JournalConfig      `yaml:"journal"`
}

type BrokerConfig struct {
	Simulator SimulatorConfig `yaml:"simulator"`
}

type SimulatorConfig struct {
	// TakeProfitStopLossBothAchieved must be set explicitly: "fatal" or
	// "close_by_stop_loss". There is no safe default for ambiguous klines.
	TakeProfitStopLossBothAchieved string   `yaml:"take_profit_stop_loss_both_achieved"`
	SkipHeader                     bool     `yaml:"skip_header"`
	Timeframe                      Duration `yaml:"timeframe"`
}

type OrderManagerConfig struct {
	Trend                       string   `yaml:"trend"`
	LevelsIntersectionThreshold Decimal  `yaml:"levels_intersection_threshold"`
	OrderIntersectionTimeout    Duration `yaml:"order_intersection_timeout"`
	AllowParallelOrders         bool     `yaml:"allow_parallel_orders"`
	SupersedeChecked            bool     `yaml:"supersede_checked"`
}

type EmitterConfig struct {
	PriceOpenToLevelRatioThreshold Decimal  `yaml:"price_open_to_level_ratio_threshold"`
	MinLevelsVariation             Decimal  `yaml:"min_levels_variation"`
	StopLossLevelPercent           Decimal  `yaml:"stop_loss_level_percent"`
	ProfitLossRatio                Decimal  `yaml:"profit_loss_ratio"`
	Amount                         Decimal  `yaml:"amount"`
	SubOrders                      int      `yaml:"sub_orders"`
	AmountPrecision                int32    `yaml:"amount_precision"`
	AutoCloseIn                    Duration `yaml:"auto_close_in"`
	CalcLevels                     string   `yaml:"calc_levels"`
}

type EmergencyConfig struct {
	CooldownBars    int     `yaml:"cooldown_bars"`
	SpikeFactor     float64 `yaml:"spike_factor"`
	MedianWindow    int     `yaml:"median_window"`
	ShortMeanWindow int     `yaml:"short_mean_window"`
	ShortMeanFactor float64 `yaml:"short_mean_factor"`
}

type JournalConfig struct {
	// Type is "sqlite", "csv" or "none".
	Type       string `yaml:"type"`
	DBPath     string `yaml:"db_path"`
	OrdersFile string `yaml:"orders_file"`
}

// Load reads and validates a config file. Unknown keys are an error: a typo
// in an option name must not silently fall back to a default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	defer f.Close()

	cfg := Default()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Default carries every tunable except the ambiguity policy, which has no
// default on purpose.
func Default() *Config {
	return &Config{
		Broker: BrokerConfig{
			Simulator: SimulatorConfig{
				SkipHeader: false,
				Timeframe:  Duration(5 * time.Minute),
			},
		},
		OrderManager: OrderManagerConfig{
			Trend:                       "flat",
			LevelsIntersectionThreshold: NewDecimal(decimal.NewFromFloat(0.5)),
			OrderIntersectionTimeout:    Duration(150 * time.Minute),
		},
		Emitter: EmitterConfig{
			PriceOpenToLevelRatioThreshold: NewDecimal(decimal.NewFromFloat(0.008)),
			StopLossLevelPercent:           NewDecimal(decimal.NewFromInt(1)),
			ProfitLossRatio:                NewDecimal(decimal.NewFromInt(2)),
			Amount:                         NewDecimal(decimal.NewFromInt(1)),
			SubOrders:                      1,
			AutoCloseIn:                    Duration(8 * time.Hour),
			CalcLevels:                     string(strategy.LevelsByMAExtremums),
		},
		Journal: JournalConfig{Type: "none"},
	}
}

func (c *Config) Validate() error {
	policy := broker.AmbiguityPolicy(c.Broker.Simulator.TakeProfitStopLossBothAchieved)
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("broker.simulator: %w", err)
	}
	if c.Broker.Simulator.Timeframe <= 0 {
		return fmt.Errorf("broker.simulator.timeframe must be positive")
	}

	if _, err := levels.ParseTrend(c.OrderManager.Trend); err != nil {
		return fmt.Errorf("order_manager.trend: %w", err)
	}

	if c.Emitter.SubOrders < 1 {
		return fmt.Errorf("emitter.sub_orders must be at least 1")
	}
	if !c.Emitter.Amount.IsPositive() {
		return fmt.Errorf("emitter.amount must be positive")
	}
	switch strategy.CalcLevelsStrategy(c.Emitter.CalcLevels) {
	case strategy.LevelsByDensity, strategy.LevelsByMAExtremums:
	default:
		return fmt.Errorf("emitter.calc_levels: unknown strategy %q", c.Emitter.CalcLevels)
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path is required for the sqlite journal")
		}
	case "csv":
		if c.Journal.OrdersFile == "" {
			return fmt.Errorf("journal.orders_file is required for the csv journal")
		}
	case "none":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}

	return nil
}

// SimulatorConfig converts to the broker package's config type.
func (c *Config) SimulatorConfig() broker.SimulatorConfig {
	return broker.SimulatorConfig{
		TakeProfitStopLossBothAchieved: broker.AmbiguityPolicy(c.Broker.Simulator.TakeProfitStopLossBothAchieved),
	}
}

// DeduplicateConfig converts to the order manager's config type.
func (c *Config) DeduplicateConfig() (strategy.DeduplicateConfig, error) {
	trend, err := levels.ParseTrend(c.OrderManager.Trend)
	if err != nil {
		return strategy.DeduplicateConfig{}, err
	}
	return strategy.DeduplicateConfig{
		Trend:                       trend,
		LevelsIntersectionThreshold: c.OrderManager.LevelsIntersectionThreshold.Decimal,
		OrderIntersectionTimeout:    c.OrderManager.OrderIntersectionTimeout.Std(),
		AllowParallelOrders:         c.OrderManager.AllowParallelOrders,
		SupersedeChecked:            c.OrderManager.SupersedeChecked,
	}, nil
}

// JumpLevelConfig converts to the emitter's config type.
func (c *Config) JumpLevelConfig() strategy.JumpLevelConfig {
	return strategy.JumpLevelConfig{
		PriceOpenToLevelRatioThreshold: c.Emitter.PriceOpenToLevelRatioThreshold.Decimal,
		MinLevelsVariation:             c.Emitter.MinLevelsVariation.Decimal,
		StopLossLevelPercent:           c.Emitter.StopLossLevelPercent.Decimal,
		ProfitLossRatio:                c.Emitter.ProfitLossRatio.Decimal,
		Amount:                         c.Emitter.Amount.Decimal,
		SubOrdersCount:                 c.Emitter.SubOrders,
		AmountPrecision:                c.Emitter.AmountPrecision,
		AutoCloseIn:                    c.Emitter.AutoCloseIn.Std(),
		CalcLevels:                     strategy.CalcLevelsStrategy(c.Emitter.CalcLevels),
	}
}

// EmergencyConfig converts to the breaker's config type.
func (c *Config) EmergencyConfig() emergency.Config {
	return emergency.Config{
		CooldownBars:    c.Emergency.CooldownBars,
		SpikeFactor:     c.Emergency.SpikeFactor,
		MedianWindow:    c.Emergency.MedianWindow,
		ShortMeanWindow: c.Emergency.ShortMeanWindow,
		ShortMeanFactor: c.Emergency.ShortMeanFactor,
	}
}
