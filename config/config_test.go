package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/big-striped-cat/zvezdin/broker"
	"github.com/big-striped-cat/zvezdin/strategy"
	"github.com/big-striped-cat/zvezdin/strategy/levels"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
broker:
  simulator:
    take_profit_stop_loss_both_achieved: close_by_stop_loss
    skip_header: true
    timeframe: 5m
order_manager:
  trend: down
  levels_intersection_threshold: 0.5
  order_intersection_timeout: 150m
  allow_parallel_orders: true
emitter:
  price_open_to_level_ratio_threshold: 0.008
  auto_close_in: 8h
  sub_orders: 3
  calc_levels: by_density
journal:
  type: sqlite
  db_path: backtest.sqlite
`

func TestLoad(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "close_by_stop_loss", cfg.Broker.Simulator.TakeProfitStopLossBothAchieved)
	assert.True(t, cfg.Broker.Simulator.SkipHeader)
	assert.Equal(t, 5*time.Minute, cfg.Broker.Simulator.Timeframe.Std())

	assert.Equal(t, "down", cfg.OrderManager.Trend)
	assert.Equal(t, "0.5", cfg.OrderManager.LevelsIntersectionThreshold.String())
	assert.Equal(t, 150*time.Minute, cfg.OrderManager.OrderIntersectionTimeout.Std())
	assert.True(t, cfg.OrderManager.AllowParallelOrders)

	// Unquoted yaml numbers must not pass through float64.
	assert.Equal(t, "0.008", cfg.Emitter.PriceOpenToLevelRatioThreshold.String())
	assert.Equal(t, 3, cfg.Emitter.SubOrders)
	assert.Equal(t, "by_density", cfg.Emitter.CalcLevels)

	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "backtest.sqlite", cfg.Journal.DBPath)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
broker:
  simulator:
    take_profit_stop_loss_both_achieved: fatal
`))
	require.NoError(t, err)

	assert.Equal(t, "flat", cfg.OrderManager.Trend)
	assert.Equal(t, 150*time.Minute, cfg.OrderManager.OrderIntersectionTimeout.Std())
	assert.Equal(t, "0.008", cfg.Emitter.PriceOpenToLevelRatioThreshold.String())
	assert.Equal(t, 8*time.Hour, cfg.Emitter.AutoCloseIn.Std())
	assert.Equal(t, 1, cfg.Emitter.SubOrders)
	assert.Equal(t, "none", cfg.Journal.Type)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			"ambiguity policy is mandatory",
			`
order_manager:
  trend: flat
`,
		},
		{
			"unknown ambiguity policy",
			`
broker:
  simulator:
    take_profit_stop_loss_both_achieved: shrug
`,
		},
		{
			"unknown key",
			`
broker:
  simulator:
    take_profit_stop_loss_both_achieved: fatal
    takeprofit_policy: fatal
`,
		},
		{
			"bad trend",
			`
broker:
  simulator:
    take_profit_stop_loss_both_achieved: fatal
order_manager:
  trend: sideways
`,
		},
		{
			"bad duration",
			`
broker:
  simulator:
    take_profit_stop_loss_both_achieved: fatal
emitter:
  auto_close_in: 3 fortnights
`,
		},
		{
			"sqlite journal without path",
			`
broker:
  simulator:
    take_profit_stop_loss_both_achieved: fatal
journal:
  type: sqlite
`,
		},
		{
			"unknown levels strategy",
			`
broker:
  simulator:
    take_profit_stop_loss_both_achieved: fatal
emitter:
  calc_levels: by_vibes
`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestComponentConfigs(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	simCfg := cfg.SimulatorConfig()
	assert.Equal(t, broker.AmbiguityCloseByStopLoss, simCfg.TakeProfitStopLossBothAchieved)

	dedupCfg, err := cfg.DeduplicateConfig()
	require.NoError(t, err)
	assert.Equal(t, levels.TrendDown, dedupCfg.Trend)
	assert.True(t, dedupCfg.AllowParallelOrders)
	assert.Equal(t, 150*time.Minute, dedupCfg.OrderIntersectionTimeout)

	jlCfg := cfg.JumpLevelConfig()
	assert.Equal(t, strategy.LevelsByDensity, jlCfg.CalcLevels)
	assert.Equal(t, 3, jlCfg.SubOrdersCount)
	assert.Equal(t, 8*time.Hour, jlCfg.AutoCloseIn)
}
