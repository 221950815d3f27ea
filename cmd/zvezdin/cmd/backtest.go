package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/big-striped-cat/zvezdin/backtest"
	"github.com/big-striped-cat/zvezdin/broker"
	"github.com/big-striped-cat/zvezdin/config"
	"github.com/big-striped-cat/zvezdin/emergency"
	"github.com/big-striped-cat/zvezdin/journal"
	"github.com/big-striped-cat/zvezdin/market"
	"github.com/big-striped-cat/zvezdin/order"
	"github.com/big-striped-cat/zvezdin/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay historical klines through a strategy",
	Long: `Backtest runs a strategy against daily kline CSV dumps.

Supported strategies:
  - buy-and-hold:  open one long position and ride it out
  - sell-and-hold: open one short position and ride it out
  - levels-v1:     trade bounces off support/resistance levels

Example:
  zvezdin backtest --config config.yml --strategy levels-v1 \
    --from 2022-02-18 --to 2022-02-20 --window 30`,
	RunE: runBacktest,
}

var (
	btConfigPath   string
	btStrategy     string
	btFrom         string
	btTo           string
	btWindowSize   int
	btPathTemplate string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "config.yml", "path to config file")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "", "strategy name (buy-and-hold, sell-and-hold, levels-v1)")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "first day of kline data (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "last day of kline data (YYYY-MM-DD)")
	backtestCmd.Flags().IntVarP(&btWindowSize, "window", "w", 1, "historical kline window size")
	backtestCmd.Flags().StringVar(&btPathTemplate, "data", "market_data/BTCBUSD-5m-2006-01-02.csv", "kline file path as a Go time layout")

	backtestCmd.MarkFlagRequired("strategy")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(btConfigPath)
	if err != nil {
		return err
	}

	from, err := time.Parse("2006-01-02", btFrom)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	to, err := time.Parse("2006-01-02", btTo)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("--to %s is before --from %s", btTo, btFrom)
	}

	dataRange := market.DataRange{PathTemplate: btPathTemplate, From: from, To: to}
	feed := market.NewCSVFeed(dataRange.Paths(), market.CSVOptions{
		SkipHeader: cfg.Broker.Simulator.SkipHeader,
		Timeframe:  cfg.Broker.Simulator.Timeframe.Std(),
	})

	sim, err := broker.NewSimulator(feed, cfg.SimulatorConfig())
	if err != nil {
		return err
	}

	orders := order.NewList()
	manager, emitter, err := strategyContext(btStrategy, orders, cfg)
	if err != nil {
		return err
	}

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}

	runner := backtest.Runner{
		Broker:     sim,
		Manager:    manager,
		Emitter:    emitter,
		Detector:   emergency.NewDetector(cfg.EmergencyConfig()),
		Orders:     orders,
		Journal:    j,
		Strategy:   btStrategy,
		WindowSize: btWindowSize,
	}

	res, err := runner.Run(cmd.Context())
	if err != nil {
		if j != nil {
			j.Close()
		}
		return err
	}

	if j != nil {
		if err := j.Close(); err != nil {
			return fmt.Errorf("close journal: %w", err)
		}
	}

	return backtest.WriteReport(os.Stdout, res)
}

func strategyContext(name string, orders *order.List, cfg *config.Config) (strategy.OrderManager, strategy.Emitter, error) {
	switch name {
	case "buy-and-hold":
		return strategy.NewHoldOrderManager(orders), strategy.NewConstantEmitter(order.Long), nil

	case "sell-and-hold":
		return strategy.NewHoldOrderManager(orders), strategy.NewConstantEmitter(order.Short), nil

	case "levels-v1":
		dedupCfg, err := cfg.DeduplicateConfig()
		if err != nil {
			return nil, nil, err
		}
		emitter, err := strategy.NewJumpLevelEmitter(cfg.JumpLevelConfig())
		if err != nil {
			return nil, nil, err
		}
		return strategy.NewDeduplicateOrderManager(orders, dedupCfg), emitter, nil

	default:
		return nil, nil, fmt.Errorf("unknown strategy %q", name)
	}
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	case "csv":
		return journal.NewCSV(cfg.OrdersFile), nil
	default:
		return nil, nil
	}
}
