package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/big-striped-cat/zvezdin/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "Inspect recorded backtest runs",
	Long: `Runs lists backtest runs recorded in the sqlite journal, newest
first. With a run id argument it prints that run's orders instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

var runsDBPath string

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVarP(&runsDBPath, "db", "d", "backtest.sqlite", "path to the sqlite journal")
}

func runRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return err
	}
	defer j.Close()

	if len(args) == 1 {
		return printOrders(j, args[0])
	}
	return printRuns(j)
}

func printRuns(j *journal.SQLiteJournal) error {
	runs, err := j.ListRuns()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Run", "Strategy", "Start", "End", "Open", "Closed", "Profit", "Unrealized"})
	table.SetBorder(false)

	for _, r := range runs {
		table.Append([]string{
			r.ID,
			r.Strategy,
			r.Start.Format(time.RFC3339),
			r.End.Format(time.RFC3339),
			strconv.Itoa(r.OrdersOpen),
			strconv.Itoa(r.OrdersClosed),
			r.Profit.String(),
			r.ProfitUnrealized.String(),
		})
	}

	table.Render()
	return nil
}

func printOrders(j *journal.SQLiteJournal, runID string) error {
	recs, err := j.ListOrdersByRun(runID)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Order", "Type", "Amount", "Entry", "Exit", "Opened", "Closed", "Profit"})
	table.SetBorder(false)

	for _, rec := range recs {
		closeTime := ""
		if !rec.CloseTime.IsZero() {
			closeTime = rec.CloseTime.Format(time.RFC3339)
		}
		table.Append([]string{
			strconv.FormatInt(int64(rec.OrderID), 10),
			rec.Type,
			rec.Amount.String(),
			rec.EntryPrice.String(),
			rec.ExitPrice.String(),
			rec.OpenTime.Format(time.RFC3339),
			closeTime,
			rec.Profit.String(),
		})
	}

	table.Render()
	return nil
}
