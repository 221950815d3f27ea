package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
)

// WriteReport renders the run summary as a small table.
func WriteReport(w io.Writer, res Result) error {
	if res.RunID != "" {
		fmt.Fprintf(w, "run %s\n", res.RunID)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "Value"})
	table.SetBorder(false)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	rows := [][]string{
		{"Start", res.Start.Format(time.RFC3339)},
		{"End", res.End.Format(time.RFC3339)},
		{"Orders open", fmt.Sprintf("%d", res.OrdersOpen)},
		{"Orders closed", fmt.Sprintf("%d", res.OrdersClosed)},
		{"Profit (closed)", res.Profit.String()},
		{"Profit (open, marked)", res.ProfitUnrealized.String()},
	}
	for _, row := range rows {
		table.Append(row)
	}

	table.Render()
	return nil
}
