package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "orders.csv")
	j := NewCSV(path)

	require.NoError(t, j.RecordRun(sampleRun("run-1")))
	require.NoError(t, j.RecordOrders([]OrderRecord{{
		RunID:      "run-1",
		OrderID:    1,
		Type:       "long",
		Amount:     d("1"),
		EntryPrice: d("40000.5"),
		ExitPrice:  d("40100"),
		OpenTime:   at(10),
		CloseTime:  at(40),
		Profit:     d("99.5"),
	}}))
	require.NoError(t, j.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 2, "header plus one record")
	assert.Contains(t, lines[0], "entry_price")
	assert.Contains(t, lines[1], "run-1")
	assert.Contains(t, lines[1], "40000.5")
	assert.Contains(t, lines[1], "99.5")
}
