package journal

import (
	"os"

	"github.com/gocarina/gocsv"
)

// CSVJournal writes order records to a CSV file and logs run summaries
// nowhere: it is meant for quick one-off inspection, not for history.
type CSVJournal struct {
	path    string
	records []OrderRecord
}

func NewCSV(path string) *CSVJournal {
	return &CSVJournal{path: path}
}

func (j *CSVJournal) RecordRun(r RunRecord) error { return nil }

func (j *CSVJournal) RecordOrders(recs []OrderRecord) error {
	j.records = append(j.records, recs...)
	return nil
}

// Close flushes the accumulated records. The file is written in one shot so
// an aborted run leaves no half-written file behind.
func (j *CSVJournal) Close() error {
	f, err := os.Create(j.path)
	if err != nil {
		return err
	}

	if err := gocsv.Marshal(&j.records, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
