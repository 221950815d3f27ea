package market

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
)

// Feed yields klines one at a time in ascending time order.
// Implementations must be deterministic and return ok=false at EOF.
type Feed interface {
	Next() (k Kline, ok bool, err error)
	Close() error
}

// CSVOptions controls how kline CSV files are decoded.
type CSVOptions struct {
	// SkipHeader drops the first row of every file.
	SkipHeader bool
	// Timeframe is used to derive the close time from the open time.
	// Binance dumps carry close times like 1642637099999 (next open minus
	// 1ms), which is awkward for logging, so the close time is rebuilt.
	Timeframe time.Duration
}

// csvKline is the on-disk row layout: open_time,open,high,low,close,volume.
type csvKline struct {
	OpenTime int64           `csv:"open_time"`
	Open     decimal.Decimal `csv:"open"`
	High     decimal.Decimal `csv:"high"`
	Low      decimal.Decimal `csv:"low"`
	Close    decimal.Decimal `csv:"close"`
	Volume   decimal.Decimal `csv:"volume"`
}

// ReadKlinesFromCSV loads a single kline file. Open times are epoch
// milliseconds in UTC.
func ReadKlinesFromCSV(path string, opts CSVOptions) ([]Kline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read klines: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if opts.SkipHeader {
		if _, err := r.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("read klines %s: skip header: %w", path, err)
		}
	}

	var rows []csvKline
	if err := gocsv.UnmarshalWithoutHeaders(r, &rows); err != nil {
		return nil, fmt.Errorf("read klines %s: %w", path, err)
	}

	res := make([]Kline, 0, len(rows))
	for _, row := range rows {
		openTime := time.UnixMilli(row.OpenTime).UTC()
		res = append(res, Kline{
			OpenTime:  openTime,
			CloseTime: openTime.Add(opts.Timeframe),
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		})
	}
	return res, nil
}

// DataRange enumerates one kline file per day between From and To inclusive.
// PathTemplate is a Go time layout, e.g. "market_data/BTCBUSD-5m-2006-01-02.csv".
type DataRange struct {
	PathTemplate string
	From         time.Time
	To           time.Time
}

func (r DataRange) Paths() []string {
	var res []string
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		res = append(res, d.Format(r.PathTemplate))
	}
	return res
}

// CSVFeed streams klines from a list of files, loading one file at a time.
type CSVFeed struct {
	paths []string
	opts  CSVOptions

	buf []Kline
	idx int
}

func NewCSVFeed(paths []string, opts CSVOptions) *CSVFeed {
	return &CSVFeed{paths: paths, opts: opts}
}

func (f *CSVFeed) Next() (Kline, bool, error) {
	for f.idx >= len(f.buf) {
		if len(f.paths) == 0 {
			return Kline{}, false, nil
		}
		path := f.paths[0]
		f.paths = f.paths[1:]

		buf, err := ReadKlinesFromCSV(path, f.opts)
		if err != nil {
			return Kline{}, false, err
		}
		f.buf = buf
		f.idx = 0
	}

	k := f.buf[f.idx]
	f.idx++
	return k, true, nil
}

func (f *CSVFeed) Close() error { return nil }

// SliceFeed serves a fixed kline slice; used by tests and synthetic runs.
type SliceFeed struct {
	klines []Kline
	idx    int
}

func NewSliceFeed(klines []Kline) *SliceFeed {
	return &SliceFeed{klines: klines}
}

func (f *SliceFeed) Next() (Kline, bool, error) {
	if f.idx >= len(f.klines) {
		return Kline{}, false, nil
	}
	k := f.klines[f.idx]
	f.idx++
	return k, true, nil
}

func (f *SliceFeed) Close() error { return nil }
