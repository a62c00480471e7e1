// journal/csv.go
package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
)

const dateLayout = "2006-01-02"

// TradeHeader is the trade ledger column set.
var TradeHeader = []string{"Date", "asset", "side", "qty", "price", "notional", "fee_var", "fee_fixed", "fee_total"}

// EquityHeader returns the equity curve columns for a universe:
// Date, equity, cash, qty_<A>..., val_<A>...
func EquityHeader(assets []string) []string {
	h := make([]string, 0, 3+2*len(assets))
	h = append(h, "Date", "equity", "cash")
	for _, a := range assets {
		h = append(h, "qty_"+a)
	}
	for _, a := range assets {
		h = append(h, "val_"+a)
	}
	return h
}

type CSVJournal struct {
	assets []string
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string, assets []string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	fail := func(err error) (*CSVJournal, error) {
		tf.Close()
		ef.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write(TradeHeader); err != nil {
		return fail(err)
	}
	if err := ew.Write(EquityHeader(assets)); err != nil {
		return fail(err)
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return fail(err)
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return fail(err)
	}

	return &CSVJournal{assets, tw, ew, tf, ef}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.trades.Write([]string{
		t.Date.Format(dateLayout),
		t.Asset,
		string(t.Side),
		f(t.Qty),
		f(t.Price),
		f(t.Notional),
		f(t.FeeVar),
		f(t.FeeFixed),
		f(t.FeeTotal),
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	if len(e.Qty) != len(j.assets) || len(e.Value) != len(j.assets) {
		return fmt.Errorf("equity snapshot %s: got %d positions, want %d",
			e.Date.Format(dateLayout), len(e.Qty), len(j.assets))
	}

	rec := make([]string, 0, 3+2*len(j.assets))
	rec = append(rec, e.Date.Format(dateLayout), f(e.Equity), f(e.Cash))
	for _, q := range e.Qty {
		rec = append(rec, f(q))
	}
	for _, v := range e.Value {
		rec = append(rec, f(v))
	}
	return j.equity.Write(rec)
}

// Close flushes both files and closes them, even when a flush fails.
func (j *CSVJournal) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	return errors.Join(j.trades.Error(), j.equity.Error(), j.tf.Close(), j.ef.Close())
}

// f formats with the shortest representation that round-trips, so replays
// of the same run produce byte-identical files.
func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
