package backtest

import (
	"time"

	"github.com/rustyeddy/marketlab/journal"
)

// Tracker appends one equity snapshot per simulated date.
type Tracker struct {
	snaps []journal.EquitySnapshot
}

func NewTracker(days int) *Tracker {
	return &Tracker{snaps: make([]journal.EquitySnapshot, 0, days)}
}

// Record values p at the panel closes for date.
func (t *Tracker) Record(date time.Time, p *Portfolio, closes []float64) journal.EquitySnapshot {
	qty, value := p.Positions(closes)
	s := journal.EquitySnapshot{
		Date:   date,
		Equity: p.Value(closes),
		Cash:   p.Cash,
		Qty:    qty,
		Value:  value,
	}
	t.snaps = append(t.snaps, s)
	return s
}

func (t *Tracker) Snapshots() []journal.EquitySnapshot { return t.snaps }

func (t *Tracker) Summary() Summary { return Summarize(t.snaps) }
