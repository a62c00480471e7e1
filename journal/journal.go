// journal/journal.go
package journal

import (
	"time"
)

// Side of an executed trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// TradeRecord is one executed trade. It is never mutated after creation.
// Notional is Qty × Price before fees.
type TradeRecord struct {
	Date     time.Time
	Asset    string
	Side     Side
	Qty      float64
	Price    float64 // execution price, slippage applied
	Notional float64
	FeeVar   float64
	FeeFixed float64
	FeeTotal float64
}

// EquitySnapshot is the post-trade portfolio value on one trading date.
// Qty and Value are indexed by universe position and valued at the panel close.
type EquitySnapshot struct {
	Date   time.Time
	Equity float64
	Cash   float64
	Qty    []float64
	Value  []float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
