package journal

import (
	"time"
)

// BacktestRun mirrors the runs table: one row per simulation.
type BacktestRun struct {
	RunID   string
	Created time.Time
	Dataset string // panel path

	Universe []string
	Policy   string // e.g. "periodic(monthly)"

	// Cost model and account
	InitialCash   float64
	FeeBps        float64
	SlippageBps   float64
	FixedPerTrade float64

	// Panel range
	Start time.Time
	End   time.Time

	// Results
	Trades        int
	StartEquity   float64
	EndEquity     float64
	Years         float64
	CAGRPct       float64
	VolatilityPct float64
	MaxDDPct      float64
	TradingDays   int

	Notes []string
}

// NetPL is end minus start equity.
func (r BacktestRun) NetPL() float64 { return r.EndEquity - r.StartEquity }
