package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/marketlab/config"
	"github.com/rustyeddy/marketlab/journal"
	"github.com/rustyeddy/marketlab/market"
)

// NewBacktestRun fills the run record for a completed result. Costs are
// recorded as configured, in basis points.
func NewBacktestRun(runID string, created time.Time, dataset string, costs config.CostsConfig, cfg Config, res *Result) journal.BacktestRun {
	rec := res.Summary.Record()
	r := journal.BacktestRun{
		RunID:         runID,
		Created:       created,
		Dataset:       dataset,
		Universe:      append([]string(nil), res.Assets...),
		Policy:        cfg.Policy.String(),
		InitialCash:   cfg.InitialCash,
		FeeBps:        costs.FeeBps,
		SlippageBps:   costs.SlippageBps,
		FixedPerTrade: costs.FixedPerTrade,
		Trades:        len(res.Trades),
		StartEquity:   rec.StartEquity,
		EndEquity:     rec.EndEquity,
		Years:         rec.Years,
		CAGRPct:       rec.CAGRPct,
		VolatilityPct: rec.VolatilityPct,
		MaxDDPct:      rec.MaxDrawdownPct,
		TradingDays:   rec.TradingDays,
	}
	if n := len(res.Equity); n > 0 {
		r.Start = res.Equity[0].Date
		r.End = res.Equity[n-1].Date
	}
	return r
}

func PrintRun(w io.Writer, r journal.BacktestRun) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Policy:        %s\n", r.Policy)
	fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	fmt.Fprintf(w, "Universe:      %v\n", r.Universe)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(market.DateLayout))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(market.DateLayout))
	fmt.Fprintf(w, "Years:         %.2f\n", r.Years)
	fmt.Fprintf(w, "Trading Days:  %d\n", r.TradingDays)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Costs")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Fee:           %.2f bps\n", r.FeeBps)
	fmt.Fprintf(w, "Slippage:      %.2f bps\n", r.SlippageBps)
	fmt.Fprintf(w, "Fixed:         %.2f per trade\n", r.FixedPerTrade)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Start Equity:  %.2f\n", r.StartEquity)
	fmt.Fprintf(w, "End Equity:    %.2f\n", r.EndEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPL())
	fmt.Fprintf(w, "CAGR:          %.2f%%\n", r.CAGRPct)
	fmt.Fprintf(w, "Volatility:    %.2f%%\n", r.VolatilityPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDDPct)

	if len(r.Notes) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Notes")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, n := range r.Notes {
			fmt.Fprintf(w, "- %s\n", n)
		}
	}

	fmt.Fprintln(w, "==================================================")
}
