package backtest

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/marketlab/journal"
)

const (
	daysPerYear    = 365.25
	tradingDays    = 252
	rollingVolDays = 63 // about three months of sessions
)

// Summary is derived once from a completed equity curve.
// CAGR, Volatility and MaxDrawdown are fractions (0.05 == 5%).
type Summary struct {
	StartEquity float64
	EndEquity   float64
	Years       float64
	CAGR        float64
	Volatility  float64
	MaxDrawdown float64
	TradingDays int
}

// Record is the summary as written to summary files, in percent.
type Record struct {
	StartEquity    float64 `json:"start_equity"`
	EndEquity      float64 `json:"end_equity"`
	Years          float64 `json:"years"`
	CAGRPct        float64 `json:"CAGR_pct"`
	VolatilityPct  float64 `json:"Volatility_pct"`
	MaxDrawdownPct float64 `json:"MaxDrawdown_pct"`
	TradingDays    int     `json:"trading_days"`
}

func (s Summary) Record() Record {
	return Record{
		StartEquity:    s.StartEquity,
		EndEquity:      s.EndEquity,
		Years:          s.Years,
		CAGRPct:        s.CAGR * 100,
		VolatilityPct:  s.Volatility * 100,
		MaxDrawdownPct: s.MaxDrawdown * 100,
		TradingDays:    s.TradingDays,
	}
}

// WriteSummaryJSON writes the percent form of s as indented JSON.
func WriteSummaryJSON(path string, s Summary) error {
	data, err := json.MarshalIndent(s.Record(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Summarize derives the run statistics from its equity snapshots.
func Summarize(snaps []journal.EquitySnapshot) Summary {
	if len(snaps) == 0 {
		return Summary{}
	}

	eq := EquitySeries(snaps)
	first, last := snaps[0], snaps[len(snaps)-1]
	years := last.Date.Sub(first.Date).Hours() / 24 / daysPerYear

	return Summary{
		StartEquity: eq[0],
		EndEquity:   eq[len(eq)-1],
		Years:       years,
		CAGR:        CAGR(eq[0], eq[len(eq)-1], years),
		Volatility:  AnnualizedVolatility(DailyReturns(eq)),
		MaxDrawdown: MaxDrawdown(eq),
		TradingDays: len(snaps),
	}
}

func EquitySeries(snaps []journal.EquitySnapshot) []float64 {
	out := make([]float64, len(snaps))
	for i, s := range snaps {
		out[i] = s.Equity
	}
	return out
}

// CAGR is 0 for zero-length (or negative) periods and for a non-positive start.
func CAGR(start, end, years float64) float64 {
	if years <= 0 || start <= 0 {
		return 0
	}
	return math.Pow(end/start, 1.0/years) - 1.0
}

// DailyReturns is the percent change between consecutive values.
// Steps from a zero value are skipped.
func DailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1.0)
	}
	return out
}

// stdev is the sample standard deviation (n-1); 0 for fewer than two values.
func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	// Constant input can round the variance a hair below zero.
	v := stat.Variance(xs, nil)
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

func AnnualizedVolatility(returns []float64) float64 {
	return stdev(returns) * math.Sqrt(tradingDays)
}

// DrawdownSeries is value / running max - 1 at every point.
func DrawdownSeries(values []float64) []float64 {
	out := make([]float64, len(values))
	peak := math.Inf(-1)
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = v/peak - 1.0
		}
	}
	return out
}

// MaxDrawdown is the most negative drawdown, 0 for a never-declining series.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return math.Min(0, floats.Min(DrawdownSeries(values)))
}

// RollingVolatility annualizes the sample stdev of each trailing window.
// The first window-1 entries are NaN.
func RollingVolatility(returns []float64, window int) []float64 {
	if window <= 0 {
		window = rollingVolDays
	}
	out := make([]float64, len(returns))
	for i := range returns {
		if i+1 < window {
			out[i] = math.NaN()
			continue
		}
		out[i] = AnnualizedVolatility(returns[i+1-window : i+1])
	}
	return out
}
