package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rustyeddy/marketlab/config"
	"github.com/rustyeddy/marketlab/journal"
	"github.com/rustyeddy/marketlab/market"
)

type Config struct {
	InitialCash float64
	Costs       CostModel
	Policy      Policy
	Logger      *slog.Logger // nil discards
}

// Validate rejects configurations that must fail before any trade.
func (c Config) Validate() error {
	if c.InitialCash <= 0 {
		return &config.Error{Field: "account.initial_cash", Reason: "must be positive"}
	}
	if err := c.Costs.Validate(); err != nil {
		return err
	}
	switch c.Policy.Kind {
	case Periodic, SingleEntry:
	default:
		return &config.Error{Field: "strategy.policy", Reason: fmt.Sprintf("unknown policy kind %d", c.Policy.Kind)}
	}
	return nil
}

// Result holds everything a run produced.
type Result struct {
	Assets  market.Universe
	Trades  []journal.TradeRecord
	Equity  []journal.EquitySnapshot
	Summary Summary
}

// Engine replays one policy over one panel.
type Engine struct {
	panel *market.Panel
	cfg   Config
	log   *slog.Logger
}

func NewEngine(panel *market.Panel, cfg Config) (*Engine, error) {
	if panel == nil || panel.Assets().Len() == 0 {
		return nil, &config.Error{Field: "universe", Reason: "must not be empty"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &Engine{panel: panel, cfg: cfg, log: log}, nil
}

// Run executes the backtest loop over every panel date in order:
//  1. ask the policy whether today rebalances
//  2. if so, trade toward the targets (sells, then buys)
//  3. value the portfolio at today's closes
//
// The run is deterministic: the same panel and Config always produce the same
// trades and snapshots.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	assets := e.panel.Assets()
	n := assets.Len()

	p := NewPortfolio(e.cfg.InitialCash, n)
	tracker := NewTracker(e.panel.Len())
	sched := e.cfg.Policy.newSchedule()

	var trades []journal.TradeRecord
	events := 0

	for i := 0; i < e.panel.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		date := e.panel.Date(i)
		closes := e.panel.Row(i)

		if sched.fires(date) {
			events++
			targets := e.cfg.Policy.Targets(p.Value(closes), e.cfg.InitialCash, n)
			executed := Rebalance(p, date, assets, closes, targets, e.cfg.Costs)
			trades = append(trades, executed...)

			e.log.Debug("rebalance",
				"date", date.Format(market.DateLayout),
				"trades", len(executed),
				"cash", p.Cash,
			)
		}

		tracker.Record(date, p, closes)
	}

	res := &Result{
		Assets:  assets,
		Trades:  trades,
		Equity:  tracker.Snapshots(),
		Summary: tracker.Summary(),
	}

	e.log.Info("backtest complete",
		"policy", e.cfg.Policy.String(),
		"days", e.panel.Len(),
		"rebalances", events,
		"trades", len(trades),
		"end_equity", res.Summary.EndEquity,
	)

	return res, nil
}

// Write sends the ledger and equity curve to j in execution and date order.
func (r *Result) Write(j journal.Journal) error {
	for _, t := range r.Trades {
		if err := j.RecordTrade(t); err != nil {
			return fmt.Errorf("record trade: %w", err)
		}
	}
	for _, s := range r.Equity {
		if err := j.RecordEquity(s); err != nil {
			return fmt.Errorf("record equity: %w", err)
		}
	}
	return nil
}
