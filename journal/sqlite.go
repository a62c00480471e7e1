package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoRun is returned when trades or equity are recorded before RecordRun.
var ErrNoRun = errors.New("journal: no run recorded")

// SQLiteJournal stores every run, its equity curve, positions and trades.
// Records between RecordRun and Close are written in one transaction.
type SQLiteJournal struct {
	db  *sql.DB
	tx  *sql.Tx
	run *BacktestRun
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

// RecordRun inserts the run row and makes it the target of subsequent
// RecordTrade/RecordEquity calls.
func (j *SQLiteJournal) RecordRun(ctx context.Context, r BacktestRun) error {
	if r.RunID == "" {
		return fmt.Errorf("journal: run id is required")
	}
	if err := j.commit(); err != nil {
		return err
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, dataset, universe, policy, initial_cash, fee_bps, slippage_bps, fixed_per_trade,
		 start_date, end_date, trades, start_equity, end_equity, years, cagr_pct, volatility_pct, max_dd_pct, trading_days, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Dataset, strings.Join(r.Universe, ","), r.Policy,
		r.InitialCash, r.FeeBps, r.SlippageBps, r.FixedPerTrade,
		r.Start.Format(dateLayout), r.End.Format(dateLayout), r.Trades,
		r.StartEquity, r.EndEquity, r.Years, r.CAGRPct, r.VolatilityPct, r.MaxDDPct, r.TradingDays,
		strings.Join(r.Notes, "\n"),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert run %s: %w", r.RunID, err)
	}

	j.tx = tx
	j.run = &r
	return nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	if j.tx == nil {
		return ErrNoRun
	}
	_, err := j.tx.Exec(`
		INSERT INTO trades
		(run_id, asof_date, asset, side, qty, price, notional, fee_var, fee_fixed, fee_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.run.RunID, t.Date.Format(dateLayout), t.Asset, string(t.Side),
		t.Qty, t.Price, t.Notional, t.FeeVar, t.FeeFixed, t.FeeTotal,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	if j.tx == nil {
		return ErrNoRun
	}
	if len(e.Qty) != len(j.run.Universe) || len(e.Value) != len(j.run.Universe) {
		return fmt.Errorf("equity snapshot %s: got %d positions, want %d",
			e.Date.Format(dateLayout), len(e.Qty), len(j.run.Universe))
	}

	date := e.Date.Format(dateLayout)
	if _, err := j.tx.Exec(`
		INSERT INTO equity (run_id, asof_date, equity, cash) VALUES (?, ?, ?, ?)`,
		j.run.RunID, date, e.Equity, e.Cash,
	); err != nil {
		return err
	}

	for i, asset := range j.run.Universe {
		if _, err := j.tx.Exec(`
			INSERT INTO positions (run_id, asof_date, asset, qty, value) VALUES (?, ?, ?, ?, ?)`,
			j.run.RunID, date, asset, e.Qty[i], e.Value[i],
		); err != nil {
			return err
		}
	}
	return nil
}

func (j *SQLiteJournal) commit() error {
	if j.tx == nil {
		return nil
	}
	err := j.tx.Commit()
	j.tx = nil
	return err
}

// Close commits the pending run and closes the database.
func (j *SQLiteJournal) Close() error {
	if err := j.commit(); err != nil {
		j.db.Close()
		return err
	}
	return j.db.Close()
}

// Abort rolls back the pending run and closes the database.
func (j *SQLiteJournal) Abort() error {
	if j.tx != nil {
		j.tx.Rollback()
		j.tx = nil
	}
	return j.db.Close()
}
