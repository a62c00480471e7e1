package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `run_id, created, dataset, universe, policy, initial_cash, fee_bps, slippage_bps, fixed_per_trade,
	start_date, end_date, trades, start_equity, end_equity, years, cagr_pct, volatility_pct, max_dd_pct, trading_days, notes`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (BacktestRun, error) {
	var (
		r          BacktestRun
		universe   string
		start, end string
		notes      string
	)
	err := row.Scan(
		&r.RunID, &r.Created, &r.Dataset, &universe, &r.Policy,
		&r.InitialCash, &r.FeeBps, &r.SlippageBps, &r.FixedPerTrade,
		&start, &end, &r.Trades,
		&r.StartEquity, &r.EndEquity, &r.Years, &r.CAGRPct, &r.VolatilityPct, &r.MaxDDPct, &r.TradingDays,
		&notes,
	)
	if err != nil {
		return BacktestRun{}, err
	}
	if universe != "" {
		r.Universe = strings.Split(universe, ",")
	}
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	if r.Start, err = time.Parse(dateLayout, start); err != nil {
		return BacktestRun{}, fmt.Errorf("run %s start_date: %w", r.RunID, err)
	}
	if r.End, err = time.Parse(dateLayout, end); err != nil {
		return BacktestRun{}, fmt.Errorf("run %s end_date: %w", r.RunID, err)
	}
	return r, nil
}

// GetRun returns a single run by ID.
func (j *SQLiteJournal) GetRun(ctx context.Context, runID string) (BacktestRun, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BacktestRun{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
		}
		return BacktestRun{}, err
	}
	return r, nil
}

// ListRuns returns every run, oldest first.
func (j *SQLiteJournal) ListRuns(ctx context.Context) ([]BacktestRun, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created ASC, run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesByRunID returns a run's ledger in execution order.
func (j *SQLiteJournal) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT asof_date, asset, side, qty, price, notional, fee_var, fee_fixed, fee_total
		FROM trades
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var (
			rec  TradeRecord
			date string
			side string
		)
		if err := rows.Scan(
			&date,
			&rec.Asset,
			&side,
			&rec.Qty,
			&rec.Price,
			&rec.Notional,
			&rec.FeeVar,
			&rec.FeeFixed,
			&rec.FeeTotal,
		); err != nil {
			return nil, err
		}
		if rec.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, err
		}
		rec.Side = Side(side)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityByRunID rebuilds a run's equity curve, positions in universe order.
func (j *SQLiteJournal) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(run.Universe))
	for i, a := range run.Universe {
		index[a] = i
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT asof_date, equity, cash
		FROM equity
		WHERE run_id = ?
		ORDER BY asof_date ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	byDate := make(map[string]int)
	for rows.Next() {
		var (
			snap EquitySnapshot
			date string
		)
		if err := rows.Scan(&date, &snap.Equity, &snap.Cash); err != nil {
			return nil, err
		}
		if snap.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, err
		}
		snap.Qty = make([]float64, len(run.Universe))
		snap.Value = make([]float64, len(run.Universe))
		byDate[date] = len(out)
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	prows, err := j.db.QueryContext(ctx, `
		SELECT asof_date, asset, qty, value
		FROM positions
		WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer prows.Close()

	for prows.Next() {
		var (
			date, asset string
			qty, value  float64
		)
		if err := prows.Scan(&date, &asset, &qty, &value); err != nil {
			return nil, err
		}
		s, ok := byDate[date]
		a, ok2 := index[asset]
		if !ok || !ok2 {
			continue
		}
		out[s].Qty[a] = qty
		out[s].Value[a] = value
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
