package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLiteJournal, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func testRun(id string) BacktestRun {
	return BacktestRun{
		RunID:         id,
		Created:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Dataset:       "panel.csv",
		Universe:      []string{"GLD", "SPY"},
		Policy:        "periodic(monthly)",
		InitialCash:   1000,
		FeeBps:        5,
		SlippageBps:   2,
		FixedPerTrade: 0,
		Start:         time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		End:           time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC),
		Trades:        2,
		StartEquity:   1000,
		EndEquity:     1010,
		Years:         0.3258,
		CAGRPct:       3.1,
		VolatilityPct: 12.5,
		MaxDDPct:      -4.2,
		TradingDays:   82,
		Notes:         []string{"baseline", "costs on"},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('runs','equity','positions','trades')`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	for _, table := range []string{"runs", "equity", "positions", "trades"} {
		assert.True(t, found[table], table)
	}
}

func TestSQLiteRecordBeforeRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	assert.ErrorIs(t, j.RecordTrade(TradeRecord{}), ErrNoRun)
	assert.ErrorIs(t, j.RecordEquity(EquitySnapshot{}), ErrNoRun)
	assert.Error(t, j.RecordRun(context.Background(), BacktestRun{}))
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, path := newTestSQLite(t)

	run := testRun("01HRUN")
	require.NoError(t, j.RecordRun(ctx, run))

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	trades := []TradeRecord{
		{Date: d1, Asset: "SPY", Side: Sell, Qty: 1, Price: 99.98, Notional: 99.98, FeeVar: 0.04999, FeeTotal: 0.04999},
		{Date: d1, Asset: "GLD", Side: Buy, Qty: 0.5, Price: 200.04, Notional: 100.02, FeeVar: 0.05001, FeeTotal: 0.05001},
	}
	for _, tr := range trades {
		require.NoError(t, j.RecordTrade(tr))
	}

	snaps := []EquitySnapshot{
		{Date: d1, Equity: 1000, Cash: 10, Qty: []float64{0.5, 9}, Value: []float64{100, 890}},
		{Date: d2, Equity: 1001, Cash: 10, Qty: []float64{0.5, 9}, Value: []float64{101, 890}},
	}
	for _, s := range snaps {
		require.NoError(t, j.RecordEquity(s))
	}
	assert.Error(t, j.RecordEquity(EquitySnapshot{Date: d2, Qty: []float64{1}}))
	require.NoError(t, j.Close())

	j2, err := NewSQLite(path)
	require.NoError(t, err)
	defer j2.Close()

	got, err := j2.GetRun(ctx, run.RunID)
	require.NoError(t, err)
	assert.True(t, run.Created.Equal(got.Created))
	got.Created = run.Created
	assert.Equal(t, run, got)

	gotTrades, err := j2.ListTradesByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, trades, gotTrades)

	gotSnaps, err := j2.ListEquityByRunID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, snaps, gotSnaps)
}

func TestSQLiteListRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)
	defer j.Close()

	older := testRun("B")
	older.Created = older.Created.Add(-time.Hour)
	newer := testRun("A")

	require.NoError(t, j.RecordRun(ctx, newer))
	require.NoError(t, j.RecordRun(ctx, older))
	require.NoError(t, j.commit())

	runs, err := j.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "B", runs[0].RunID)
	assert.Equal(t, "A", runs[1].RunID)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = j.ListEquityByRunID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteDuplicateRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)
	defer j.Close()

	require.NoError(t, j.RecordRun(ctx, testRun("X")))
	assert.Error(t, j.RecordRun(ctx, testRun("X")))
}

func TestSQLiteAbortDiscardsRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, path := newTestSQLite(t)

	require.NoError(t, j.RecordRun(ctx, testRun("gone")))
	require.NoError(t, j.RecordTrade(TradeRecord{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Asset: "GLD", Side: Buy, Qty: 1, Price: 1, Notional: 1}))
	require.NoError(t, j.Abort())

	j2, err := NewSQLite(path)
	require.NoError(t, err)
	defer j2.Close()

	_, err = j2.GetRun(ctx, "gone")
	assert.ErrorIs(t, err, ErrRunNotFound)
}
