// Package id generates backtest run identifiers.
//
// Run IDs are ULIDs: 26 characters, lexicographically sortable by creation
// time, so ORDER BY run_id in the journal database is also creation order.
package id

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewRun returns a run ID stamped with t. IDs made within the same
// millisecond still sort in generation order.
func NewRun(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t.UTC()), ulid.DefaultEntropy()).String()
}

// Created recovers the millisecond timestamp a run ID was stamped with.
func Created(runID string) (time.Time, error) {
	u, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, fmt.Errorf("run id %q: %w", runID, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}
