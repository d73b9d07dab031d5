package domain

import (
	"errors"
	"fmt"
	"time"
)

// SyncMode selects how fetched entries are written.
type SyncMode string

const (
	// SyncModeMerge upserts entries by guid and keeps existing rows.
	SyncModeMerge SyncMode = "merge"
	// SyncModeReplace truncates the table and reloads the current feed snapshot.
	SyncModeReplace SyncMode = "replace"
)

func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case SyncModeMerge, SyncModeReplace:
		return SyncMode(s), nil
	default:
		return "", fmt.Errorf("unknown sync mode %q (want %q or %q)", s, SyncModeMerge, SyncModeReplace)
	}
}

// ErrTransactionAborted marks a failure of the enclosing transaction itself,
// as opposed to a failure of a single statement inside it.
var ErrTransactionAborted = errors.New("transaction aborted")

type WriteOutcome string

const (
	OutcomeInserted WriteOutcome = "inserted"
	OutcomeUpdated  WriteOutcome = "updated"
	OutcomeFailed   WriteOutcome = "failed"
)

// WriteResult reports what happened to a single entry.
type WriteResult struct {
	Item    *NewsItem
	Outcome WriteOutcome
	Err     error
}

// SyncStats holds statistics about a sync run.
type SyncStats struct {
	Mode          SyncMode
	Fetched       int
	Inserted      int
	Updated       int
	Failed        int
	Published     int
	PublishErrors int
	Rows          int
	Duration      time.Duration
}
