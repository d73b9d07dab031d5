package service

import (
	"context"
	"fmt"

	"news_sync/internal/domain"
)

// writer persists a single entry and reports the outcome as a value.
type writer interface {
	write(ctx context.Context, item *domain.NewsItem) domain.WriteResult
}

func newWriter(mode domain.SyncMode, store NewsItemStore) (writer, error) {
	switch mode {
	case domain.SyncModeMerge:
		return mergeWriter{store: store}, nil
	case domain.SyncModeReplace:
		return replaceWriter{store: store}, nil
	default:
		return nil, fmt.Errorf("unsupported sync mode %q", mode)
	}
}

// mergeWriter upserts by guid.
type mergeWriter struct {
	store NewsItemStore
}

func (w mergeWriter) write(ctx context.Context, item *domain.NewsItem) domain.WriteResult {
	inserted, err := w.store.Upsert(ctx, item)
	if err != nil {
		return domain.WriteResult{Item: item, Outcome: domain.OutcomeFailed, Err: fmt.Errorf("upsert news item: %w", err)}
	}
	if inserted {
		return domain.WriteResult{Item: item, Outcome: domain.OutcomeInserted}
	}
	return domain.WriteResult{Item: item, Outcome: domain.OutcomeUpdated}
}

// replaceWriter inserts into a table that was truncated at the start of the run.
type replaceWriter struct {
	store NewsItemStore
}

func (w replaceWriter) write(ctx context.Context, item *domain.NewsItem) domain.WriteResult {
	if _, err := w.store.Insert(ctx, item); err != nil {
		return domain.WriteResult{Item: item, Outcome: domain.OutcomeFailed, Err: fmt.Errorf("insert news item: %w", err)}
	}
	return domain.WriteResult{Item: item, Outcome: domain.OutcomeInserted}
}
