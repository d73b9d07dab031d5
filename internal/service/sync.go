package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"news_sync/internal/config"
	"news_sync/internal/domain"
)

type SyncService struct {
	source    Source
	items     NewsItemStore
	schema    SchemaManager
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.SyncConfig
}

func NewSyncService(
	source Source,
	items NewsItemStore,
	schema SchemaManager,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:    source,
		items:     items,
		schema:    schema,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("mode", string(cfg.Mode)),
		config:    cfg,
	}
}

// Sync runs the pipeline once: ensure schema, clear the table in replace
// mode, fetch the feed, write every entry and log a summary.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	s.logger.Info("starting sync", "feed_url", s.source.URL())

	w, err := newWriter(s.config.Mode, s.items)
	if err != nil {
		return nil, err
	}

	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	if s.config.Mode == domain.SyncModeReplace {
		if err := s.clearTable(ctx); err != nil {
			return nil, fmt.Errorf("clear table: %w", err)
		}
	}

	items, err := s.source.FetchItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}

	stats := &domain.SyncStats{
		Mode:    s.config.Mode,
		Fetched: len(items),
	}

	written, err := s.writeItems(ctx, w, items, stats)
	if err != nil {
		return nil, fmt.Errorf("write items: %w", err)
	}

	s.publish(ctx, written, stats)

	rows, err := s.items.Count(ctx)
	if err != nil {
		s.logger.Warn("failed to count rows", "error", err)
	}
	stats.Rows = rows

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"fetched", stats.Fetched,
		"inserted", stats.Inserted,
		"updated", stats.Updated,
		"failed", stats.Failed,
		"published", stats.Published,
		"rows", stats.Rows,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *SyncService) ensureSchema(ctx context.Context) error {
	err := s.txManager.WithTransaction(ctx, s.schema.EnsureSchema)
	if err != nil {
		return err
	}
	s.logger.Info("schema ready")
	return nil
}

func (s *SyncService) clearTable(ctx context.Context) error {
	err := s.txManager.WithTransaction(ctx, s.items.Truncate)
	if err != nil {
		return err
	}
	s.logger.Info("cleared news items")
	return nil
}

// writeItems writes all entries in one transaction. Each entry gets its own
// savepoint so a failing entry is rolled back alone and the loop continues.
// Only a failure of the transaction itself aborts the batch.
func (s *SyncService) writeItems(ctx context.Context, w writer, items []domain.NewsItem, stats *domain.SyncStats) ([]domain.WriteResult, error) {
	var written []domain.WriteResult

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for i := range items {
			item := &items[i]

			var res domain.WriteResult
			err := s.txManager.WithSavepoint(txCtx, func(spCtx context.Context) error {
				res = w.write(spCtx, item)
				return res.Err
			})
			if errors.Is(err, domain.ErrTransactionAborted) {
				return err
			}
			if ctxErr := txCtx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				stats.Failed++
				s.logger.Error("failed to save entry",
					"title", item.Title,
					"guid", item.GUID,
					"error", err,
				)
				continue
			}

			switch res.Outcome {
			case domain.OutcomeInserted:
				stats.Inserted++
			case domain.OutcomeUpdated:
				stats.Updated++
			}
			written = append(written, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return written, nil
}

func (s *SyncService) publish(ctx context.Context, written []domain.WriteResult, stats *domain.SyncStats) {
	if s.publisher == nil {
		return
	}

	for _, res := range written {
		if err := s.publisher.Publish(ctx, res.Item, res.Outcome == domain.OutcomeInserted); err != nil {
			stats.PublishErrors++
			s.logger.Warn("failed to publish item", "guid", res.Item.GUID, "error", err)
			continue
		}
		stats.Published++
	}
}
