package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"news_sync/internal/domain"
)

type NewsItemStore interface {
	Upsert(ctx context.Context, item *domain.NewsItem) (bool, error)
	Insert(ctx context.Context, item *domain.NewsItem) (int64, error)
	Truncate(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}

type Source interface {
	URL() string
	FetchItems(ctx context.Context) ([]domain.NewsItem, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, item *domain.NewsItem, isNew bool) error
	Close() error
}
