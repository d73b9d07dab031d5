package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"news_sync/internal/domain"
)

type NewsItemStore struct {
	db *sqlx.DB
}

func NewNewsItemStore(db *sqlx.DB) *NewsItemStore {
	return &NewsItemStore{db: db}
}

// Upsert inserts the item or, when its guid already exists, refreshes the
// mutable columns and fetched_at in place. It reports whether a new row was
// created and stores the row id and fetched_at on item.
func (s *NewsItemStore) Upsert(ctx context.Context, item *domain.NewsItem) (bool, error) {
	query := `
		INSERT INTO news_items (guid, title, link, description, published_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (guid) DO UPDATE SET
			title = EXCLUDED.title,
			link = EXCLUDED.link,
			description = EXCLUDED.description,
			published_date = EXCLUDED.published_date,
			fetched_at = CURRENT_TIMESTAMP
		RETURNING id, fetched_at, (xmax = 0) AS inserted`

	var inserted bool
	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		item.GUID,
		item.Title,
		item.Link,
		item.Description,
		item.PublishedDate,
	).Scan(&item.ID, &item.FetchedAt, &inserted)
	if err != nil {
		return false, err
	}

	return inserted, nil
}

// Insert adds the item as a new row without conflict handling.
func (s *NewsItemStore) Insert(ctx context.Context, item *domain.NewsItem) (int64, error) {
	query := `
		INSERT INTO news_items (guid, title, link, description, published_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, fetched_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		item.GUID,
		item.Title,
		item.Link,
		item.Description,
		item.PublishedDate,
	).Scan(&item.ID, &item.FetchedAt)
	if err != nil {
		return 0, err
	}

	return item.ID, nil
}

// Truncate removes every row and restarts the id sequence.
func (s *NewsItemStore) Truncate(ctx context.Context) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, "TRUNCATE TABLE news_items RESTART IDENTITY")
	return err
}

func (s *NewsItemStore) Count(ctx context.Context) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &count, "SELECT COUNT(*) FROM news_items")
	return count, err
}

// Latest returns the newest items by publication date.
func (s *NewsItemStore) Latest(ctx context.Context, limit int) ([]domain.NewsItem, error) {
	query := `
		SELECT id, guid, title, link, COALESCE(description, '') AS description,
			published_date, fetched_at
		FROM news_items
		ORDER BY published_date DESC, id DESC
		LIMIT $1`

	var items []domain.NewsItem
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &items, query, limit)
	return items, err
}
