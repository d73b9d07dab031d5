package domain

import "time"

// NewsItem is one feed entry as persisted in news_items.
type NewsItem struct {
	ID            int64     `db:"id" json:"id"`
	GUID          string    `db:"guid" json:"guid"`
	Title         string    `db:"title" json:"title"`
	Link          string    `db:"link" json:"link"`
	Description   string    `db:"description" json:"description"`
	PublishedDate time.Time `db:"published_date" json:"published_date"`
	FetchedAt     time.Time `db:"fetched_at" json:"fetched_at"`
}
