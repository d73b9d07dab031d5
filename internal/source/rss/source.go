package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"news_sync/internal/domain"
)

// Config holds feed source configuration.
type Config struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
}

// Source fetches a single syndication feed (RSS, Atom or JSON Feed).
type Source struct {
	httpClient *http.Client
	parser     *gofeed.Parser
	url        string
	userAgent  string
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a new feed source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		parser:    gofeed.NewParser(),
		url:       cfg.URL,
		userAgent: cfg.UserAgent,
		now:       time.Now,
		logger:    logger.With("feed_url", cfg.URL),
	}
}

// URL returns the feed location.
func (s *Source) URL() string {
	return s.url
}

// FetchItems retrieves the feed once and returns its entries in feed order.
// An empty feed is not an error.
func (s *Source) FetchItems(ctx context.Context) ([]domain.NewsItem, error) {
	s.logger.Info("fetching feed")

	feed, err := s.doRequest(ctx)
	if err != nil {
		return nil, err
	}

	items := s.transform(feed.Items)
	s.logger.Info("fetched feed entries", "count", len(items))

	return items, nil
}

func (s *Source) doRequest(ctx context.Context) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return feed, nil
}

func (s *Source) transform(entries []*gofeed.Item) []domain.NewsItem {
	items := make([]domain.NewsItem, 0, len(entries))
	fetchedAt := s.now()

	for _, e := range entries {
		if e == nil {
			continue
		}

		guid := e.GUID
		if guid == "" {
			guid = e.Link
		}

		// A date that is present but unparseable leaves PublishedParsed nil.
		published := fetchedAt
		if e.PublishedParsed != nil {
			published = *e.PublishedParsed
		} else if e.Published != "" {
			s.logger.Debug("unparseable publication date, using fetch time",
				"guid", guid,
				"published", e.Published,
			)
		}

		items = append(items, domain.NewsItem{
			GUID:          guid,
			Title:         e.Title,
			Link:          e.Link,
			Description:   e.Description,
			PublishedDate: published,
		})
	}

	return items
}
