//go:build integration

package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"news_sync/internal/config"
	"news_sync/internal/domain"
	"news_sync/internal/source/rss"
	"news_sync/internal/storage/postgres"
)

const pipelineFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>News</title>
    <item>
      <guid>a1</guid>
      <title>T1</title>
      <link>https://example.com/l1</link>
      <pubDate>Mon, 02 Jan 2006 15:04:05 +0000</pubDate>
    </item>
    <item>
      <title>T2</title>
      <link>https://example.com/l2</link>
    </item>
  </channel>
</rss>`

type PipelineIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	db        *sqlx.DB
	feed      *httptest.Server
	status    atomic.Int32
	logger    *slog.Logger
}

func (s *PipelineIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("test_db"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := sqlx.Connect("postgres", connStr)
	s.Require().NoError(err)
	db.SetMaxOpenConns(1)
	s.db = db

	s.feed = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(s.status.Load()))
		_, _ = io.WriteString(w, pipelineFeed)
	}))
}

func (s *PipelineIntegrationSuite) TearDownSuite() {
	if s.feed != nil {
		s.feed.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PipelineIntegrationSuite) SetupTest() {
	s.status.Store(http.StatusOK)
	_, _ = s.db.ExecContext(s.ctx, "DROP TABLE IF EXISTS news_items")
}

func TestPipelineIntegrationSuite(t *testing.T) {
	suite.Run(t, new(PipelineIntegrationSuite))
}

func (s *PipelineIntegrationSuite) newService(mode domain.SyncMode) *SyncService {
	source := rss.New(rss.Config{URL: s.feed.URL, Timeout: 5 * time.Second}, s.logger)
	return NewSyncService(
		source,
		postgres.NewNewsItemStore(s.db),
		postgres.NewSchemaManager(s.db),
		postgres.NewTransactionManager(s.db),
		nil,
		s.logger,
		config.SyncConfig{Mode: mode},
	)
}

func (s *PipelineIntegrationSuite) rows() []domain.NewsItem {
	var items []domain.NewsItem
	err := s.db.SelectContext(s.ctx, &items,
		"SELECT id, guid, title, link, COALESCE(description, '') AS description, published_date, fetched_at FROM news_items ORDER BY id")
	s.Require().NoError(err)
	return items
}

func (s *PipelineIntegrationSuite) TestMerge_ExampleScenario() {
	runStart := time.Now()

	stats, err := s.newService(domain.SyncModeMerge).Sync(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.Inserted)

	rows := s.rows()
	s.Require().Len(rows, 2)
	s.Equal("a1", rows[0].GUID)
	s.True(rows[0].PublishedDate.Equal(time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)))
	s.Equal("https://example.com/l2", rows[1].GUID)
	s.WithinDuration(runStart, rows[1].PublishedDate, 5*time.Second)
}

func (s *PipelineIntegrationSuite) TestMerge_SecondRunOnlyUpdates() {
	svc := s.newService(domain.SyncModeMerge)

	_, err := svc.Sync(s.ctx)
	s.Require().NoError(err)
	before := s.rows()

	stats, err := svc.Sync(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, stats.Inserted)
	s.Equal(2, stats.Updated)
	s.Equal(2, stats.Rows)

	after := s.rows()
	s.Require().Len(after, 2)
	for i := range after {
		s.Equal(before[i].ID, after[i].ID)
		s.True(after[i].FetchedAt.After(before[i].FetchedAt))
	}
}

func (s *PipelineIntegrationSuite) TestReplace_RestartsIDs() {
	svc := s.newService(domain.SyncModeReplace)

	_, err := svc.Sync(s.ctx)
	s.Require().NoError(err)

	stats, err := svc.Sync(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.Inserted)
	s.Equal(stats.Inserted, stats.Rows)

	rows := s.rows()
	s.Require().Len(rows, 2)
	s.Equal(int64(1), rows[0].ID)
	s.Equal(int64(2), rows[1].ID)
}

func (s *PipelineIntegrationSuite) TestFetchFailureWritesNothing() {
	s.status.Store(http.StatusBadGateway)

	stats, err := s.newService(domain.SyncModeMerge).Sync(s.ctx)
	s.Error(err)
	s.Nil(stats)
	s.Empty(s.rows())
}
