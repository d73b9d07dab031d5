package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"news_sync/internal/config"
	"news_sync/internal/logging"
	"news_sync/internal/publisher"
	"news_sync/internal/service"
	"news_sync/internal/source/rss"
	"news_sync/internal/storage/postgres"
)

func main() {
	os.Exit(run(os.Stdout))
}

// run performs one sync and returns the process exit status.
func run(out io.Writer) int {
	logger := logging.New(out, "info", "text")

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	logger = logging.New(out, cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting news syncer", "mode", cfg.Sync.Mode, "feed_url", cfg.Feed.URL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "error", err)
			return
		}
		logger.Info("database connection closed")
	}()
	db.SetMaxOpenConns(1)
	logger.Info("connected to database", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return 1
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	feedSource := rss.New(rss.Config{
		URL:       cfg.Feed.URL,
		Timeout:   cfg.Feed.Timeout,
		UserAgent: cfg.Feed.UserAgent,
	}, logger)

	syncService := service.NewSyncService(
		feedSource,
		postgres.NewNewsItemStore(db),
		postgres.NewSchemaManager(db),
		postgres.NewTransactionManager(db),
		pub,
		logger,
		cfg.Sync,
	)

	if _, err := syncService.Sync(ctx); err != nil {
		logger.Error("sync failed", "error", err)
		return 1
	}

	logger.Info("sync finished")
	return 0
}
