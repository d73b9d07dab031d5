package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"news_sync/internal/config"
	"news_sync/internal/domain"
	"news_sync/internal/logging"
	"news_sync/internal/storage/postgres"
)

const dateLayout = "2006-01-02 15:04"

func main() {
	os.Exit(run(os.Stdout, os.Stderr))
}

// run prints the newest stored headlines to out and logs to logOut.
func run(out, logOut io.Writer) int {
	logger := logging.New(logOut, "info", "text")

	cfg, err := config.Load(config.Path())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	logger = logging.New(logOut, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return 1
	}
	defer db.Close()

	items, err := postgres.NewNewsItemStore(db).Latest(ctx, cfg.Display.NewsCount)
	if err != nil {
		logger.Error("failed to load headlines", "error", err)
		return 1
	}

	if err := render(out, items); err != nil {
		logger.Error("failed to write headlines", "error", err)
		return 1
	}
	return 0
}

func render(w io.Writer, items []domain.NewsItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no news to display")
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%s  %s  %s\n",
			item.PublishedDate.Local().Format(dateLayout), item.Title, item.Link); err != nil {
			return err
		}
		if item.Description == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "    %s\n", item.Description); err != nil {
			return err
		}
	}
	return nil
}
