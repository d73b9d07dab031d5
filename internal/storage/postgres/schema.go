package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var ddl string

type SchemaManager struct {
	db *sqlx.DB
}

func NewSchemaManager(db *sqlx.DB) *SchemaManager {
	return &SchemaManager{db: db}
}

// EnsureSchema creates news_items and its index if they do not exist yet.
// Safe to call on every run.
func (m *SchemaManager) EnsureSchema(ctx context.Context) error {
	if _, err := GetExecutor(ctx, m.db).ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create news_items: %w", err)
	}
	return nil
}
