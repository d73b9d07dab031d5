package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"news_sync/internal/domain"
)

type ctxKey string

const txKey ctxKey = "tx"

const savepointName = "news_item"

var errNoTransaction = errors.New("savepoint requires an open transaction")

type TransactionManager struct {
	db *sqlx.DB
}

func NewTransactionManager(db *sqlx.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// WithSavepoint runs fn inside a savepoint of the transaction carried by ctx.
// An error from fn rolls back only the work done since the savepoint and is
// returned unchanged. Errors of the savepoint statements themselves wrap
// domain.ErrTransactionAborted because the enclosing transaction is unusable.
func (tm *TransactionManager) WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx := GetTxFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("%w: %w", domain.ErrTransactionAborted, errNoTransaction)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("%w: create savepoint: %w", domain.ErrTransactionAborted, err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+savepointName); rbErr != nil {
			return fmt.Errorf("%w: rollback to savepoint: %w", domain.ErrTransactionAborted, rbErr)
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+savepointName); err != nil {
		return fmt.Errorf("%w: release savepoint: %w", domain.ErrTransactionAborted, err)
	}
	return nil
}

func GetTxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey).(*sqlx.Tx)
	return tx
}

func GetExecutor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := GetTxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}
