// Package rawsql implements the repository interfaces with hand-written
// parameterized SQL over sqlx and explicit transactions. It is interchangeable
// with the GORM adapter in the repository package; deployments pick one via
// configuration and business flows never notice the difference.
package rawsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hologize/kagiban/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type contextKey string

// TxContextKey carries the open *sqlx.Tx through the context so nested store
// calls join the surrounding transaction.
const TxContextKey contextKey = "rawsql_tx"

// getQuerier returns the transaction from the context when one is open,
// otherwise the plain connection.
func getQuerier(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(TxContextKey).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db
}

// wrapSaveError maps Postgres unique-constraint violations onto
// repository.ErrDuplicateKey so callers can retry key generation.
func wrapSaveError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %v", repository.ErrDuplicateKey, err)
	}
	return err
}

// TxManagerImpl implements repository.TxManager with explicit sqlx
// transactions.
type TxManagerImpl struct {
	db *sqlx.DB
}

// NewTxManager creates a transaction manager for the raw SQL store backend
func NewTxManager(db *sqlx.DB) repository.TxManager {
	return &TxManagerImpl{db: db}
}

func (m *TxManagerImpl) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", r)
		}
	}()

	ctx = context.WithValue(ctx, TxContextKey, tx)

	if err := fn(ctx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
