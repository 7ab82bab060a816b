package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/megbaru-hub/teffexpo/internal/apperr"
	"github.com/megbaru-hub/teffexpo/internal/catalog"
	"github.com/megbaru-hub/teffexpo/internal/fulfillment"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements the catalog and fulfillment stores on Postgres
type Store struct {
	db *Database
	q  querier
	tx pgx.Tx
}

var (
	_ fulfillment.Store = (*Store)(nil)
	_ catalog.Store     = (*Store)(nil)
)

// NewStore wraps a connected database
func NewStore(database *Database) *Store {
	return &Store{db: database, q: database.Pool}
}

// Health pings the pool
func (s *Store) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

// WithinTx implements fulfillment.Store. Nested calls join the running transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx fulfillment.Store) error) error {
	return s.atomically(ctx, func(txs *Store) error {
		return fn(ctx, txs)
	})
}

// atomically runs fn inside a transaction, reusing the current one when present.
func (s *Store) atomically(ctx context.Context, fn func(txs *Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notFound maps pgx.ErrNoRows to a domain NotFound error.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", what)
	}
	return err
}
