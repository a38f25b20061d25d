package dbutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRowCount is returned by ExecOne when a statement touches some number of
// rows other than one.
var ErrRowCount = errors.New("wrong number of rows affected")

var errTxDone = errors.New("transaction already finished")

// Tx tracks whether a transaction is still open, so a deferred
// MaybeRollback is harmless after Commit.
type Tx struct {
	tx *sql.Tx
}

func NewTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("can't begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// WithTx runs fn in a transaction, committing if it returns nil and rolling
// back otherwise.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(*Tx) error) error {
	tx, err := NewTx(ctx, db, opts)
	if err != nil {
		return err
	}
	defer tx.MaybeRollback()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (tt *Tx) MaybeRollback() {
	if tt.tx != nil {
		tt.tx.Rollback()
		tt.tx = nil
	}
}

func (tt *Tx) Commit() error {
	if tt.tx == nil {
		return errTxDone
	}
	err := tt.tx.Commit()
	tt.tx = nil
	return err
}

func (tt *Tx) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return tt.tx.QueryRowContext(ctx, query, args...)
}

func (tt *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tt.tx.QueryContext(ctx, query, args...)
}

func (tt *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tt.tx.ExecContext(ctx, query, args...)
}

// ExecOne runs a statement that must touch exactly one row.
func (tt *Tx) ExecOne(ctx context.Context, query string, args ...any) error {
	result, err := tt.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("%w: want 1, got %d", ErrRowCount, n)
	}
	return nil
}
