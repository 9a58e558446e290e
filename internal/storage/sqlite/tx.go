package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// withTx is the "synchronous" transaction flavor (§4.1): it wraps a
// strictly synchronous function in a single immediate transaction,
// committing on nil and rolling back (and re-panicking) otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classifyErr(err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return classifyErr(err)
	}
	return nil
}

// CooperativeTx is the "cooperative" transaction flavor (§4.1): an explicit
// BEGIN IMMEDIATE/COMMIT/ROLLBACK held across a caller's own sequence of
// steps, for operations (append, fork) that perform more than one
// database-facing step while holding the writer lock. Callers must not
// perform I/O unrelated to the database while a CooperativeTx is open.
type CooperativeTx struct {
	tx *sql.Tx
}

// BeginCooperative opens a cooperative transaction.
func BeginCooperative(ctx context.Context, db *sql.DB) (*CooperativeTx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classifyErr(err)
	}
	return &CooperativeTx{tx: tx}, nil
}

// Tx exposes the underlying *sql.Tx for the engine's own queries.
func (c *CooperativeTx) Tx() *sql.Tx { return c.tx }

// Commit commits the cooperative transaction.
func (c *CooperativeTx) Commit() error {
	if err := c.tx.Commit(); err != nil {
		return classifyErr(err)
	}
	return nil
}

// Rollback rolls back the cooperative transaction. Safe to call after a
// successful Commit (no-op in that case, per database/sql semantics).
func (c *CooperativeTx) Rollback() error {
	return c.tx.Rollback()
}
