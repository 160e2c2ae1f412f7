package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// NewID generates a fresh internal identifier for any entity this package
// stores. Internal ids are opaque and stable across re-imports (§3.1).
func NewID() string {
	return uuid.NewString()
}

// Querier is satisfied by both *sql.DB and *sql.Tx, letting every data-access
// function in this package run either standalone or scoped to a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Gateway is the Store Gateway: typed access to relational tables plus
// transaction scoping. It owns exactly one *sql.DB connection pool.
type Gateway struct {
	db *sql.DB
}

// Open creates a Gateway backed by the given SQLite DSN ("" or ":memory:"
// for an in-memory database) and applies the schema idempotently.
func Open(dsn string) (*Gateway, error) {
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Gateway{db: db}, nil
}

// Close closes the underlying database connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// DB exposes the raw connection pool for callers (e.g. stats queries) that
// need a Querier but have no natural transaction scope of their own.
func (g *Gateway) DB() *sql.DB {
	return g.db
}

// WithinTx runs fn inside a single transaction, committing on success and
// rolling back on error or panic. This is the unit-of-work boundary the
// extractor uses per dialogue and the annotator runtime uses per annotator
// run (§5: "mutating operations are wrapped in transactions whose scope is
// at most one dialogue ... or one annotator run").
func (g *Gateway) WithinTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// DeleteByMessageID removes every row in table owned by messageID. Used to
// tear down content parts, citations, attachments, and platform-extension
// rows when a message is rebuilt (§4.3.3).
func DeleteByMessageID(ctx context.Context, q Querier, table, messageID string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM `+table+` WHERE message_id = ?`, messageID)
	if err != nil {
		return fmt.Errorf("store: delete from %s: %w", table, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
