// Package database opens the relational store shared by the catalog, order
// and user services and applies its schema.
//
// SQLite (pure-Go modernc driver) is the default. A postgres DSN switches
// to lib/pq; queries are written with '?' placeholders and rebound per
// dialect.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	// Register the postgres driver.
	_ "github.com/lib/pq"
	// Register the pure-Go SQLite driver under the name "sqlite".
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is a *sql.DB that knows which placeholder style its driver expects.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// New wraps an already opened handle. Used by tests with sqlmock.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, Dialect: dialect}
}

// Open opens (or creates) the database and applies the schema.
//
//	db, err := database.Open(ctx, "sqlite", "./data/storefront.db")
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch Dialect(driver) {
	case DialectSQLite:
		return openSQLite(ctx, dsn)
	case DialectPostgres:
		return openPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

func openSQLite(ctx context.Context, path string) (*DB, error) {
	// WAL lets readers run while the single writer holds the lock;
	// busy_timeout waits for that lock instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open sqlite %q: %w", path, err)
	}

	// One writer connection. This also keeps a ":memory:" database alive
	// for the lifetime of the handle.
	db.SetMaxOpenConns(1)

	return initialise(ctx, New(db, DialectSQLite))
}

func openPostgres(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping postgres: %w", err)
	}
	return initialise(ctx, New(db, DialectPostgres))
}

func initialise(ctx context.Context, db *DB) (*DB, error) {
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the DDL. Idempotent due to IF NOT EXISTS.
func (db *DB) Migrate(ctx context.Context) error {
	ddl := sqliteSchema
	if db.Dialect == DialectPostgres {
		ddl = postgresSchema
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("database: apply schema: %w", err)
	}
	return nil
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
func (db *DB) Rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	committed = true
	return nil
}
