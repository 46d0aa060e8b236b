// Package sqlstore implements the persistence ports on database/sql.
//
// Two drivers are supported with one schema: the pure-Go SQLite driver
// (modernc.org/sqlite, no CGO) for single-node deployments and tests, and
// PostgreSQL through lib/pq. Queries are written with "?" placeholders and
// rebound to "$n" for PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/jcmexdev/order-management/internal/order-service/core/ports"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var _ ports.Store = (*Store)(nil)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type conn struct {
	q      querier
	driver string
}

func (c conn) rebind(query string) string {
	if c.driver != DriverPostgres {
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

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

// repos binds every repository to one querier.
type repos struct {
	conn
}

func (r repos) Customers() ports.CustomerRepository       { return customerRepository{r.conn} }
func (r repos) Identities() ports.IdentityRepository      { return identityRepository{r.conn} }
func (r repos) Inventory() ports.InventoryRepository      { return inventoryRepository{r.conn} }
func (r repos) Orders() ports.OrderRepository             { return orderRepository{r.conn} }
func (r repos) Transactions() ports.TransactionRepository { return transactionRepository{r.conn} }

// Store is the database/sql implementation of ports.Store.
type Store struct {
	repos
	db *sql.DB
}

// Open connects with the given driver and applies the schema.
//
//	store, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, "./data/orders.db")
//	store, err := sqlstore.Open(ctx, sqlstore.DriverPostgres, "postgres://...")
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverSQLite:
		db, err = openSQLite(dsn)
	case DriverPostgres:
		db, err = openPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := applySchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "database connected and migrated", "driver", driver)
	return &Store{repos: repos{conn{q: db, driver: driver}}, db: db}, nil
}

// openSQLite opens (or creates) the database at path. ":memory:" gives a
// private in-memory database, which only works because the pool is capped
// at one connection.
func openSQLite(path string) (*sql.DB, error) {
	// busy_timeout waits for locks instead of failing immediately.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open sqlite %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: failed to ping database: %w", err)
	}
	return db, nil
}

// Close releases the database connection. Call it with defer in main().
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn inside one database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, repos{conn{q: tx, driver: s.driver}}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: failed to commit transaction: %w", err)
	}
	return nil
}
