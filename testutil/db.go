// Package testutil provides shared helpers for integration tests against the
// status page schema. Helpers skip automatically when TEST_DATABASE_URL is not
// set, so unit tests can run without a running database.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
)

// NewTx opens a transaction on a fresh pool and rolls it back when the test
// finishes. Repos built on it see the migrated schema and nothing written by
// other tests.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()
	pool := NewPool(t)

	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return tx
}

// Component is a row of the components table. Zero fields take the values
// SeedComponent fills in.
type Component struct {
	ID          string
	Name        string
	Description string
	Status      string
	Order       int
}

// SeedComponent inserts c into the components table through tx. The service
// never creates components (they are managed elsewhere), so tests that need
// one to exist insert it here. Name defaults to "API" and Status to
// "Operational".
func SeedComponent(t *testing.T, tx pgx.Tx, c Component) {
	t.Helper()
	if c.Name == "" {
		c.Name = "API"
	}
	if c.Status == "" {
		c.Status = "Operational"
	}

	const q = `
		INSERT INTO components (component_id, name, description, status, sort_order)
		VALUES (@id, @name, @description, @status, @sort_order)`
	_, err := tx.Exec(context.Background(), q, pgx.NamedArgs{
		"id":          c.ID,
		"name":        c.Name,
		"description": c.Description,
		"status":      c.Status,
		"sort_order":  c.Order,
	})
	if err != nil {
		t.Fatalf("testutil.SeedComponent %q: %v", c.ID, err)
	}
}

// ComponentStatus reads the stored status of one component.
func ComponentStatus(t *testing.T, tx pgx.Tx, id string) string {
	t.Helper()
	var status string
	err := tx.QueryRow(context.Background(),
		`SELECT status FROM components WHERE component_id = @id`, pgx.NamedArgs{"id": id}).Scan(&status)
	if err != nil {
		t.Fatalf("testutil.ComponentStatus %q: %v", id, err)
	}
	return status
}

// NewPool opens a *pgxpool.Pool connected to the database specified by the
// TEST_DATABASE_URL environment variable.
//
// The test is skipped automatically if TEST_DATABASE_URL is not set, so
// integration tests are opt-in and never break CI environments that lack a DB.
// The pool is closed automatically when the test (and all its subtests) finish.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := requireDSN(t)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB opens a *sql.DB connected to the database specified by the
// TEST_DATABASE_URL environment variable using the pgx database/sql driver.
//
// Use this when you need a *sql.DB rather than a *pgxpool.Pool, for example
// when driving goose migrations in integration tests.
// The connection is closed automatically when the test finishes.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := requireDSN(t)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// MustOpenSQLDB opens a *sql.DB for the given DSN and panics on any error.
// Use this in TestMain functions where no *testing.T is available.
// Callers are responsible for closing the returned *sql.DB.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: open: " + err.Error())
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		panic("testutil.MustOpenSQLDB: ping: " + err.Error())
	}
	return db
}

// requireDSN returns the TEST_DATABASE_URL environment variable value,
// skipping the test if it is not set.
func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	return dsn
}
