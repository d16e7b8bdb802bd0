// Package repo contains all database access logic for the status page service.
// Each store has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/status-page/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// collect drains rows through scan. It always returns a non-nil slice so an
// empty result and a single match are told apart only by length.
func collect[T any](rows pgx.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// encodeComponents renders a component list for a JSONB column.
// A nil list is stored as [] so reads never yield null.
func encodeComponents(cs []domain.ComponentRecord) ([]byte, error) {
	if cs == nil {
		cs = []domain.ComponentRecord{}
	}
	return json.Marshal(cs)
}

func decodeComponents(raw []byte) ([]domain.ComponentRecord, error) {
	cs := []domain.ComponentRecord{}
	if len(raw) == 0 {
		return cs, nil
	}
	if err := json.Unmarshal(raw, &cs); err != nil {
		return nil, fmt.Errorf("decode components: %w", err)
	}
	return cs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
