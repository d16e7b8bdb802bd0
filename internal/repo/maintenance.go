package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/status-page/internal/domain"
)

// MaintenanceRepo defines the persistence operations for the maintenances store.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type MaintenanceRepo interface {
	// List returns every stored maintenance record.
	List(ctx context.Context) ([]domain.MaintenanceRecord, error)

	// GetByID returns every record stored under id. The slice is empty, not an
	// error, when nothing matches; deciding what zero or several matches mean
	// is up to the caller.
	GetByID(ctx context.Context, id string) ([]domain.MaintenanceRecord, error)

	// Upsert inserts the record or overwrites the one with the same ID.
	Upsert(ctx context.Context, rec domain.MaintenanceRecord) error

	// Delete removes the record by ID. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// pgMaintenanceRepo is the Postgres implementation of MaintenanceRepo.
type pgMaintenanceRepo struct {
	db db
}

// NewMaintenanceRepo constructs a MaintenanceRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewMaintenanceRepo(db db) MaintenanceRepo {
	return &pgMaintenanceRepo{db: db}
}

const maintenanceColumns = `maintenance_id, name, status, start_at, end_at, message, components, updated_at`

// List returns all maintenances, most recent window first.
func (r *pgMaintenanceRepo) List(ctx context.Context) ([]domain.MaintenanceRecord, error) {
	const q = `SELECT ` + maintenanceColumns + ` FROM maintenances ORDER BY start_at DESC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.MaintenanceRepo.List: %w", err)
	}
	recs, err := collect(rows, scanMaintenance)
	if err != nil {
		return nil, fmt.Errorf("repo.MaintenanceRepo.List: %w", err)
	}
	return recs, nil
}

// GetByID returns the records matching id.
func (r *pgMaintenanceRepo) GetByID(ctx context.Context, id string) ([]domain.MaintenanceRecord, error) {
	const q = `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE maintenance_id = @id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("repo.MaintenanceRepo.GetByID: %w", err)
	}
	recs, err := collect(rows, scanMaintenance)
	if err != nil {
		return nil, fmt.Errorf("repo.MaintenanceRepo.GetByID: %w", err)
	}
	return recs, nil
}

// Upsert writes the full record, replacing any previous version.
func (r *pgMaintenanceRepo) Upsert(ctx context.Context, rec domain.MaintenanceRecord) error {
	const q = `
		INSERT INTO maintenances (` + maintenanceColumns + `)
		VALUES (@id, @name, @status, @start_at, @end_at, @message, @components, @updated_at)
		ON CONFLICT (maintenance_id) DO UPDATE
		SET name       = EXCLUDED.name,
		    status     = EXCLUDED.status,
		    start_at   = EXCLUDED.start_at,
		    end_at     = EXCLUDED.end_at,
		    message    = EXCLUDED.message,
		    components = EXCLUDED.components,
		    updated_at = EXCLUDED.updated_at`

	components, err := encodeComponents(rec.Components)
	if err != nil {
		return fmt.Errorf("repo.MaintenanceRepo.Upsert: %w", err)
	}

	args := pgx.NamedArgs{
		"id":         deref(rec.MaintenanceID),
		"name":       rec.Name,
		"status":     rec.Status,
		"start_at":   rec.StartAt,
		"end_at":     rec.EndAt,
		"message":    deref(rec.Message),
		"components": components,
		"updated_at": rec.UpdatedAt,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.MaintenanceRepo.Upsert: %w", err)
	}
	return nil
}

// Delete removes a maintenance by ID.
func (r *pgMaintenanceRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM maintenances WHERE maintenance_id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.MaintenanceRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.MaintenanceRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// scanMaintenance maps a single row into a domain.MaintenanceRecord.
func scanMaintenance(s scanner) (domain.MaintenanceRecord, error) {
	var (
		rec     domain.MaintenanceRecord
		id      string
		message string
		raw     []byte
	)
	err := s.Scan(&id, &rec.Name, &rec.Status, &rec.StartAt, &rec.EndAt, &message, &raw, &rec.UpdatedAt)
	if err != nil {
		return domain.MaintenanceRecord{}, err
	}
	if rec.Components, err = decodeComponents(raw); err != nil {
		return domain.MaintenanceRecord{}, err
	}
	rec.MaintenanceID = &id
	rec.Message = &message
	return rec, nil
}
