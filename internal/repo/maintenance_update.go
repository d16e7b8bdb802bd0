package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/status-page/internal/domain"
)

// MaintenanceUpdateRepo defines the persistence operations for the history
// store: one entry per save of a maintenance.
type MaintenanceUpdateRepo interface {
	// ListByMaintenanceID returns the full history of a maintenance, oldest first.
	ListByMaintenanceID(ctx context.Context, maintenanceID string) ([]domain.MaintenanceUpdate, error)

	// Insert appends a history entry. Inserting an entry whose ID already
	// exists is a no-op, which makes the write safe to repeat.
	Insert(ctx context.Context, u domain.MaintenanceUpdate) error

	// DeleteMany removes the listed entries of a maintenance. An empty ID list
	// does nothing and returns nil.
	DeleteMany(ctx context.Context, maintenanceID string, updateIDs []string) error
}

// pgMaintenanceUpdateRepo is the Postgres implementation of MaintenanceUpdateRepo.
type pgMaintenanceUpdateRepo struct {
	db db
}

// NewMaintenanceUpdateRepo constructs a MaintenanceUpdateRepo backed by the provided db connection.
func NewMaintenanceUpdateRepo(db db) MaintenanceUpdateRepo {
	return &pgMaintenanceUpdateRepo{db: db}
}

// ListByMaintenanceID returns all history entries for one maintenance.
func (r *pgMaintenanceUpdateRepo) ListByMaintenanceID(ctx context.Context, maintenanceID string) ([]domain.MaintenanceUpdate, error) {
	const q = `
		SELECT maintenance_update_id, maintenance_id, name, status, start_at, end_at,
		       message, components, updated_at
		FROM maintenance_updates
		WHERE maintenance_id = @maintenance_id
		ORDER BY created_at, maintenance_update_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"maintenance_id": maintenanceID})
	if err != nil {
		return nil, fmt.Errorf("repo.MaintenanceUpdateRepo.ListByMaintenanceID: %w", err)
	}
	updates, err := collect(rows, scanMaintenanceUpdate)
	if err != nil {
		return nil, fmt.Errorf("repo.MaintenanceUpdateRepo.ListByMaintenanceID: %w", err)
	}
	return updates, nil
}

// Insert adds a history entry, ignoring a duplicate of the same entry ID.
func (r *pgMaintenanceUpdateRepo) Insert(ctx context.Context, u domain.MaintenanceUpdate) error {
	const q = `
		INSERT INTO maintenance_updates (
			maintenance_update_id, maintenance_id, name, status, start_at, end_at,
			message, components, updated_at)
		VALUES (@id, @maintenance_id, @name, @status, @start_at, @end_at,
			@message, @components, @updated_at)
		ON CONFLICT (maintenance_update_id) DO NOTHING`

	components, err := encodeComponents(u.Components)
	if err != nil {
		return fmt.Errorf("repo.MaintenanceUpdateRepo.Insert: %w", err)
	}

	args := pgx.NamedArgs{
		"id":             u.MaintenanceUpdateID,
		"maintenance_id": deref(u.MaintenanceID),
		"name":           u.Name,
		"status":         u.Status,
		"start_at":       u.StartAt,
		"end_at":         u.EndAt,
		"message":        deref(u.Message),
		"components":     components,
		"updated_at":     u.UpdatedAt,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.MaintenanceUpdateRepo.Insert: %w", err)
	}
	return nil
}

// DeleteMany removes the given history entries in one statement.
func (r *pgMaintenanceUpdateRepo) DeleteMany(ctx context.Context, maintenanceID string, updateIDs []string) error {
	if len(updateIDs) == 0 {
		return nil
	}

	const q = `
		DELETE FROM maintenance_updates
		WHERE maintenance_id = @maintenance_id
		  AND maintenance_update_id = ANY(@ids)`

	args := pgx.NamedArgs{"maintenance_id": maintenanceID, "ids": updateIDs}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.MaintenanceUpdateRepo.DeleteMany: %w", err)
	}
	return nil
}

// scanMaintenanceUpdate maps a single row into a domain.MaintenanceUpdate.
func scanMaintenanceUpdate(s scanner) (domain.MaintenanceUpdate, error) {
	var (
		u             domain.MaintenanceUpdate
		maintenanceID string
		message       string
		raw           []byte
	)
	err := s.Scan(&u.MaintenanceUpdateID, &maintenanceID, &u.Name, &u.Status,
		&u.StartAt, &u.EndAt, &message, &raw, &u.UpdatedAt)
	if err != nil {
		return domain.MaintenanceUpdate{}, err
	}
	if u.Components, err = decodeComponents(raw); err != nil {
		return domain.MaintenanceUpdate{}, err
	}
	u.MaintenanceID = &maintenanceID
	u.Message = &message
	return u, nil
}
