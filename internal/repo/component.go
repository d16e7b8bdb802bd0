package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/status-page/internal/domain"
)

// ComponentRepo defines the persistence operations on the components store
// that maintenances need.
type ComponentRepo interface {
	// GetByID returns every component stored under id (normally zero or one).
	GetByID(ctx context.Context, id string) ([]domain.ComponentRecord, error)

	// UpdateStatus overwrites a component's status.
	// Returns domain.ErrNotFound if no component with that ID exists.
	UpdateStatus(ctx context.Context, id, status string) error
}

// pgComponentRepo is the Postgres implementation of ComponentRepo.
type pgComponentRepo struct {
	db db
}

// NewComponentRepo constructs a ComponentRepo backed by the provided db connection.
func NewComponentRepo(db db) ComponentRepo {
	return &pgComponentRepo{db: db}
}

// GetByID returns the components matching id.
func (r *pgComponentRepo) GetByID(ctx context.Context, id string) ([]domain.ComponentRecord, error) {
	const q = `
		SELECT component_id, name, description, status, sort_order
		FROM components
		WHERE component_id = @id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return nil, fmt.Errorf("repo.ComponentRepo.GetByID: %w", err)
	}
	recs, err := collect(rows, scanComponent)
	if err != nil {
		return nil, fmt.Errorf("repo.ComponentRepo.GetByID: %w", err)
	}
	return recs, nil
}

// UpdateStatus sets a component's status. Setting the same status twice is
// harmless, so callers may retry freely.
func (r *pgComponentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	const q = `
		UPDATE components
		SET status     = @status,
		    updated_at = now()
		WHERE component_id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": status})
	if err != nil {
		return fmt.Errorf("repo.ComponentRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ComponentRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

// scanComponent maps a single row into a domain.ComponentRecord.
func scanComponent(s scanner) (domain.ComponentRecord, error) {
	var (
		c  domain.ComponentRecord
		id string
	)
	if err := s.Scan(&id, &c.Name, &c.Description, &c.Status, &c.Order); err != nil {
		return domain.ComponentRecord{}, err
	}
	c.ComponentID = &id
	return c, nil
}
