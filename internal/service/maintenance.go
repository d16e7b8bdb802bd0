// Package service contains the business logic for the status page service.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/status-page/internal/domain"
	"github.com/pkordes/status-page/internal/repo"
)

// MaintenanceService implements the Maintenance aggregate's operations: listing
// and looking up maintenances, validating them, and coordinating the writes
// to the maintenances, history, and components stores.
//
// The three stores are written independently; nothing here is transactional.
// See Save for the ordering and recovery contract.
type MaintenanceService struct {
	maintenances repo.MaintenanceRepo
	updates      repo.MaintenanceUpdateRepo
	components   *ComponentService
	retry        RetryPolicy
}

// NewMaintenanceService constructs a MaintenanceService backed by the provided repos.
func NewMaintenanceService(
	maintenances repo.MaintenanceRepo,
	updates repo.MaintenanceUpdateRepo,
	components *ComponentService,
	policy RetryPolicy,
) *MaintenanceService {
	return &MaintenanceService{
		maintenances: maintenances,
		updates:      updates,
		components:   components,
		retry:        policy,
	}
}

// All returns every stored maintenance, in store order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *MaintenanceService) All(ctx context.Context) ([]*domain.Maintenance, error) {
	recs, err := s.maintenances.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.MaintenanceService.All: %w", err)
	}
	out := make([]*domain.Maintenance, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.NewMaintenance(rec))
	}
	return out, nil
}

// Lookup returns the maintenance stored under id.
// Returns domain.ErrNotFound when nothing matches and domain.ErrIntegrity
// when the store holds more than one record for the ID.
func (s *MaintenanceService) Lookup(ctx context.Context, id string) (*domain.Maintenance, error) {
	recs, err := s.maintenances.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.MaintenanceService.Lookup: %w", err)
	}
	switch len(recs) {
	case 0:
		return nil, fmt.Errorf("service.MaintenanceService.Lookup: no matched item: %w", domain.ErrNotFound)
	case 1:
		return domain.NewMaintenance(recs[0]), nil
	default:
		return nil, fmt.Errorf("service.MaintenanceService.Lookup: %d records for %q: %w",
			len(recs), id, domain.ErrIntegrity)
	}
}

// Validate checks m, stopping at the first violation:
//
//  1. the ID is non-empty;
//  2. a caller-supplied ID exists in the maintenances store;
//  3. name, status, startAt, endAt, startAt <= endAt, message, components list;
//  4. every component, concurrently;
//  5. updatedAt.
//
// Step 2 reads the store, so a store failure surfaces here unchanged and must
// not be mistaken for invalid input. Component failures are returned as the
// *domain.ComponentError produced by ComponentService.
func (s *MaintenanceService) Validate(ctx context.Context, m *domain.Maintenance) error {
	if err := m.CheckIdentity(); err != nil {
		return err
	}
	if m.Identity().Supplied() {
		if _, err := s.Lookup(ctx, m.ID()); err != nil {
			return err
		}
	}
	if err := m.CheckFields(); err != nil {
		return err
	}
	if err := s.components.ValidateAll(ctx, m.Components()); err != nil {
		return err
	}
	return m.CheckUpdatedAt()
}

// Updates returns the full history recorded for m.
func (s *MaintenanceService) Updates(ctx context.Context, m *domain.Maintenance) ([]domain.MaintenanceUpdate, error) {
	updates, err := s.updates.ListByMaintenanceID(ctx, m.ID())
	if err != nil {
		return nil, fmt.Errorf("service.MaintenanceService.Updates: %w", err)
	}
	if updates == nil {
		return []domain.MaintenanceUpdate{}, nil
	}
	return updates, nil
}

// Save persists m. It writes, in order:
//
//  1. the maintenance record (upsert);
//  2. a history entry for this save;
//  3. the status of every attached component, concurrently.
//
// Every call is one save event and gets a fresh history entry ID.
//
// Each step is retried under the service's RetryPolicy. If a step still
// fails, Save returns a *domain.SaveError naming it; the steps before it are
// done and are not rolled back. Pass that error to ResumeSave to finish.
func (s *MaintenanceService) Save(ctx context.Context, m *domain.Maintenance) error {
	return s.save(ctx, m, domain.SaveStepMaintenance, uuid.NewString())
}

// ResumeSave finishes the save that failed with prev, starting at prev.Step
// and reusing its history entry ID. Every step is an overwrite (or, for
// history, an insert that ignores an existing ID), so repeating a step that
// had partially or fully completed is safe.
func (s *MaintenanceService) ResumeSave(ctx context.Context, m *domain.Maintenance, prev *domain.SaveError) error {
	if prev == nil || prev.HistoryID == "" {
		return fmt.Errorf("service.MaintenanceService.ResumeSave: %w: no failed save to resume", domain.ErrValidation)
	}
	if prev.MaintenanceID != m.ID() {
		return fmt.Errorf("service.MaintenanceService.ResumeSave: %w: save of %q cannot resume %q",
			domain.ErrValidation, prev.MaintenanceID, m.ID())
	}
	return s.save(ctx, m, prev.Step, prev.HistoryID)
}

func (s *MaintenanceService) save(ctx context.Context, m *domain.Maintenance, from domain.SaveStep, historyID string) error {
	rec := m.Record()

	steps := []struct {
		step domain.SaveStep
		run  func(context.Context) error
	}{
		{domain.SaveStepMaintenance, func(ctx context.Context) error {
			return s.retry.do(ctx, func(ctx context.Context) error {
				return s.maintenances.Upsert(ctx, rec)
			})
		}},
		{domain.SaveStepHistory, func(ctx context.Context) error {
			u := domain.NewMaintenanceUpdate(historyID, m)
			return s.retry.do(ctx, func(ctx context.Context) error {
				return s.updates.Insert(ctx, u)
			})
		}},
		{domain.SaveStepComponents, func(ctx context.Context) error {
			return fanOut(m.Components(), func(c domain.Component) error {
				return s.retry.do(ctx, func(ctx context.Context) error {
					return s.components.UpdateStatus(ctx, c)
				})
			})
		}},
	}

	for _, st := range steps {
		if st.step < from {
			continue
		}
		if err := st.run(ctx); err != nil {
			return &domain.SaveError{MaintenanceID: m.ID(), HistoryID: historyID, Step: st.step, Err: err}
		}
	}
	return nil
}

// Delete removes m and its history. Component statuses are left as they are.
// Only m's ID is used.
//
// A missing maintenance record does not stop the history cleanup, so a delete
// that failed after removing the record can be repeated until the history is
// gone. Delete returns domain.ErrNotFound only when neither a record nor any
// history existed.
func (s *MaintenanceService) Delete(ctx context.Context, m *domain.Maintenance) error {
	recordGone := false
	if err := s.maintenances.Delete(ctx, m.ID()); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("service.MaintenanceService.Delete: %w", err)
		}
		recordGone = true
	}

	updates, err := s.Updates(ctx, m)
	if err != nil {
		return fmt.Errorf("service.MaintenanceService.Delete: %w", err)
	}
	if recordGone && len(updates) == 0 {
		return fmt.Errorf("service.MaintenanceService.Delete: %w", domain.ErrNotFound)
	}
	ids := make([]string, 0, len(updates))
	for _, u := range updates {
		ids = append(ids, u.MaintenanceUpdateID)
	}

	if err := s.updates.DeleteMany(ctx, m.ID(), ids); err != nil {
		return fmt.Errorf("service.MaintenanceService.Delete: %w", err)
	}
	return nil
}
