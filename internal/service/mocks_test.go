package service_test

import (
	"context"

	"github.com/pkordes/status-page/internal/domain"
	"github.com/pkordes/status-page/internal/repo"
)

// Hand-written test doubles for the repo interfaces.
// Each method is a function field; set only the ones your test needs.

type mockMaintenanceRepo struct {
	list    func(ctx context.Context) ([]domain.MaintenanceRecord, error)
	getByID func(ctx context.Context, id string) ([]domain.MaintenanceRecord, error)
	upsert  func(ctx context.Context, rec domain.MaintenanceRecord) error
	delete  func(ctx context.Context, id string) error
}

func (m *mockMaintenanceRepo) List(ctx context.Context) ([]domain.MaintenanceRecord, error) {
	return m.list(ctx)
}
func (m *mockMaintenanceRepo) GetByID(ctx context.Context, id string) ([]domain.MaintenanceRecord, error) {
	return m.getByID(ctx, id)
}
func (m *mockMaintenanceRepo) Upsert(ctx context.Context, rec domain.MaintenanceRecord) error {
	return m.upsert(ctx, rec)
}
func (m *mockMaintenanceRepo) Delete(ctx context.Context, id string) error {
	return m.delete(ctx, id)
}

type mockUpdateRepo struct {
	listByMaintenanceID func(ctx context.Context, id string) ([]domain.MaintenanceUpdate, error)
	insert              func(ctx context.Context, u domain.MaintenanceUpdate) error
	deleteMany          func(ctx context.Context, id string, ids []string) error
}

func (m *mockUpdateRepo) ListByMaintenanceID(ctx context.Context, id string) ([]domain.MaintenanceUpdate, error) {
	return m.listByMaintenanceID(ctx, id)
}
func (m *mockUpdateRepo) Insert(ctx context.Context, u domain.MaintenanceUpdate) error {
	return m.insert(ctx, u)
}
func (m *mockUpdateRepo) DeleteMany(ctx context.Context, id string, ids []string) error {
	return m.deleteMany(ctx, id, ids)
}

type mockComponentRepo struct {
	getByID      func(ctx context.Context, id string) ([]domain.ComponentRecord, error)
	updateStatus func(ctx context.Context, id, status string) error
}

func (m *mockComponentRepo) GetByID(ctx context.Context, id string) ([]domain.ComponentRecord, error) {
	return m.getByID(ctx, id)
}
func (m *mockComponentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return m.updateStatus(ctx, id, status)
}

// compile-time checks: the mocks must satisfy the repo interfaces.
var (
	_ repo.MaintenanceRepo       = (*mockMaintenanceRepo)(nil)
	_ repo.MaintenanceUpdateRepo = (*mockUpdateRepo)(nil)
	_ repo.ComponentRepo         = (*mockComponentRepo)(nil)
)

func strPtr(s string) *string { return &s }
