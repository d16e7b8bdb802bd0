package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/status-page/internal/domain"
	"github.com/pkordes/status-page/internal/service"
)

// ---- helpers ---------------------------------------------------------------

// recorder captures every write the service issues, in order, across all
// three stores. It is safe for the concurrent component updates.
type recorder struct {
	mu     sync.Mutex
	writes []string
}

func (r *recorder) add(w string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, w)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

// stores bundles mocks that accept every write and record it.
type stores struct {
	rec          *recorder
	maintenances *mockMaintenanceRepo
	updates      *mockUpdateRepo
	components   *mockComponentRepo
}

func newStores(stored ...domain.MaintenanceRecord) *stores {
	rec := &recorder{}
	byID := make(map[string][]domain.MaintenanceRecord)
	for _, m := range stored {
		byID[*m.MaintenanceID] = append(byID[*m.MaintenanceID], m)
	}
	s := &stores{rec: rec}
	s.maintenances = &mockMaintenanceRepo{
		list: func(_ context.Context) ([]domain.MaintenanceRecord, error) { return stored, nil },
		getByID: func(_ context.Context, id string) ([]domain.MaintenanceRecord, error) {
			return append([]domain.MaintenanceRecord{}, byID[id]...), nil
		},
		upsert: func(_ context.Context, m domain.MaintenanceRecord) error {
			rec.add("maintenance:" + *m.MaintenanceID)
			return nil
		},
		delete: func(_ context.Context, id string) error {
			rec.add("delete-maintenance:" + id)
			return nil
		},
	}
	s.updates = &mockUpdateRepo{
		listByMaintenanceID: func(_ context.Context, _ string) ([]domain.MaintenanceUpdate, error) {
			return []domain.MaintenanceUpdate{}, nil
		},
		insert: func(_ context.Context, u domain.MaintenanceUpdate) error {
			rec.add("history:" + *u.MaintenanceID)
			return nil
		},
		deleteMany: func(_ context.Context, id string, _ []string) error {
			rec.add("delete-history:" + id)
			return nil
		},
	}
	s.components = componentStore("c-1", "c-2", "c-3")
	s.components.updateStatus = func(_ context.Context, id, status string) error {
		rec.add("component:" + id + "=" + status)
		return nil
	}
	return s
}

func (s *stores) service(policy service.RetryPolicy) *service.MaintenanceService {
	return service.NewMaintenanceService(s.maintenances, s.updates, service.NewComponentService(s.components), policy)
}

func validRecord() domain.MaintenanceRecord {
	return domain.MaintenanceRecord{
		Name:    "DB upgrade",
		Status:  domain.MaintenanceStatusScheduled,
		StartAt: "2024-01-01T00:00:00Z",
		EndAt:   "2024-01-01T02:00:00Z",
	}
}

func storedRecord(id string) domain.MaintenanceRecord {
	rec := validRecord()
	rec.MaintenanceID = strPtr(id)
	rec.Message = strPtr("")
	rec.Components = []domain.ComponentRecord{}
	rec.UpdatedAt = "2024-01-01T00:00:00.000Z"
	return rec
}

func withComponents(rec domain.MaintenanceRecord, ids ...string) domain.MaintenanceRecord {
	for _, id := range ids {
		c := storedComponent(id)
		c.Status = domain.ComponentStatusUnderMaintenance
		rec.Components = append(rec.Components, c)
	}
	return rec
}

// ---- Validate --------------------------------------------------------------

func TestMaintenanceService_Validate_NewMaintenance(t *testing.T) {
	s := newStores()
	s.maintenances.getByID = func(_ context.Context, _ string) ([]domain.MaintenanceRecord, error) {
		t.Fatal("a generated ID must not be looked up")
		return nil, nil
	}
	m := domain.NewMaintenance(validRecord())

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), m)

	require.NoError(t, err)
	got := m.Record()
	assert.NotEmpty(t, *got.MaintenanceID)
	assert.Equal(t, "DB upgrade", got.Name)
	assert.Equal(t, "2024-01-01T00:00:00Z", got.StartAt)
	assert.Equal(t, "2024-01-01T02:00:00Z", got.EndAt)
	assert.Equal(t, []domain.ComponentRecord{}, got.Components)
}

func TestMaintenanceService_Validate_SuppliedIDMissing(t *testing.T) {
	s := newStores()
	rec := validRecord()
	rec.MaintenanceID = strPtr("missing-1")

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrValidation)
}

func TestMaintenanceService_Validate_SuppliedIDExists(t *testing.T) {
	s := newStores(storedRecord("m-1"))
	rec := validRecord()
	rec.MaintenanceID = strPtr("m-1")

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	assert.NoError(t, err)
}

func TestMaintenanceService_Validate_LookupStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	s := newStores()
	s.maintenances.getByID = func(_ context.Context, _ string) ([]domain.MaintenanceRecord, error) {
		return nil, storeErr
	}
	rec := validRecord()
	rec.MaintenanceID = strPtr("m-1")

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	// A store failure is neither a validation failure nor a not-found.
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestMaintenanceService_Validate_EmptySuppliedID(t *testing.T) {
	s := newStores()
	rec := validRecord()
	rec.MaintenanceID = strPtr("")

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "maintenanceID")
}

func TestMaintenanceService_Validate_EndBeforeStart(t *testing.T) {
	s := newStores()
	rec := validRecord()
	rec.StartAt, rec.EndAt = "2024-01-01T02:00:00Z", "2024-01-01T00:00:00Z"

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "startAt is later than endAt")
}

func TestMaintenanceService_Validate_EqualStartAndEnd(t *testing.T) {
	s := newStores()
	rec := validRecord()
	rec.EndAt = rec.StartAt

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	assert.NoError(t, err)
}

func TestMaintenanceService_Validate_InvalidComponent(t *testing.T) {
	s := newStores()
	rec := withComponents(validRecord(), "c-1", "ghost")

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	assert.ErrorIs(t, err, domain.ErrNotFound)
	var ce *domain.ComponentError
	require.ErrorAs(t, err, &ce, "component failures must be identifiable")
	assert.Equal(t, "ghost", ce.ComponentID)
}

// A component the store does not know would make the components step fail
// after the maintenance and its history were written, so it must be caught
// by Validate.
func TestMaintenanceService_ComponentWithoutIDFailsValidationNotSave(t *testing.T) {
	s := newStores()
	rec := validRecord()
	rec.Components = []domain.ComponentRecord{{Name: "Web", Status: domain.ComponentStatusUnderMaintenance}}
	m := domain.NewMaintenance(rec)

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), m)

	require.ErrorIs(t, err, domain.ErrValidation)
	var ce *domain.ComponentError
	assert.ErrorAs(t, err, &ce)
	assert.Empty(t, s.rec.all(), "validation writes nothing")
}

func TestMaintenanceService_Validate_FieldsCheckedBeforeComponents(t *testing.T) {
	s := newStores()
	rec := withComponents(validRecord(), "ghost")
	rec.Name = ""

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	require.ErrorIs(t, err, domain.ErrValidation)
	var ce *domain.ComponentError
	assert.False(t, errors.As(err, &ce))
}

func TestMaintenanceService_Validate_UpdatedAtCheckedLast(t *testing.T) {
	s := newStores()
	rec := validRecord()
	rec.UpdatedAt = "not a date"

	err := s.service(service.RetryPolicy{}).Validate(context.Background(), domain.NewMaintenance(rec))

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "updatedAt")
}

// ---- All / Lookup ----------------------------------------------------------

func TestMaintenanceService_All(t *testing.T) {
	s := newStores(storedRecord("m-1"), storedRecord("m-2"))

	got, err := s.service(service.RetryPolicy{}).All(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m-1", got[0].ID())
	assert.Equal(t, "m-2", got[1].ID())
}

func TestMaintenanceService_All_Empty(t *testing.T) {
	s := newStores()
	s.maintenances.list = func(_ context.Context) ([]domain.MaintenanceRecord, error) { return nil, nil }

	got, err := s.service(service.RetryPolicy{}).All(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMaintenanceService_Lookup(t *testing.T) {
	s := newStores(storedRecord("m-1"))

	got, err := s.service(service.RetryPolicy{}).Lookup(context.Background(), "m-1")

	require.NoError(t, err)
	assert.Equal(t, storedRecord("m-1"), got.Record())
}

func TestMaintenanceService_Lookup_NotFound(t *testing.T) {
	s := newStores()

	_, err := s.service(service.RetryPolicy{}).Lookup(context.Background(), "m-1")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMaintenanceService_Lookup_TooMany(t *testing.T) {
	s := newStores(storedRecord("m-1"), storedRecord("m-1"))

	_, err := s.service(service.RetryPolicy{}).Lookup(context.Background(), "m-1")

	assert.ErrorIs(t, err, domain.ErrIntegrity)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

// ---- Save ------------------------------------------------------------------

func TestMaintenanceService_Save_WritesInOrder(t *testing.T) {
	s := newStores()
	m := domain.NewMaintenance(withComponents(validRecord(), "c-1", "c-2", "c-3"))

	err := s.service(service.RetryPolicy{}).Save(context.Background(), m)

	require.NoError(t, err)
	writes := s.rec.all()
	require.Len(t, writes, 5, "one maintenance write, one history write, one per component")
	assert.Equal(t, "maintenance:"+m.ID(), writes[0])
	assert.Equal(t, "history:"+m.ID(), writes[1])

	// Component updates run concurrently, so only the set is fixed.
	componentWrites := append([]string(nil), writes[2:]...)
	sort.Strings(componentWrites)
	assert.Equal(t, []string{
		"component:c-1=Under Maintenance",
		"component:c-2=Under Maintenance",
		"component:c-3=Under Maintenance",
	}, componentWrites)
}

func TestMaintenanceService_Save_NoComponents(t *testing.T) {
	s := newStores()
	m := domain.NewMaintenance(validRecord())

	err := s.service(service.RetryPolicy{}).Save(context.Background(), m)

	require.NoError(t, err)
	assert.Equal(t, []string{"maintenance:" + m.ID(), "history:" + m.ID()}, s.rec.all())
}

func TestMaintenanceService_Save_HistoryEntryIsSnapshot(t *testing.T) {
	s := newStores()
	var got domain.MaintenanceUpdate
	s.updates.insert = func(_ context.Context, u domain.MaintenanceUpdate) error {
		got = u
		return nil
	}
	m := domain.NewMaintenance(validRecord())

	require.NoError(t, s.service(service.RetryPolicy{}).Save(context.Background(), m))

	assert.Equal(t, m.Record(), got.MaintenanceRecord)
	assert.NotEmpty(t, got.MaintenanceUpdateID)
}

func TestMaintenanceService_Save_EverySaveIsOneHistoryEntry(t *testing.T) {
	s := newStores()
	history := map[string]string{}
	s.updates.insert = func(_ context.Context, u domain.MaintenanceUpdate) error {
		if _, ok := history[u.MaintenanceUpdateID]; !ok {
			history[u.MaintenanceUpdateID] = u.Name
		}
		return nil
	}
	svc := s.service(service.RetryPolicy{})

	first := storedRecord("m-1")
	first.Name = "first"
	second := storedRecord("m-1")
	second.Name = "second"
	// Same updatedAt on both: the saves must still be told apart.
	require.NoError(t, svc.Save(context.Background(), domain.NewMaintenance(first)))
	require.NoError(t, svc.Save(context.Background(), domain.NewMaintenance(second)))

	require.Len(t, history, 2)
	var names []string
	for _, n := range history {
		names = append(names, n)
	}
	assert.ElementsMatch(t, []string{"first", "second"}, names)
}

func TestMaintenanceService_Save_HistoryFailureReportsStep(t *testing.T) {
	storeErr := errors.New("history table unavailable")
	s := newStores()
	s.updates.insert = func(_ context.Context, _ domain.MaintenanceUpdate) error { return storeErr }
	m := domain.NewMaintenance(withComponents(validRecord(), "c-1"))

	err := s.service(service.RetryPolicy{}).Save(context.Background(), m)

	assert.ErrorIs(t, err, storeErr)
	var saveErr *domain.SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, domain.SaveStepHistory, saveErr.Step)
	assert.Equal(t, m.ID(), saveErr.MaintenanceID)
	assert.NotEmpty(t, saveErr.HistoryID)
	// The maintenance record stays written; components were never touched.
	assert.Equal(t, []string{"maintenance:" + m.ID()}, s.rec.all())
}

func TestMaintenanceService_Save_ComponentFailureReportsStep(t *testing.T) {
	s := newStores()
	inner := s.components.updateStatus
	s.components.updateStatus = func(ctx context.Context, id, status string) error {
		if id == "c-2" {
			return domain.ErrNotFound
		}
		return inner(ctx, id, status)
	}
	m := domain.NewMaintenance(withComponents(validRecord(), "c-1", "c-2", "c-3"))

	err := s.service(service.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}).Save(context.Background(), m)

	var saveErr *domain.SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, domain.SaveStepComponents, saveErr.Step)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	// Siblings are not cancelled or rolled back.
	assert.Contains(t, s.rec.all(), "component:c-1=Under Maintenance")
	assert.Contains(t, s.rec.all(), "component:c-3=Under Maintenance")
}

func TestMaintenanceService_Save_RetriesTransientFailure(t *testing.T) {
	s := newStores()
	attempts := 0
	s.maintenances.upsert = func(_ context.Context, _ domain.MaintenanceRecord) error {
		attempts++
		if attempts < 3 {
			return errors.New("deadlock detected")
		}
		return nil
	}
	m := domain.NewMaintenance(validRecord())

	err := s.service(service.RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}).Save(context.Background(), m)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestMaintenanceService_Save_GivesUpAfterAttempts(t *testing.T) {
	storeErr := errors.New("deadlock detected")
	s := newStores()
	attempts := 0
	s.maintenances.upsert = func(_ context.Context, _ domain.MaintenanceRecord) error {
		attempts++
		return storeErr
	}
	m := domain.NewMaintenance(validRecord())

	err := s.service(service.RetryPolicy{Attempts: 2, BaseDelay: time.Millisecond}).Save(context.Background(), m)

	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, 2, attempts)
	var saveErr *domain.SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, domain.SaveStepMaintenance, saveErr.Step)
	assert.Empty(t, s.rec.all())
}

func TestMaintenanceService_Save_ZeroPolicyTriesOnce(t *testing.T) {
	s := newStores()
	attempts := 0
	s.maintenances.upsert = func(_ context.Context, _ domain.MaintenanceRecord) error {
		attempts++
		return errors.New("boom")
	}

	err := s.service(service.RetryPolicy{}).Save(context.Background(), domain.NewMaintenance(validRecord()))

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestMaintenanceService_ResumeSave_SkipsCompletedStepsAndReusesHistoryID(t *testing.T) {
	s := newStores()
	var historyIDs []string
	failHistory := true
	s.updates.insert = func(_ context.Context, u domain.MaintenanceUpdate) error {
		historyIDs = append(historyIDs, u.MaintenanceUpdateID)
		if failHistory {
			return errors.New("history table unavailable")
		}
		s.rec.add("history:" + *u.MaintenanceID)
		return nil
	}
	svc := s.service(service.RetryPolicy{})
	m := domain.NewMaintenance(withComponents(validRecord(), "c-1"))

	err := svc.Save(context.Background(), m)
	var saveErr *domain.SaveError
	require.ErrorAs(t, err, &saveErr)

	failHistory = false
	require.NoError(t, svc.ResumeSave(context.Background(), m, saveErr))

	assert.Equal(t, []string{
		"maintenance:" + m.ID(),
		"history:" + m.ID(),
		"component:c-1=Under Maintenance",
	}, s.rec.all(), "the maintenance record is not written again")
	require.Len(t, historyIDs, 2)
	assert.Equal(t, historyIDs[0], historyIDs[1], "a resumed save keeps its history entry ID")
	assert.Equal(t, saveErr.HistoryID, historyIDs[1])
}

func TestMaintenanceService_ResumeSave_RejectsForeignError(t *testing.T) {
	s := newStores()
	svc := s.service(service.RetryPolicy{})
	m := domain.NewMaintenance(validRecord())

	err := svc.ResumeSave(context.Background(), m, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.ResumeSave(context.Background(), m, &domain.SaveError{
		MaintenanceID: "someone-else", HistoryID: "h-1", Step: domain.SaveStepHistory,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, s.rec.all())
}

// ---- Updates / Delete ------------------------------------------------------

func TestMaintenanceService_Updates(t *testing.T) {
	s := newStores()
	history := []domain.MaintenanceUpdate{
		{MaintenanceUpdateID: "u-1", MaintenanceRecord: storedRecord("m-1")},
		{MaintenanceUpdateID: "u-2", MaintenanceRecord: storedRecord("m-1")},
	}
	s.updates.listByMaintenanceID = func(_ context.Context, id string) ([]domain.MaintenanceUpdate, error) {
		assert.Equal(t, "m-1", id)
		return history, nil
	}

	got, err := s.service(service.RetryPolicy{}).Updates(context.Background(), domain.NewMaintenance(storedRecord("m-1")))

	require.NoError(t, err)
	assert.Equal(t, history, got)
}

func TestMaintenanceService_Delete_RemovesHistory(t *testing.T) {
	s := newStores()
	s.updates.listByMaintenanceID = func(_ context.Context, _ string) ([]domain.MaintenanceUpdate, error) {
		return []domain.MaintenanceUpdate{{MaintenanceUpdateID: "u-1"}, {MaintenanceUpdateID: "u-2"}}, nil
	}
	var deleted []string
	s.updates.deleteMany = func(_ context.Context, id string, ids []string) error {
		assert.Equal(t, "m-1", id)
		deleted = ids
		return nil
	}

	err := s.service(service.RetryPolicy{}).Delete(context.Background(), domain.NewMaintenance(storedRecord("m-1")))

	require.NoError(t, err)
	assert.Equal(t, []string{"u-1", "u-2"}, deleted)
	assert.Equal(t, []string{"delete-maintenance:m-1"}, s.rec.all())
}

func TestMaintenanceService_Delete_EmptyHistory(t *testing.T) {
	s := newStores()
	var deleted []string
	s.updates.deleteMany = func(_ context.Context, _ string, ids []string) error {
		deleted = ids
		return nil
	}

	err := s.service(service.RetryPolicy{}).Delete(context.Background(), domain.NewMaintenance(storedRecord("m-1")))

	require.NoError(t, err)
	assert.NotNil(t, deleted)
	assert.Empty(t, deleted)
}

func TestMaintenanceService_Delete_DoesNotTouchComponents(t *testing.T) {
	s := newStores()
	s.components.updateStatus = func(_ context.Context, _, _ string) error {
		t.Fatal("delete must not update component statuses")
		return nil
	}

	err := s.service(service.RetryPolicy{}).Delete(context.Background(),
		domain.NewMaintenance(withComponents(storedRecord("m-1"), "c-1")))

	assert.NoError(t, err)
}

func TestMaintenanceService_Delete_NotFound(t *testing.T) {
	s := newStores()
	s.maintenances.delete = func(_ context.Context, _ string) error { return domain.ErrNotFound }
	s.updates.deleteMany = func(_ context.Context, _ string, _ []string) error {
		t.Fatal("nothing to clean up for an unknown maintenance")
		return nil
	}

	err := s.service(service.RetryPolicy{}).Delete(context.Background(), domain.NewMaintenance(storedRecord("m-1")))

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMaintenanceService_Delete_StoreFailureStops(t *testing.T) {
	storeErr := errors.New("connection reset")
	s := newStores()
	s.maintenances.delete = func(_ context.Context, _ string) error { return storeErr }
	s.updates.listByMaintenanceID = func(_ context.Context, _ string) ([]domain.MaintenanceUpdate, error) {
		t.Fatal("history must not be read when the maintenance delete fails")
		return nil, nil
	}

	err := s.service(service.RetryPolicy{}).Delete(context.Background(), domain.NewMaintenance(storedRecord("m-1")))

	assert.ErrorIs(t, err, storeErr)
}

func TestMaintenanceService_Delete_RepeatFinishesHistoryCleanup(t *testing.T) {
	s := newStores()
	rows := map[string]bool{"m-1": true}
	history := []domain.MaintenanceUpdate{{MaintenanceUpdateID: "h1"}, {MaintenanceUpdateID: "h2"}}
	s.maintenances.delete = func(_ context.Context, id string) error {
		if !rows[id] {
			return domain.ErrNotFound
		}
		delete(rows, id)
		return nil
	}
	s.updates.listByMaintenanceID = func(_ context.Context, _ string) ([]domain.MaintenanceUpdate, error) {
		return history, nil
	}
	failCleanup := true
	s.updates.deleteMany = func(_ context.Context, _ string, ids []string) error {
		if failCleanup {
			return errors.New("history table unavailable")
		}
		assert.Equal(t, []string{"h1", "h2"}, ids)
		history = []domain.MaintenanceUpdate{}
		return nil
	}
	svc := s.service(service.RetryPolicy{})
	m := domain.NewMaintenance(storedRecord("m-1"))

	require.Error(t, svc.Delete(context.Background(), m))
	require.Empty(t, rows, "the record was removed before the cleanup failed")

	failCleanup = false
	require.NoError(t, svc.Delete(context.Background(), m))
	assert.Empty(t, history)

	// Once everything is gone the maintenance is simply unknown.
	assert.ErrorIs(t, svc.Delete(context.Background(), m), domain.ErrNotFound)
}
