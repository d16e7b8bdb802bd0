package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/status-page/internal/domain"
	"github.com/pkordes/status-page/internal/metrics"
)

// MaintenanceResponse is the body returned after a create or update.
type MaintenanceResponse struct {
	Maintenance domain.MaintenanceRecord `json:"maintenance"`
	Components  []domain.ComponentRecord `json:"components"`
}

// MaintenancePatch is the body of PATCH /maintenances/{maintenanceID}.
// Nil fields keep their stored value.
type MaintenancePatch struct {
	Name       *string                   `json:"name"`
	Status     *string                   `json:"status"`
	StartAt    *string                   `json:"startAt"`
	EndAt      *string                   `json:"endAt"`
	Message    *string                   `json:"message"`
	Components *[]domain.ComponentRecord `json:"components"`
}

// ListMaintenances handles GET /maintenances.
func (s *Server) ListMaintenances(w http.ResponseWriter, r *http.Request) {
	all, err := s.maintenances.All(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]domain.MaintenanceRecord, 0, len(all))
	for _, m := range all {
		out = append(out, m.Record())
	}
	writeJSON(w, http.StatusOK, out)
}

// GetMaintenance handles GET /maintenances/{maintenanceID}.
func (s *Server) GetMaintenance(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Record())
}

// CreateMaintenance handles POST /maintenances.
// Any maintenanceID in the body is ignored; a new one is generated.
func (s *Server) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var body domain.MaintenanceRecord
	if !decodeBody(w, r, &body) {
		return
	}
	body.MaintenanceID = nil
	body.UpdatedAt = ""

	m := domain.NewMaintenance(body)
	if !s.validateAndSave(w, r, m) {
		return
	}
	writeJSON(w, http.StatusCreated, newMaintenanceResponse(m))
}

// UpdateMaintenance handles PATCH /maintenances/{maintenanceID}.
// Fields absent from the body keep their stored values; updatedAt is refreshed.
func (s *Server) UpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	existing, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var patch MaintenancePatch
	if !decodeBody(w, r, &patch) {
		return
	}

	rec := existing.Record()
	applyPatch(&rec, patch)
	rec.UpdatedAt = ""

	m := domain.NewMaintenance(rec)
	if !s.validateAndSave(w, r, m) {
		return
	}
	writeJSON(w, http.StatusOK, newMaintenanceResponse(m))
}

// DeleteMaintenance handles DELETE /maintenances/{maintenanceID}.
// The record is not looked up first: a repeated delete must still reach the
// history cleanup after the record itself is gone.
func (s *Server) DeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	id, ok := bindMaintenanceID(w, r)
	if !ok {
		return
	}
	m := domain.NewMaintenance(domain.MaintenanceRecord{MaintenanceID: &id})
	if err := s.maintenances.Delete(r.Context(), m); err != nil {
		metrics.IncDelete(metrics.ResultError)
		s.writeError(w, r, err)
		return
	}
	metrics.IncDelete(metrics.ResultSuccess)
	w.WriteHeader(http.StatusNoContent)
}

// ListMaintenanceUpdates handles GET /maintenances/{maintenanceID}/maintenanceupdates.
func (s *Server) ListMaintenanceUpdates(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookup(w, r)
	if !ok {
		return
	}
	updates, err := s.maintenances.Updates(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updates)
}

// validateAndSave runs validation, the multi-store save, and the notification.
// It writes the error response itself and reports whether the caller should
// continue. A failed notification is logged but does not fail the request:
// the maintenance is already stored.
func (s *Server) validateAndSave(w http.ResponseWriter, r *http.Request, m *domain.Maintenance) bool {
	ctx := r.Context()

	if err := s.maintenances.Validate(ctx, m); err != nil {
		s.writeError(w, r, err)
		return false
	}

	start := time.Now()
	if err := s.maintenances.Save(ctx, m); err != nil {
		step := "unknown"
		var saveErr *domain.SaveError
		if errors.As(err, &saveErr) {
			step = saveErr.Step.String()
		}
		metrics.ObserveSave(metrics.ResultError, step, time.Since(start))
		s.log.ErrorContext(ctx, "maintenance save incomplete",
			"maintenance_id", m.ID(),
			"failed_step", step,
		)
		s.writeError(w, r, err)
		return false
	}
	metrics.ObserveSave(metrics.ResultSuccess, "", time.Since(start))

	s.notify(ctx, m)
	return true
}

func (s *Server) notify(ctx context.Context, m *domain.Maintenance) {
	if err := s.notifier.NotifyMaintenance(ctx, m.Record()); err != nil {
		metrics.IncNotify(metrics.ResultError)
		s.log.WarnContext(ctx, "maintenance notification failed",
			"maintenance_id", m.ID(),
			"error", err,
		)
		return
	}
	metrics.IncNotify(metrics.ResultSuccess)
}

// bindMaintenanceID binds the maintenanceID path parameter. On failure it
// writes a 400 response and returns false.
func bindMaintenanceID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "maintenanceID",
		chi.URLParam(r, "maintenanceID"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, "invalid_parameter",
			fmt.Sprintf("invalid format for parameter maintenanceID: %s", err))
		return "", false
	}
	return id, true
}

// lookup binds the maintenanceID path parameter and loads the maintenance.
// On failure it writes the error response and returns false.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*domain.Maintenance, bool) {
	id, ok := bindMaintenanceID(w, r)
	if !ok {
		return nil, false
	}

	m, err := s.maintenances.Lookup(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return m, true
}

// decodeBody decodes the JSON request body into dst. On failure it writes a
// 413 (body too large) or 422 response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorBody(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return false
		}
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", "malformed request body: "+err.Error())
		return false
	}
	return true
}

func applyPatch(rec *domain.MaintenanceRecord, p MaintenancePatch) {
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Status != nil {
		rec.Status = *p.Status
	}
	if p.StartAt != nil {
		rec.StartAt = *p.StartAt
	}
	if p.EndAt != nil {
		rec.EndAt = *p.EndAt
	}
	if p.Message != nil {
		rec.Message = p.Message
	}
	if p.Components != nil {
		rec.Components = *p.Components
	}
}

func newMaintenanceResponse(m *domain.Maintenance) MaintenanceResponse {
	rec := m.Record()
	return MaintenanceResponse{Maintenance: rec, Components: rec.Components}
}
