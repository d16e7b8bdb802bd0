// Package handler implements the HTTP handlers for the status page API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, maintenance.go) but share the same Server struct so they
// can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/status-page/internal/domain"
	"github.com/pkordes/status-page/internal/notify"
	"github.com/pkordes/status-page/spec"
)

// MaintenanceServicer defines the business operations the maintenance
// handlers depend on. Defining the interface here (in the consumer package)
// lets handler tests inject a mock without touching the database.
type MaintenanceServicer interface {
	All(ctx context.Context) ([]*domain.Maintenance, error)
	Lookup(ctx context.Context, id string) (*domain.Maintenance, error)
	Validate(ctx context.Context, m *domain.Maintenance) error
	Save(ctx context.Context, m *domain.Maintenance) error
	Delete(ctx context.Context, m *domain.Maintenance) error
	Updates(ctx context.Context, m *domain.Maintenance) ([]domain.MaintenanceUpdate, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	maintenances MaintenanceServicer
	notifier     notify.Notifier
	log          *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil notifier is replaced by notify.Discard; a nil logger by slog.Default().
func NewServer(maintenances MaintenanceServicer, notifier notify.Notifier, log *slog.Logger) *Server {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{maintenances: maintenances, notifier: notifier, log: log}
}

// Routes returns a router with every API endpoint registered.
// Cross-cutting middleware (request IDs, logging, CORS) is applied by the caller.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/maintenances", func(r chi.Router) {
		r.Get("/", s.ListMaintenances)
		r.Post("/", s.CreateMaintenance)
		r.Route("/{maintenanceID}", func(r chi.Router) {
			r.Get("/", s.GetMaintenance)
			r.Patch("/", s.UpdateMaintenance)
			r.Delete("/", s.DeleteMaintenance)
			r.Get("/maintenanceupdates", s.ListMaintenanceUpdates)
		})
	})

	return r
}

// serveOpenAPI handles GET /openapi.yaml.
func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
