package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pkordes/status-page/internal/domain"
	"github.com/pkordes/status-page/internal/metrics"
)

// ErrorDetail is the machine-readable part of an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// writeError maps an error from the service layer to a response:
//   - domain.ErrValidation → 422
//   - domain.ErrNotFound   → 404
//   - anything else (integrity, store, transport) → 500, logged
//
// Component failures keep their status code but name the component in the message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var compErr *domain.ComponentError
	isComponent := errors.As(err, &compErr)

	switch {
	case errors.Is(err, domain.ErrValidation):
		origin := "maintenance"
		if isComponent {
			origin = "component"
		}
		metrics.IncValidationFailure(origin)
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", errorMessage(err, compErr))
	case errors.Is(err, domain.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, "not_found", errorMessage(err, compErr))
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// errorMessage extracts the human-readable part from a wrapped sentinel error.
// e.g. "service.X: validation error: invalid name parameter" → "invalid name parameter"
func errorMessage(err error, compErr *domain.ComponentError) string {
	msg := err.Error()
	if compErr != nil {
		msg = compErr.Err.Error()
	}
	for _, marker := range []string{domain.ErrValidation.Error() + ": ", "no matched item: "} {
		if i := strings.LastIndex(msg, marker); i >= 0 && i+len(marker) < len(msg) {
			msg = msg[i+len(marker):]
			break
		}
	}
	if msg == domain.ErrNotFound.Error() || strings.HasSuffix(msg, ": "+domain.ErrNotFound.Error()) {
		msg = "no matched item"
	}
	if compErr != nil {
		return "component " + compErr.ComponentID + ": " + msg
	}
	return msg
}
