package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when a lookup by
// identity matches no record.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails a business rule (e.g. missing
// name, startAt later than endAt). The wrapped message names the field.
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrIntegrity is returned when a lookup by identity matches more than one
// record. It signals a store-level problem, not a caller mistake, so handlers
// must not map it to a 4xx response.
var ErrIntegrity = errors.New("matched too many items")

// ComponentError marks a failure that originated while validating one of a
// maintenance's components. Err is the underlying ErrValidation / ErrNotFound /
// store error, so errors.Is keeps classifying it; errors.As on *ComponentError
// tells the caller the component, not the maintenance, was at fault.
type ComponentError struct {
	ComponentID string
	Err         error
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("component %q: %v", e.ComponentID, e.Err)
}

func (e *ComponentError) Unwrap() error { return e.Err }

// SaveStep identifies one of the ordered writes performed by a save.
type SaveStep int

const (
	// SaveStepMaintenance upserts the record into the maintenances store.
	SaveStepMaintenance SaveStep = iota
	// SaveStepHistory appends a history entry to the maintenance updates store.
	SaveStepHistory
	// SaveStepComponents overwrites the status of every attached component.
	SaveStepComponents
)

func (s SaveStep) String() string {
	switch s {
	case SaveStepMaintenance:
		return "maintenance"
	case SaveStepHistory:
		return "history"
	case SaveStepComponents:
		return "components"
	default:
		return fmt.Sprintf("SaveStep(%d)", int(s))
	}
}

// SaveError reports the step at which a save stopped. Every step before Step
// has completed; Step and everything after it have not (or only partially, for
// SaveStepComponents). A save can be resumed from Step because every step is
// an idempotent overwrite.
//
// HistoryID is the history entry ID assigned to this save. Resuming reuses it,
// so a history insert that had already landed is not written twice.
type SaveError struct {
	MaintenanceID string
	HistoryID     string
	Step          SaveStep
	Err           error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save maintenance %q: %s step: %v", e.MaintenanceID, e.Step, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
