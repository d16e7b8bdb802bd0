// Package domain contains the core data types for the status page service.
// Nothing here performs I/O: rules that need the store (existence checks,
// component lookups) are orchestrated by the service package.
package domain

import "fmt"

// MaintenanceRecord is the serialized form of a Maintenance. It is the input
// to NewMaintenance and the output of Maintenance.Record, so the two round-trip.
//
// Optional fields are pointers or may be left empty:
//   - MaintenanceID nil: a fresh ID is generated.
//   - Message nil: defaults to "".
//   - Components nil: defaults to an empty list.
//   - UpdatedAt "": defaults to the current time.
type MaintenanceRecord struct {
	MaintenanceID *string           `json:"maintenanceID,omitempty"`
	Name          string            `json:"name"`
	Status        string            `json:"status"`
	StartAt       string            `json:"startAt"`
	EndAt         string            `json:"endAt"`
	Message       *string           `json:"message,omitempty"`
	Components    []ComponentRecord `json:"components"`
	UpdatedAt     string            `json:"updatedAt,omitempty"`
}

// Maintenance is a scheduled maintenance window together with the components
// it affects. Fields are unexported: a Maintenance is replaced as a whole,
// never edited in place, and its identity never changes after construction.
type Maintenance struct {
	identity   Identity
	name       string
	status     string
	startAt    string
	endAt      string
	message    *string
	components []Component
	updatedAt  string
}

// NewMaintenance builds a Maintenance from its serialized form. It is the single
// entry point for both rebuilding stored records and accepting new input.
func NewMaintenance(rec MaintenanceRecord) *Maintenance {
	message := ""
	if rec.Message != nil {
		message = *rec.Message
	}
	updatedAt := rec.UpdatedAt
	if updatedAt == "" {
		updatedAt = Now()
	}
	components := make([]Component, 0, len(rec.Components))
	for _, c := range rec.Components {
		components = append(components, NewComponent(c))
	}

	return &Maintenance{
		identity:   newIdentity(rec.MaintenanceID),
		name:       rec.Name,
		status:     rec.Status,
		startAt:    rec.StartAt,
		endAt:      rec.EndAt,
		message:    &message,
		components: components,
		updatedAt:  updatedAt,
	}
}

func (m *Maintenance) ID() string         { return m.identity.ID }
func (m *Maintenance) Identity() Identity { return m.identity }
func (m *Maintenance) Name() string       { return m.name }
func (m *Maintenance) Status() string     { return m.status }
func (m *Maintenance) StartAt() string    { return m.startAt }
func (m *Maintenance) EndAt() string      { return m.endAt }
func (m *Maintenance) UpdatedAt() string  { return m.updatedAt }

// Message returns the message text, or "" when unset.
func (m *Maintenance) Message() string {
	if m.message == nil {
		return ""
	}
	return *m.message
}

// Components returns a copy of the attached components.
func (m *Maintenance) Components() []Component {
	out := make([]Component, len(m.components))
	copy(out, m.components)
	return out
}

// CheckIdentity enforces that the maintenance has a non-empty ID.
func (m *Maintenance) CheckIdentity() error {
	if m.identity.ID == "" {
		return fmt.Errorf("%w: invalid maintenanceID parameter", ErrValidation)
	}
	return nil
}

// CheckFields runs, in order, the rules on name, status, the start/end window,
// message, and the components list. It stops at the first violation.
func (m *Maintenance) CheckFields() error {
	if m.name == "" {
		return fmt.Errorf("%w: invalid name parameter", ErrValidation)
	}
	if !IsMaintenanceStatus(m.status) {
		return fmt.Errorf("%w: invalid maintenance status parameter", ErrValidation)
	}
	start, err := ParseTimestamp(m.startAt)
	if err != nil {
		return fmt.Errorf("%w: invalid startAt parameter", ErrValidation)
	}
	end, err := ParseTimestamp(m.endAt)
	if err != nil {
		return fmt.Errorf("%w: invalid endAt parameter", ErrValidation)
	}
	// Equal instants are a zero-length window, which is allowed.
	if start.After(end) {
		return fmt.Errorf("%w: startAt is later than endAt", ErrValidation)
	}
	if m.message == nil {
		return fmt.Errorf("%w: invalid message parameter", ErrValidation)
	}
	if m.components == nil {
		return fmt.Errorf("%w: invalid components parameter", ErrValidation)
	}
	return nil
}

// CheckUpdatedAt enforces that updatedAt is a valid timestamp.
func (m *Maintenance) CheckUpdatedAt() error {
	if !IsValidTimestamp(m.updatedAt) {
		return fmt.Errorf("%w: invalid updatedAt parameter", ErrValidation)
	}
	return nil
}

// Record returns the serialized form of the maintenance. Used both for
// persistence and for response bodies.
func (m *Maintenance) Record() MaintenanceRecord {
	id := m.identity.ID
	message := m.Message()
	components := make([]ComponentRecord, 0, len(m.components))
	for _, c := range m.components {
		components = append(components, c.Record())
	}
	return MaintenanceRecord{
		MaintenanceID: &id,
		Name:          m.name,
		Status:        m.status,
		StartAt:       m.startAt,
		EndAt:         m.endAt,
		Message:       &message,
		Components:    components,
		UpdatedAt:     m.updatedAt,
	}
}
