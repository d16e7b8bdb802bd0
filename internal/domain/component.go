package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ComponentRecord is the serialized form of a Component. It is both what
// callers send in a maintenance's components list and what Component.Record
// produces, so the two round-trip.
// Components are managed outside this service, so a maintenance must
// reference them by ID. A nil ComponentID is rejected at validation time.
type ComponentRecord struct {
	ComponentID *string `json:"componentID,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Order       int     `json:"order"`
}

// Component is a single monitored service unit attached to a maintenance.
// Identity is fixed at construction; the remaining fields are plain values
// because Component is always copied, never shared.
type Component struct {
	identity    Identity
	Name        string
	Description string
	Status      string
	Order       int
}

// NewComponent builds a Component from its serialized form. No I/O happens here;
// whether a supplied ID exists is checked at validation time.
func NewComponent(rec ComponentRecord) Component {
	return Component{
		identity:    newIdentity(rec.ComponentID),
		Name:        rec.Name,
		Description: rec.Description,
		Status:      rec.Status,
		Order:       rec.Order,
	}
}

// ID returns the component's identity string.
func (c Component) ID() string { return c.identity.ID }

// Identity returns the component's identity together with how it was obtained.
func (c Component) Identity() Identity { return c.identity }

// CheckFields runs the component rules that need no store access.
func (c Component) CheckFields() error {
	if c.identity.ID == "" {
		return fmt.Errorf("%w: invalid componentID parameter", ErrValidation)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: invalid name parameter", ErrValidation)
	}
	if !IsComponentStatus(c.Status) {
		return fmt.Errorf("%w: invalid component status parameter", ErrValidation)
	}
	return nil
}

// Record returns the serialized form of the component.
func (c Component) Record() ComponentRecord {
	id := c.identity.ID
	return ComponentRecord{
		ComponentID: &id,
		Name:        c.Name,
		Description: c.Description,
		Status:      c.Status,
		Order:       c.Order,
	}
}

// IdentityKind tells whether an identity was generated locally or supplied by
// the caller. Only supplied identities need an existence check.
type IdentityKind int

const (
	IdentityGenerated IdentityKind = iota
	IdentitySupplied
)

// Identity is an entity's ID tagged with how it was obtained.
type Identity struct {
	ID   string
	Kind IdentityKind
}

// Supplied reports whether the caller provided the ID.
func (i Identity) Supplied() bool { return i.Kind == IdentitySupplied }

func newIdentity(id *string) Identity {
	if id == nil {
		return Identity{ID: uuid.NewString(), Kind: IdentityGenerated}
	}
	return Identity{ID: *id, Kind: IdentitySupplied}
}
