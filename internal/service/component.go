package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/status-page/internal/domain"
	"github.com/pkordes/status-page/internal/repo"
)

// ComponentService implements the component rules a maintenance relies on:
// validating attached components and pushing their statuses to the store.
type ComponentService struct {
	repo repo.ComponentRepo
}

// NewComponentService constructs a ComponentService backed by the provided ComponentRepo.
func NewComponentService(r repo.ComponentRepo) *ComponentService {
	return &ComponentService{repo: r}
}

// Lookup returns the single stored component with the given ID.
// Returns domain.ErrNotFound for no match and domain.ErrIntegrity for several.
func (s *ComponentService) Lookup(ctx context.Context, id string) (domain.Component, error) {
	recs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Component{}, fmt.Errorf("service.ComponentService.Lookup: %w", err)
	}
	switch len(recs) {
	case 0:
		return domain.Component{}, fmt.Errorf("service.ComponentService.Lookup: no matched item: %w", domain.ErrNotFound)
	case 1:
		return domain.NewComponent(recs[0]), nil
	default:
		return domain.Component{}, fmt.Errorf("service.ComponentService.Lookup: %w", domain.ErrIntegrity)
	}
}

// Validate checks one component. Components are owned by the components
// store, so the ID must be supplied by the caller and must exist there.
// Every failure comes back as a *domain.ComponentError.
func (s *ComponentService) Validate(ctx context.Context, c domain.Component) error {
	if err := s.validate(ctx, c); err != nil {
		return &domain.ComponentError{ComponentID: c.ID(), Err: err}
	}
	return nil
}

func (s *ComponentService) validate(ctx context.Context, c domain.Component) error {
	if c.ID() == "" || !c.Identity().Supplied() {
		return fmt.Errorf("%w: invalid componentID parameter", domain.ErrValidation)
	}
	if _, err := s.Lookup(ctx, c.ID()); err != nil {
		return err
	}
	return c.CheckFields()
}

// ValidateAll validates every component concurrently and waits for all of
// them. The first failure is returned unchanged.
func (s *ComponentService) ValidateAll(ctx context.Context, cs []domain.Component) error {
	return fanOut(cs, func(c domain.Component) error {
		return s.Validate(ctx, c)
	})
}

// UpdateStatus overwrites the stored status of c.
func (s *ComponentService) UpdateStatus(ctx context.Context, c domain.Component) error {
	if err := s.repo.UpdateStatus(ctx, c.ID(), c.Status); err != nil {
		return fmt.Errorf("service.ComponentService.UpdateStatus: %w", err)
	}
	return nil
}

// fanOut runs fn for every element concurrently and waits for all calls to
// finish, returning the first error. Calls that already succeeded are not
// undone, so fn must be safe to repeat.
//
// A plain errgroup.Group is used rather than errgroup.WithContext: one
// failure does not cancel its siblings.
func fanOut[T any](items []T, fn func(T) error) error {
	var g errgroup.Group
	for _, item := range items {
		item := item
		g.Go(func() error { return fn(item) })
	}
	return g.Wait()
}
