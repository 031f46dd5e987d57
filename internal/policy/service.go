package policy

import (
	"context"
	"errors"

	id "custos/pkg/domain"
	"custos/pkg/platform/sentinel"
	"custos/pkg/requestcontext"
)

// Service serves and updates per-dependent spending policies. A dependent
// without a stored policy gets the documented default; Get never fails with
// "not found".
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the stored policy or the default for unknown dependents.
func (s *Service) Get(ctx context.Context, dependentID id.DependentID) (Policy, error) {
	p, err := s.store.Get(ctx, dependentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Default(dependentID), nil
		}
		return Policy{}, err
	}
	return p, nil
}

// Update applies a partial patch on top of the current policy (or the
// default when none is stored) and persists the result.
func (s *Service) Update(ctx context.Context, dependentID id.DependentID, patch Patch) (Policy, error) {
	current, err := s.Get(ctx, dependentID)
	if err != nil {
		return Policy{}, err
	}
	updated := current.Apply(patch, requestcontext.Now(ctx))
	if err := s.store.Save(ctx, updated); err != nil {
		return Policy{}, err
	}
	return updated, nil
}
