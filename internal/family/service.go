package family

import (
	"context"
	"errors"

	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
)

// Service resolves the wallet pair and reference currency for a spend
// request. It keeps store sentinels from leaking past the module boundary.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Resolve loads the dependent and their family in one call.
func (s *Service) Resolve(ctx context.Context, dependentID id.DependentID) (SpendContext, error) {
	dep, err := s.store.GetDependent(ctx, dependentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return SpendContext{}, dErrors.New(dErrors.CodeNotFound, "unknown dependent")
		}
		return SpendContext{}, err
	}
	fam, err := s.store.GetFamily(ctx, dep.FamilyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return SpendContext{}, dErrors.New(dErrors.CodeNotFound, "dependent has no family")
		}
		return SpendContext{}, err
	}
	return SpendContext{Dependent: dep, Family: fam}, nil
}

// Register persists a family and its dependents; used by onboarding, which
// lives outside this core.
func (s *Service) Register(ctx context.Context, fam Family, dependents ...Dependent) error {
	if err := s.store.SaveFamily(ctx, fam); err != nil {
		return err
	}
	for _, d := range dependents {
		d.FamilyID = fam.ID
		if err := s.store.SaveDependent(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
