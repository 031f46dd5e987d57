package family

import (
	"context"

	id "custos/pkg/domain"
)

// Store persists families and dependents. Implementations return
// sentinel.ErrNotFound for missing rows; the service translates.
type Store interface {
	SaveFamily(ctx context.Context, f Family) error
	GetFamily(ctx context.Context, familyID id.FamilyID) (Family, error)
	SaveDependent(ctx context.Context, d Dependent) error
	GetDependent(ctx context.Context, dependentID id.DependentID) (Dependent, error)
}
