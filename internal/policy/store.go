package policy

import (
	"context"

	id "custos/pkg/domain"
)

// Store persists at most one policy per dependent. Get returns
// sentinel.ErrNotFound when none exists; the service materializes the
// default there.
type Store interface {
	Get(ctx context.Context, dependentID id.DependentID) (Policy, error)
	Save(ctx context.Context, p Policy) error
}
