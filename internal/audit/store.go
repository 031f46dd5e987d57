package audit

import (
	"context"

	id "custos/pkg/domain"
)

// Store is an append-only audit sink with per-dependent reads.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByDependent(ctx context.Context, dependentID id.DependentID) ([]Event, error)
}
