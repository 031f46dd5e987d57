package execution

import (
	"context"
	"time"

	id "custos/pkg/domain"
)

// Store persists transaction records. Finalize is the only mutation after
// Create and applies exactly once: finalizing a record that is already
// terminal fails with sentinel.ErrInvalidState.
type Store interface {
	Create(ctx context.Context, rec TransactionRecord) error
	Get(ctx context.Context, recordID id.RecordID) (TransactionRecord, error)
	Finalize(ctx context.Context, recordID id.RecordID, status Status, txHash, orderID, detail string, completedAt time.Time) error
}
