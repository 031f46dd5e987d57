package authorization

import (
	"context"

	"github.com/shopspring/decimal"

	"custos/internal/audit"
	"custos/internal/execution"
	"custos/internal/family"
	"custos/internal/ledger"
	"custos/internal/policy"
	id "custos/pkg/domain"
)

// FamilyResolver resolves the dependent's wallet pair and reference
// currency.
type FamilyResolver interface {
	Resolve(ctx context.Context, dependentID id.DependentID) (family.SpendContext, error)
}

// PolicySource serves the effective spending policy for a dependent.
type PolicySource interface {
	Get(ctx context.Context, dependentID id.DependentID) (policy.Policy, error)
}

// Ledger is the rolling daily spend ledger.
type Ledger interface {
	CanSpend(ctx context.Context, dependentID id.DependentID, category id.Category, amount decimal.Decimal, token, referenceCurrency string, dailyCap *decimal.Decimal) (ledger.Decision, error)
	Record(ctx context.Context, entry ledger.Entry) error
}

// GasSponsor guarantees the executing wallet can pay for gas.
type GasSponsor interface {
	EnsureGas(ctx context.Context, executing, sponsorWallet family.WalletRef, minThreshold decimal.Decimal) error
}

// TradeExecutor settles the approved action.
type TradeExecutor interface {
	Execute(ctx context.Context, req execution.Request) execution.Result
}

// AuditEmitter records the authorization outcome out of band.
type AuditEmitter interface {
	Emit(event audit.Event)
}
