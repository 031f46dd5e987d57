package authorization

import (
	"github.com/shopspring/decimal"

	"custos/internal/execution"
	id "custos/pkg/domain"
)

// Request is one spending attempt by a dependent.
type Request struct {
	DependentID id.DependentID
	Category    id.Category
	ActionKind  execution.ActionKind
	Amount      decimal.Decimal
	Token       string
	Params      map[string]string
}

// Result is the outcome of an authorization attempt. Remaining is the daily
// headroom in the family reference currency and is set whenever a daily cap
// applies; denied requests carry the headroom that was left before them.
type Result struct {
	Success   bool
	RecordID  id.RecordID
	TxHash    string
	OrderID   string
	Remaining *decimal.Decimal
}
