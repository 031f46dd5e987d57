package audit

import (
	"time"

	"github.com/shopspring/decimal"

	id "custos/pkg/domain"
)

// Decision classifies how an authorization attempt ended.
const (
	DecisionAuthorized = "authorized"
	DecisionDenied     = "denied"
	DecisionFailed     = "failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp   time.Time
	DependentID id.DependentID
	Action      string
	Category    id.Category
	Amount      decimal.Decimal
	Token       string
	Decision    string
	Reason      string
	RequestID   string
}
