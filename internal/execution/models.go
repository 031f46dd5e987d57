package execution

import (
	"time"

	"github.com/shopspring/decimal"

	"custos/internal/family"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
)

// ActionKind identifies the marketplace operation being executed.
type ActionKind string

const (
	ActionBuy            ActionKind = "buy"
	ActionMakeOffer      ActionKind = "make_offer"
	ActionAcceptOffer    ActionKind = "accept_offer"
	ActionCancelListing  ActionKind = "cancel_listing"
	ActionDirectTransfer ActionKind = "direct_transfer"
	ActionSwap           ActionKind = "swap"
)

// ActionKinds lists every supported action.
var ActionKinds = []ActionKind{
	ActionBuy,
	ActionMakeOffer,
	ActionAcceptOffer,
	ActionCancelListing,
	ActionDirectTransfer,
	ActionSwap,
}

// ParseActionKind validates a raw action kind string.
func ParseActionKind(raw string) (ActionKind, error) {
	for _, k := range ActionKinds {
		if raw == string(k) {
			return k, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown action kind: "+raw)
}

// feeBearing reports whether the action settles a platform fee on top of the
// trade amount.
func (k ActionKind) feeBearing() bool {
	return k == ActionBuy || k == ActionAcceptOffer
}

// Status is the lifecycle state of a transaction record. pending transitions
// once to success or error and never moves again.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool { return s == StatusSuccess || s == StatusError }

// TransactionRecord is the durable trace of one execution attempt. It is
// created pending before any external call so a crash can never lose the
// fact that an attempt happened.
type TransactionRecord struct {
	ID          id.RecordID
	DependentID id.DependentID
	ActionKind  ActionKind
	Category    id.Category
	Amount      decimal.Decimal
	Token       string
	FeeAmount   decimal.Decimal
	Status      Status
	TxHash      string
	OrderID     string
	Detail      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// Request describes one execution. Params carries action-specific fields
// (listing id, token id, recipient wallet) the marketplace understands.
type Request struct {
	DependentID id.DependentID
	Wallet      family.WalletRef
	ActionKind  ActionKind
	Category    id.Category
	Amount      decimal.Decimal
	Token       string
	Params      map[string]string
}

// Result is the outcome of Execute. Err is nil iff Success.
type Result struct {
	Success  bool
	RecordID id.RecordID
	TxHash   string
	OrderID  string
	Err      error
}
