package execution

import (
	"context"

	"github.com/shopspring/decimal"

	"custos/internal/family"
	"custos/internal/keyvault"
)

// FeeInstruction is the platform fee settled atomically with a fee-bearing
// trade. It rides on the trade call itself; there is never a standalone fee
// transaction.
type FeeInstruction struct {
	Amount decimal.Decimal
	Token  string
}

// Order is the marketplace-facing shape of a request.
type Order struct {
	Amount decimal.Decimal
	Token  string
	Params map[string]string
}

// TradeResult is what the marketplace reports for a settled call.
type TradeResult struct {
	TxHash  string
	OrderID string
}

// Marketplace is the trading collaborator. Fee-bearing calls take the fee
// instruction so fee and trade settle in one transaction.
type Marketplace interface {
	Buy(ctx context.Context, signer keyvault.Handle, order Order, fee FeeInstruction) (TradeResult, error)
	MakeOffer(ctx context.Context, signer keyvault.Handle, order Order) (TradeResult, error)
	AcceptOffer(ctx context.Context, signer keyvault.Handle, order Order, fee FeeInstruction) (TradeResult, error)
	CancelListing(ctx context.Context, signer keyvault.Handle, order Order) (TradeResult, error)
	Transfer(ctx context.Context, signer keyvault.Handle, order Order) (TradeResult, error)
	Swap(ctx context.Context, signer keyvault.Handle, order Order) (TradeResult, error)
}

// KeyVault resolves the executing wallet's signing handle.
type KeyVault interface {
	ResolveSigner(ctx context.Context, wallet family.WalletRef) (keyvault.Handle, error)
}
