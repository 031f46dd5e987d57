package gas

import (
	"context"

	"github.com/shopspring/decimal"

	"custos/internal/family"
	"custos/internal/keyvault"
)

// ChainRPC is the chain-node surface the sponsor needs. WaitForFinality
// blocks until the transaction is final or ctx expires; implementations poll
// at their configured interval.
type ChainRPC interface {
	NativeBalance(ctx context.Context, wallet family.WalletRef) (decimal.Decimal, error)
	SendNative(ctx context.Context, signer keyvault.Handle, to family.WalletRef, amount decimal.Decimal) (txHash string, err error)
	WaitForFinality(ctx context.Context, txHash string) error
}

// KeyVault resolves a wallet to its signing handle.
type KeyVault interface {
	ResolveSigner(ctx context.Context, wallet family.WalletRef) (keyvault.Handle, error)
}
