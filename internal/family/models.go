package family

import (
	id "custos/pkg/domain"
)

// WalletRef is an opaque reference into the external key vault. The engine
// never sees key material; the vault resolves a ref to a signing handle at
// execution time.
type WalletRef string

// Family groups a guardian and their dependents. The guardian wallet funds
// gas sponsorship; the reference currency is the settlement stablecoin all
// cross-token amounts are normalized into before cap checks.
type Family struct {
	ID                id.FamilyID `json:"id"`
	GuardianWallet    WalletRef   `json:"guardian_wallet"`
	ReferenceCurrency string      `json:"reference_currency"`
}

// Dependent is a child account with its own executing wallet.
type Dependent struct {
	ID       id.DependentID `json:"id"`
	FamilyID id.FamilyID    `json:"family_id"`
	Wallet   WalletRef      `json:"wallet"`
	Nickname string         `json:"nickname"`
}

// SpendContext bundles everything the authorizer needs to know about who is
// spending: the dependent's executing wallet, the sponsoring guardian wallet,
// and the family's reference currency.
type SpendContext struct {
	Dependent Dependent
	Family    Family
}
