// Package keyvault resolves wallets to opaque signing handles. Key material
// never enters this process; a handle is a reference the signing backend
// resolves on its side.
package keyvault

import (
	"context"
	"sync"

	"custos/internal/family"
	"custos/pkg/platform/sentinel"
)

// Handle is an opaque signing capability for one wallet.
type Handle struct {
	ref string
}

// Ref returns the backend identifier for the signer. It carries no key
// material.
func (h Handle) Ref() string { return h.ref }

// IsZero reports whether the handle is unresolved.
func (h Handle) IsZero() bool { return h.ref == "" }

// NewHandle wraps a backend signer reference. Chain and marketplace clients
// use it to construct handles from their own configuration.
func NewHandle(ref string) Handle { return Handle{ref: ref} }

// PassthroughVault derives the signer reference from the wallet reference,
// for signing backends that key their handles by wallet.
type PassthroughVault struct{}

func (PassthroughVault) ResolveSigner(_ context.Context, wallet family.WalletRef) (Handle, error) {
	return Handle{ref: string(wallet)}, nil
}

// StaticVault maps wallets to signer references from configuration. Unknown
// wallets get sentinel.ErrNotFound.
type StaticVault struct {
	mu      sync.RWMutex
	signers map[family.WalletRef]string
}

func NewStaticVault() *StaticVault {
	return &StaticVault{signers: make(map[family.WalletRef]string)}
}

func (v *StaticVault) RegisterSigner(wallet family.WalletRef, ref string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signers[wallet] = ref
}

func (v *StaticVault) ResolveSigner(_ context.Context, wallet family.WalletRef) (Handle, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	ref, ok := v.signers[wallet]
	if !ok {
		return Handle{}, sentinel.ErrNotFound
	}
	return Handle{ref: ref}, nil
}
