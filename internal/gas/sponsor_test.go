package gas

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/family"
	"custos/internal/keyvault"
	dErrors "custos/pkg/domain-errors"
)

const (
	dependentWallet = family.WalletRef("wallet:dependent")
	guardianWallet  = family.WalletRef("wallet:guardian")
)

type sentTransfer struct {
	signer keyvault.Handle
	to     family.WalletRef
	amount decimal.Decimal
}

type stubChain struct {
	balances   map[family.WalletRef]decimal.Decimal
	balanceErr error
	sendErr    error
	sent       []sentTransfer
	waited     []string
	waitFn     func(ctx context.Context, txHash string) error
}

func (c *stubChain) NativeBalance(_ context.Context, wallet family.WalletRef) (decimal.Decimal, error) {
	if c.balanceErr != nil {
		return decimal.Zero, c.balanceErr
	}
	return c.balances[wallet], nil
}

func (c *stubChain) SendNative(_ context.Context, signer keyvault.Handle, to family.WalletRef, amount decimal.Decimal) (string, error) {
	if c.sendErr != nil {
		return "", c.sendErr
	}
	c.sent = append(c.sent, sentTransfer{signer: signer, to: to, amount: amount})
	return "0xtopup", nil
}

func (c *stubChain) WaitForFinality(ctx context.Context, txHash string) error {
	c.waited = append(c.waited, txHash)
	if c.waitFn != nil {
		return c.waitFn(ctx, txHash)
	}
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestSponsor(chain *stubChain) *Sponsor {
	vault := keyvault.NewStaticVault()
	vault.RegisterSigner(guardianWallet, "signer-guardian")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSponsor(chain, vault, logger, nil, dec("0.01"), time.Second)
}

func TestEnsureGas_SkipsWhenBalanceSufficient(t *testing.T) {
	chain := &stubChain{balances: map[family.WalletRef]decimal.Decimal{
		dependentWallet: dec("0.005"),
	}}
	s := newTestSponsor(chain)

	err := s.EnsureGas(context.Background(), dependentWallet, guardianWallet, dec("0.002"))
	require.NoError(t, err)
	assert.Empty(t, chain.sent, "no transfer when the wallet already holds enough gas")
}

func TestEnsureGas_TopsUpAndWaitsForFinality(t *testing.T) {
	chain := &stubChain{balances: map[family.WalletRef]decimal.Decimal{
		dependentWallet: dec("0.0001"),
		guardianWallet:  dec("1"),
	}}
	s := newTestSponsor(chain)

	err := s.EnsureGas(context.Background(), dependentWallet, guardianWallet, dec("0.002"))
	require.NoError(t, err)

	require.Len(t, chain.sent, 1)
	transfer := chain.sent[0]
	assert.Equal(t, dependentWallet, transfer.to)
	assert.True(t, transfer.amount.Equal(dec("0.01")), "top-up is the fixed sponsor amount")
	assert.Equal(t, "signer-guardian", transfer.signer.Ref())
	assert.Equal(t, []string{"0xtopup"}, chain.waited, "EnsureGas must not return before finality")
}

func TestEnsureGas_InsufficientGuardianGas(t *testing.T) {
	chain := &stubChain{balances: map[family.WalletRef]decimal.Decimal{
		dependentWallet: dec("0.0001"),
		guardianWallet:  dec("0.003"),
	}}
	s := newTestSponsor(chain)

	err := s.EnsureGas(context.Background(), dependentWallet, guardianWallet, dec("0.002"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientGuardianGas))
	assert.Empty(t, chain.sent, "no partial transfer when the sponsor cannot cover the top-up")
}

func TestEnsureGas_NeverSendsMoreThanSponsorBalance(t *testing.T) {
	for _, guardianBalance := range []string{"0.01", "0.5", "100"} {
		chain := &stubChain{balances: map[family.WalletRef]decimal.Decimal{
			dependentWallet: dec("0"),
			guardianWallet:  dec(guardianBalance),
		}}
		s := newTestSponsor(chain)

		err := s.EnsureGas(context.Background(), dependentWallet, guardianWallet, dec("0.002"))
		require.NoError(t, err, "balance %s", guardianBalance)
		require.Len(t, chain.sent, 1)
		assert.True(t, chain.sent[0].amount.LessThanOrEqual(dec(guardianBalance)),
			"sent %s with sponsor balance %s", chain.sent[0].amount, guardianBalance)
	}
}

func TestEnsureGas_BoundedFinalityWait(t *testing.T) {
	chain := &stubChain{
		balances: map[family.WalletRef]decimal.Decimal{
			dependentWallet: dec("0"),
			guardianWallet:  dec("1"),
		},
		waitFn: func(ctx context.Context, _ string) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
	vault := keyvault.NewStaticVault()
	vault.RegisterSigner(guardianWallet, "signer-guardian")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewSponsor(chain, vault, logger, nil, dec("0.01"), 20*time.Millisecond)

	start := time.Now()
	err := s.EnsureGas(context.Background(), dependentWallet, guardianWallet, dec("0.002"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalServiceFailure))
	assert.Less(t, time.Since(start), time.Second, "finality wait must respect the configured bound")
}

func TestEnsureGas_BalanceQueryFailure(t *testing.T) {
	chain := &stubChain{balanceErr: errors.New("rpc: connection refused")}
	s := newTestSponsor(chain)

	err := s.EnsureGas(context.Background(), dependentWallet, guardianWallet, dec("0.002"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalServiceFailure))
	assert.Empty(t, chain.sent)
}

func TestEnsureGas_UnknownSignerFailsClosed(t *testing.T) {
	chain := &stubChain{balances: map[family.WalletRef]decimal.Decimal{
		dependentWallet: dec("0"),
		guardianWallet:  dec("1"),
	}}
	vault := keyvault.NewStaticVault()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewSponsor(chain, vault, logger, nil, dec("0.01"), time.Second)

	err := s.EnsureGas(context.Background(), dependentWallet, guardianWallet, dec("0.002"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExternalServiceFailure))
	assert.Empty(t, chain.sent, "no transfer without a resolved signer")
}
