package execution

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custos/internal/family"
	"custos/internal/keyvault"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/platform/sentinel"
)

const testWallet = family.WalletRef("wallet:dependent")

type marketCall struct {
	action ActionKind
	order  Order
	fee    *FeeInstruction
}

type stubMarket struct {
	calls  []marketCall
	result TradeResult
	err    error
	onCall func()
}

func (m *stubMarket) record(action ActionKind, order Order, fee *FeeInstruction) (TradeResult, error) {
	m.calls = append(m.calls, marketCall{action: action, order: order, fee: fee})
	if m.onCall != nil {
		m.onCall()
	}
	return m.result, m.err
}

func (m *stubMarket) Buy(_ context.Context, _ keyvault.Handle, order Order, fee FeeInstruction) (TradeResult, error) {
	return m.record(ActionBuy, order, &fee)
}

func (m *stubMarket) MakeOffer(_ context.Context, _ keyvault.Handle, order Order) (TradeResult, error) {
	return m.record(ActionMakeOffer, order, nil)
}

func (m *stubMarket) AcceptOffer(_ context.Context, _ keyvault.Handle, order Order, fee FeeInstruction) (TradeResult, error) {
	return m.record(ActionAcceptOffer, order, &fee)
}

func (m *stubMarket) CancelListing(_ context.Context, _ keyvault.Handle, order Order) (TradeResult, error) {
	return m.record(ActionCancelListing, order, nil)
}

func (m *stubMarket) Transfer(_ context.Context, _ keyvault.Handle, order Order) (TradeResult, error) {
	return m.record(ActionDirectTransfer, order, nil)
}

func (m *stubMarket) Swap(_ context.Context, _ keyvault.Handle, order Order) (TradeResult, error) {
	return m.record(ActionSwap, order, nil)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestExecutor(store Store, market Marketplace) *Executor {
	vault := keyvault.NewStaticVault()
	vault.RegisterSigner(testWallet, "signer-dep")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExecutor(store, vault, market, logger, nil, dec("0.02"))
}

func buyRequest(amount string) Request {
	return Request{
		DependentID: id.DependentID(uuid.New()),
		Wallet:      testWallet,
		ActionKind:  ActionBuy,
		Category:    id.CategoryTrading,
		Amount:      dec(amount),
		Token:       "USDC",
		Params:      map[string]string{"listing_id": "lst-1"},
	}
}

func TestExecute_FeeOnTopForBuy(t *testing.T) {
	store := NewInMemoryStore()
	market := &stubMarket{result: TradeResult{TxHash: "0xbuy", OrderID: "order-1"}}
	e := newTestExecutor(store, market)

	res := e.Execute(context.Background(), buyRequest("25"))
	require.True(t, res.Success)
	assert.Equal(t, "0xbuy", res.TxHash)

	require.Len(t, market.calls, 1)
	call := market.calls[0]
	require.NotNil(t, call.fee)
	assert.True(t, call.fee.Amount.Equal(dec("0.5")), "fee is 2%% of the price, got %s", call.fee.Amount)
	assert.True(t, call.order.Amount.Equal(dec("25")), "fee is on top, never deducted from the price")

	rec, err := e.Record(context.Background(), res.RecordID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, rec.Status)
	assert.True(t, rec.FeeAmount.Equal(dec("0.5")))
}

func TestExecute_NoFeeForNonFeeBearingActions(t *testing.T) {
	for _, kind := range []ActionKind{ActionMakeOffer, ActionCancelListing, ActionDirectTransfer, ActionSwap} {
		store := NewInMemoryStore()
		market := &stubMarket{result: TradeResult{TxHash: "0xtx"}}
		e := newTestExecutor(store, market)

		req := buyRequest("25")
		req.ActionKind = kind
		res := e.Execute(context.Background(), req)
		require.True(t, res.Success, kind)

		require.Len(t, market.calls, 1)
		assert.Nil(t, market.calls[0].fee, "%s must not carry a fee instruction", kind)

		rec, err := e.Record(context.Background(), res.RecordID)
		require.NoError(t, err)
		assert.True(t, rec.FeeAmount.IsZero(), kind)
	}
}

func TestExecute_PendingRecordExistsBeforeMarketplaceCall(t *testing.T) {
	store := NewInMemoryStore()
	market := &stubMarket{result: TradeResult{TxHash: "0xtx"}}
	e := newTestExecutor(store, market)

	var observed Status
	req := buyRequest("10")
	market.onCall = func() {
		rec, err := store.Get(context.Background(), pendingRecordID(t, store))
		require.NoError(t, err)
		observed = rec.Status
	}

	res := e.Execute(context.Background(), req)
	require.True(t, res.Success)
	assert.Equal(t, StatusPending, observed, "record must be durable before the external call")
}

// pendingRecordID finds the single record in the store.
func pendingRecordID(t *testing.T, store *InMemoryStore) id.RecordID {
	t.Helper()
	store.mu.RLock()
	defer store.mu.RUnlock()
	require.Len(t, store.records, 1)
	for recID := range store.records {
		return recID
	}
	panic("unreachable")
}

func TestExecute_MarketplaceFailureTerminalizesRecord(t *testing.T) {
	store := NewInMemoryStore()
	market := &stubMarket{err: dErrors.New(dErrors.CodeInsufficientFunds, "balance too low")}
	e := newTestExecutor(store, market)

	res := e.Execute(context.Background(), buyRequest("25"))
	require.False(t, res.Success)
	assert.True(t, dErrors.HasCode(res.Err, dErrors.CodeInsufficientFunds))

	rec, err := e.Record(context.Background(), res.RecordID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, rec.Status)
	assert.NotEmpty(t, rec.Detail)
}

func TestExecute_PanicLeavesNoPendingRecord(t *testing.T) {
	store := NewInMemoryStore()
	market := &stubMarket{onCall: func() { panic("marketplace client bug") }}
	e := newTestExecutor(store, market)

	var res Result
	require.NotPanics(t, func() { res = e.Execute(context.Background(), buyRequest("25")) })
	require.False(t, res.Success)
	assert.True(t, dErrors.HasCode(res.Err, dErrors.CodeInternal))

	rec, err := e.Record(context.Background(), res.RecordID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, rec.Status, "panic path must still terminalize the record")
}

func TestTerminalTransitionIsOneWay(t *testing.T) {
	store := NewInMemoryStore()
	market := &stubMarket{result: TradeResult{TxHash: "0xtx", OrderID: "order-1"}}
	e := newTestExecutor(store, market)

	res := e.Execute(context.Background(), buyRequest("25"))
	require.True(t, res.Success)

	err := store.Finalize(context.Background(), res.RecordID, StatusError, "", "", "late failure", time.Now())
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	first, err := e.Record(context.Background(), res.RecordID)
	require.NoError(t, err)
	second, err := e.Record(context.Background(), res.RecordID)
	require.NoError(t, err)
	assert.Equal(t, first, second, "reads after a terminal transition are idempotent")
}

func TestExecute_ExactlyOneRecordPerAction(t *testing.T) {
	store := NewInMemoryStore()
	market := &stubMarket{result: TradeResult{TxHash: "0xtx"}}
	e := newTestExecutor(store, market)

	res := e.Execute(context.Background(), buyRequest("25"))
	require.True(t, res.Success)

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Len(t, store.records, 1, "one action, one record, fee included on it")
}
