package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"custos/internal/execution/metrics"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

// Executor settles trades through the marketplace and keeps a durable record
// of every attempt. The marketplace client is injected; the executor holds
// no process-global collaborator state.
type Executor struct {
	store   Store
	vault   KeyVault
	market  Marketplace
	logger  *slog.Logger
	metrics *metrics.Metrics
	feeRate decimal.Decimal
}

// NewExecutor constructs an Executor. feeRate is the platform fee fraction
// applied on top of fee-bearing actions. metrics may be nil.
func NewExecutor(store Store, vault KeyVault, market Marketplace, logger *slog.Logger, m *metrics.Metrics, feeRate decimal.Decimal) *Executor {
	return &Executor{
		store:   store,
		vault:   vault,
		market:  market,
		logger:  logger,
		metrics: m,
		feeRate: feeRate,
	}
}

// Execute runs one marketplace action. A pending record is written before
// any external call and is transitioned to a terminal state on every path,
// including panic: no record is ever abandoned pending.
func (e *Executor) Execute(ctx context.Context, req Request) (res Result) {
	fee := decimal.Zero
	if req.ActionKind.feeBearing() {
		fee = req.Amount.Mul(e.feeRate)
	}

	rec := TransactionRecord{
		ID:          id.NewRecordID(),
		DependentID: req.DependentID,
		ActionKind:  req.ActionKind,
		Category:    req.Category,
		Amount:      req.Amount,
		Token:       req.Token,
		FeeAmount:   fee,
		Status:      StatusPending,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := e.store.Create(ctx, rec); err != nil {
		return Result{Err: dErrors.New(dErrors.CodeInternal, fmt.Sprintf("create transaction record: %v", err))}
	}
	res.RecordID = rec.ID

	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "panic during execution",
				"record_id", rec.ID,
				"action_kind", req.ActionKind,
				"panic", r,
			)
			e.finalize(ctx, rec.ID, StatusError, "", "", fmt.Sprintf("internal failure: %v", r))
			e.metrics.IncrementExecution(string(req.ActionKind), "panic")
			res = Result{RecordID: rec.ID, Err: dErrors.New(dErrors.CodeInternal, "execution aborted")}
		}
	}()

	signer, err := e.vault.ResolveSigner(ctx, req.Wallet)
	if err != nil {
		e.finalize(ctx, rec.ID, StatusError, "", "", "signer resolution failed")
		e.metrics.IncrementExecution(string(req.ActionKind), "error")
		return Result{RecordID: rec.ID, Err: dErrors.New(dErrors.CodeExternalServiceFailure, fmt.Sprintf("resolve signer: %v", err))}
	}

	order := Order{Amount: req.Amount, Token: req.Token, Params: req.Params}
	feeInstruction := FeeInstruction{Amount: fee, Token: req.Token}

	start := time.Now()
	var trade TradeResult
	switch req.ActionKind {
	case ActionBuy:
		trade, err = e.market.Buy(ctx, signer, order, feeInstruction)
	case ActionMakeOffer:
		trade, err = e.market.MakeOffer(ctx, signer, order)
	case ActionAcceptOffer:
		trade, err = e.market.AcceptOffer(ctx, signer, order, feeInstruction)
	case ActionCancelListing:
		trade, err = e.market.CancelListing(ctx, signer, order)
	case ActionDirectTransfer:
		trade, err = e.market.Transfer(ctx, signer, order)
	case ActionSwap:
		trade, err = e.market.Swap(ctx, signer, order)
	default:
		err = dErrors.New(dErrors.CodeInvalidInput, "unknown action kind: "+string(req.ActionKind))
	}
	e.metrics.ObserveMarketplaceLatency(string(req.ActionKind), time.Since(start))

	if err != nil {
		domainErr := asDomainError(err)
		e.finalize(ctx, rec.ID, StatusError, "", "", domainErr.Error())
		e.metrics.IncrementExecution(string(req.ActionKind), "error")
		return Result{RecordID: rec.ID, Err: domainErr}
	}

	e.finalize(ctx, rec.ID, StatusSuccess, trade.TxHash, trade.OrderID, "")
	e.metrics.IncrementExecution(string(req.ActionKind), "success")
	return Result{Success: true, RecordID: rec.ID, TxHash: trade.TxHash, OrderID: trade.OrderID}
}

// Record returns a transaction record by id. Terminal records are immutable,
// so repeated reads always observe the same state.
func (e *Executor) Record(ctx context.Context, recordID id.RecordID) (TransactionRecord, error) {
	return e.store.Get(ctx, recordID)
}

func (e *Executor) finalize(ctx context.Context, recordID id.RecordID, status Status, txHash, orderID, detail string) {
	if err := e.store.Finalize(ctx, recordID, status, txHash, orderID, detail, requestcontext.Now(ctx)); err != nil {
		e.logger.ErrorContext(ctx, "failed to finalize transaction record",
			"record_id", recordID,
			"status", status,
			"error", err,
		)
	}
}

// asDomainError passes domain errors through and classifies everything else
// as an external collaborator failure.
func asDomainError(err error) error {
	var de dErrors.DomainError
	if errors.As(err, &de) {
		return de
	}
	return dErrors.New(dErrors.CodeExternalServiceFailure, err.Error())
}
