package authorization

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"custos/internal/audit"
	"custos/internal/authorization/metrics"
	"custos/internal/execution"
	"custos/internal/family"
	"custos/internal/ledger"
	"custos/internal/policy"
	id "custos/pkg/domain"
	dErrors "custos/pkg/domain-errors"
	"custos/pkg/requestcontext"
)

// Config tunes the authorizer.
type Config struct {
	// SerializeRequests enables keyed locks: one per dependent around the
	// cap-check-to-record window, one per family around gas sponsorship.
	// With it off, two in-flight requests can both pass the daily cap check
	// before either records.
	SerializeRequests bool

	// MinGasThreshold is the native balance below which the executing wallet
	// gets a gas top-up before execution.
	MinGasThreshold decimal.Decimal
}

// Service is the spending authorizer. It owns the decision pipeline: policy,
// per-transaction cap, daily cap, gas sponsorship, execution, and ledger
// recording on success.
type Service struct {
	families FamilyResolver
	policies PolicySource
	ledger   Ledger
	sponsor  GasSponsor
	executor TradeExecutor
	audit    AuditEmitter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	cfg      Config

	dependentLocks *keyedLocks
	familyLocks    *keyedLocks
}

// NewService constructs the authorizer. audit and m may be nil.
func NewService(families FamilyResolver, policies PolicySource, spendLedger Ledger, sponsor GasSponsor, executor TradeExecutor, auditEmitter AuditEmitter, logger *slog.Logger, m *metrics.Metrics, cfg Config) *Service {
	return &Service{
		families: families,
		policies: policies,
		ledger:   spendLedger,
		sponsor:  sponsor,
		executor: executor,
		audit:    auditEmitter,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("custos/authorization"),
		cfg:      cfg,

		dependentLocks: newKeyedLocks(),
		familyLocks:    newKeyedLocks(),
	}
}

// AuthorizeAndExecute runs the full pipeline for one spending attempt.
// Denials and failures come back as code-carrying errors; there is no
// automatic retry on any path.
func (s *Service) AuthorizeAndExecute(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "authorization.authorize", trace.WithAttributes(
		attribute.String("dependent_id", req.DependentID.String()),
		attribute.String("category", string(req.Category)),
		attribute.String("action_kind", string(req.ActionKind)),
	))
	defer span.End()

	result, err := s.authorize(ctx, req)
	outcome := "authorized"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
		span.SetStatus(codes.Error, outcome)
	}
	s.metrics.ObserveOutcome(outcome, time.Since(start))
	return result, err
}

func (s *Service) authorize(ctx context.Context, req Request) (Result, error) {
	if req.Amount.Sign() <= 0 {
		return Result{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}

	spendCtx, err := s.resolveFamily(ctx, req.DependentID)
	if err != nil {
		return Result{}, err
	}

	pol, err := s.policies.Get(ctx, req.DependentID)
	if err != nil {
		return Result{}, err
	}

	if err := s.checkPolicy(ctx, req, pol, spendCtx); err != nil {
		s.emit(ctx, req, audit.DecisionDenied, err.Error())
		return Result{}, err
	}

	if s.cfg.SerializeRequests {
		release := s.dependentLocks.Acquire(req.DependentID.String())
		defer release()
	}

	decision, err := s.checkDailyCap(ctx, req, pol, spendCtx)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeLimitExceeded) {
			s.emit(ctx, req, audit.DecisionDenied, err.Error())
			return remainingOnly(decision), err
		}
		return Result{}, err
	}

	if err := s.ensureGas(ctx, spendCtx); err != nil {
		s.emit(ctx, req, audit.DecisionFailed, "gas sponsorship failed")
		return Result{}, err
	}

	execResult := s.execute(ctx, req, spendCtx)
	if !execResult.Success {
		s.emit(ctx, req, audit.DecisionFailed, "execution failed")
		return Result{RecordID: execResult.RecordID}, execResult.Err
	}

	if err := s.ledger.Record(ctx, ledger.Entry{
		DependentID:     req.DependentID,
		Category:        req.Category,
		OriginalAmount:  req.Amount,
		OriginalToken:   req.Token,
		ReferenceAmount: decision.ConvertedAmount,
		TxHash:          execResult.TxHash,
	}); err != nil {
		// The trade already settled; a ledger write failure is an
		// accounting gap, not a spend failure.
		s.logger.ErrorContext(ctx, "settled spend not recorded in ledger",
			"dependent_id", req.DependentID,
			"record_id", execResult.RecordID,
			"error", err,
		)
	}

	s.emit(ctx, req, audit.DecisionAuthorized, "")

	result := Result{
		Success:  true,
		RecordID: execResult.RecordID,
		TxHash:   execResult.TxHash,
		OrderID:  execResult.OrderID,
	}
	if !decision.Unlimited {
		remaining := decimal.Max(decimal.Zero, decision.Remaining.Sub(decision.ConvertedAmount))
		result.Remaining = &remaining
	}
	return result, nil
}

func (s *Service) resolveFamily(ctx context.Context, dependentID id.DependentID) (family.SpendContext, error) {
	ctx, span := s.tracer.Start(ctx, "authorization.resolve_family")
	defer span.End()
	return s.families.Resolve(ctx, dependentID)
}

// checkPolicy enforces category enablement and the allow-lists that apply to
// the request's category.
func (s *Service) checkPolicy(ctx context.Context, req Request, pol policy.Policy, spendCtx family.SpendContext) error {
	_, span := s.tracer.Start(ctx, "authorization.check_policy")
	defer span.End()

	if !pol.Enabled(req.Category) {
		return dErrors.New(dErrors.CodePermissionDenied, "category is disabled: "+string(req.Category))
	}

	switch req.Category {
	case id.CategoryTrading:
		if !pol.TokenAllowed(req.Token) {
			return dErrors.New(dErrors.CodePermissionDenied, "token is not on the allow-list: "+req.Token)
		}
	case id.CategoryNFT:
		if collection := req.Params["collection"]; !pol.CollectionAllowed(collection) {
			return dErrors.New(dErrors.CodePermissionDenied, "collection is not on the allow-list")
		}
	case id.CategoryTransfer:
		recipient := req.Params["recipient"]
		if !pol.RecipientAllowed(recipient, string(spendCtx.Family.GuardianWallet)) {
			return dErrors.New(dErrors.CodePermissionDenied, "recipient is not on the allow-list")
		}
	}
	return nil
}

// checkDailyCap converts the amount and enforces both caps. The per-tx cap
// is checked against the converted amount so every cap reads in the family
// reference currency.
func (s *Service) checkDailyCap(ctx context.Context, req Request, pol policy.Policy, spendCtx family.SpendContext) (ledger.Decision, error) {
	ctx, span := s.tracer.Start(ctx, "authorization.check_caps")
	defer span.End()

	decision, err := s.ledger.CanSpend(ctx, req.DependentID, req.Category, req.Amount, req.Token, spendCtx.Family.ReferenceCurrency, pol.DailyCap(req.Category))
	if err != nil {
		return ledger.Decision{}, err
	}

	if !pol.WithinPerTxCap(req.Category, decision.ConvertedAmount) {
		return decision, dErrors.New(dErrors.CodeLimitExceeded, "amount exceeds the per-transaction cap")
	}
	if !decision.Allowed {
		return decision, dErrors.New(dErrors.CodeLimitExceeded, "amount exceeds today's remaining allowance")
	}
	return decision, nil
}

func (s *Service) ensureGas(ctx context.Context, spendCtx family.SpendContext) error {
	ctx, span := s.tracer.Start(ctx, "authorization.ensure_gas")
	defer span.End()

	if s.cfg.SerializeRequests {
		release := s.familyLocks.Acquire(spendCtx.Family.ID.String())
		defer release()
	}
	return s.sponsor.EnsureGas(ctx, spendCtx.Dependent.Wallet, spendCtx.Family.GuardianWallet, s.cfg.MinGasThreshold)
}

func (s *Service) execute(ctx context.Context, req Request, spendCtx family.SpendContext) execution.Result {
	ctx, span := s.tracer.Start(ctx, "authorization.execute")
	defer span.End()

	return s.executor.Execute(ctx, execution.Request{
		DependentID: req.DependentID,
		Wallet:      spendCtx.Dependent.Wallet,
		ActionKind:  req.ActionKind,
		Category:    req.Category,
		Amount:      req.Amount,
		Token:       req.Token,
		Params:      req.Params,
	})
}

func (s *Service) emit(ctx context.Context, req Request, decision, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Emit(audit.Event{
		DependentID: req.DependentID,
		Action:      string(req.ActionKind),
		Category:    req.Category,
		Amount:      req.Amount,
		Token:       req.Token,
		Decision:    decision,
		Reason:      reason,
		RequestID:   requestcontext.RequestID(ctx),
	})
}

// remainingOnly surfaces the pre-request headroom on a denial.
func remainingOnly(decision ledger.Decision) Result {
	if decision.Unlimited {
		return Result{}
	}
	remaining := decision.Remaining
	return Result{Remaining: &remaining}
}
