package gas

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"custos/internal/family"
	"custos/internal/gas/metrics"
	dErrors "custos/pkg/domain-errors"
)

// Sponsor tops up a dependent wallet from the guardian wallet when the
// dependent cannot cover transaction gas. EnsureGas does not return until the
// top-up is final: execution must never race an unconfirmed funding transfer.
type Sponsor struct {
	chain           ChainRPC
	vault           KeyVault
	logger          *slog.Logger
	metrics         *metrics.Metrics
	sponsorAmount   decimal.Decimal
	finalityTimeout time.Duration
}

// NewSponsor constructs a Sponsor. sponsorAmount is the fixed top-up size;
// finalityTimeout bounds the post-transfer confirmation wait. metrics may be
// nil.
func NewSponsor(chain ChainRPC, vault KeyVault, logger *slog.Logger, m *metrics.Metrics, sponsorAmount decimal.Decimal, finalityTimeout time.Duration) *Sponsor {
	return &Sponsor{
		chain:           chain,
		vault:           vault,
		logger:          logger,
		metrics:         m,
		sponsorAmount:   sponsorAmount,
		finalityTimeout: finalityTimeout,
	}
}

// EnsureGas guarantees the executing wallet holds at least minThreshold of
// the native token before returning. When a top-up is needed it is funded by
// sponsorWallet and confirmed to finality; a failure at any point means the
// caller must not execute.
func (s *Sponsor) EnsureGas(ctx context.Context, executing, sponsorWallet family.WalletRef, minThreshold decimal.Decimal) error {
	balance, err := s.chain.NativeBalance(ctx, executing)
	if err != nil {
		s.metrics.IncrementSponsorship("failed")
		return dErrors.New(dErrors.CodeExternalServiceFailure, fmt.Sprintf("query executing wallet balance: %v", err))
	}
	if balance.GreaterThanOrEqual(minThreshold) {
		s.metrics.IncrementSponsorship("skipped")
		return nil
	}

	sponsorBalance, err := s.chain.NativeBalance(ctx, sponsorWallet)
	if err != nil {
		s.metrics.IncrementSponsorship("failed")
		return dErrors.New(dErrors.CodeExternalServiceFailure, fmt.Sprintf("query sponsor wallet balance: %v", err))
	}
	if sponsorBalance.LessThan(s.sponsorAmount) {
		s.metrics.IncrementSponsorship("insufficient")
		return dErrors.New(dErrors.CodeInsufficientGuardianGas, "guardian wallet cannot cover the gas top-up")
	}

	signer, err := s.vault.ResolveSigner(ctx, sponsorWallet)
	if err != nil {
		s.metrics.IncrementSponsorship("failed")
		return dErrors.New(dErrors.CodeExternalServiceFailure, fmt.Sprintf("resolve sponsor signer: %v", err))
	}

	start := time.Now()
	txHash, err := s.chain.SendNative(ctx, signer, executing, s.sponsorAmount)
	if err != nil {
		s.metrics.IncrementSponsorship("failed")
		return dErrors.New(dErrors.CodeExternalServiceFailure, fmt.Sprintf("send gas top-up: %v", err))
	}

	s.logger.InfoContext(ctx, "gas top-up sent, waiting for finality",
		"tx_hash", txHash,
		"amount", s.sponsorAmount.String(),
	)

	fctx, cancel := context.WithTimeout(ctx, s.finalityTimeout)
	defer cancel()
	if err := s.chain.WaitForFinality(fctx, txHash); err != nil {
		s.metrics.IncrementSponsorship("failed")
		return dErrors.New(dErrors.CodeExternalServiceFailure, fmt.Sprintf("gas top-up not final: %v", err))
	}

	s.metrics.IncrementSponsorship("sponsored")
	s.metrics.ObserveSponsorshipDuration(time.Since(start))
	return nil
}
