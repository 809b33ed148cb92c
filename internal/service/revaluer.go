package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Revaluer periodically re-runs assessment and pricing on ACTIVE loans whose
// last assessment has gone stale, so marketplace prices track repayment
// drift and model swaps.
type Revaluer struct {
	Loans      *LoanService
	StaleAfter time.Duration
	BatchSize  int
	Logger     *zap.Logger
}

// Run processes one batch of stale loans. Per-loan failures are logged and
// skipped; one bad loan never stalls the sweep.
func (r *Revaluer) Run(ctx context.Context) {
	if r == nil || r.Loans == nil || r.Loans.Repo == nil {
		return
	}
	staleAfter := r.StaleAfter
	if staleAfter <= 0 {
		staleAfter = 24 * time.Hour
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}

	cutoff := time.Now().UTC().Add(-staleAfter)
	loans, err := r.Loans.Repo.ListStaleActiveLoans(ctx, cutoff, batch)
	if err != nil {
		if r.Logger != nil {
			r.Logger.Error("listing stale loans failed", zap.Error(err))
		}
		return
	}
	if len(loans) == 0 {
		return
	}

	revalued := 0
	for i := range loans {
		loan := loans[i]
		if err := r.Loans.processLoan(ctx, &loan); err != nil {
			if r.Logger != nil {
				r.Logger.Warn("revaluation failed",
					zap.String("loan_id", loan.LoanID), zap.Error(err))
			}
			continue
		}
		revalued++
	}
	if r.Logger != nil {
		r.Logger.Info("revaluation sweep done",
			zap.Int("candidates", len(loans)),
			zap.Int("revalued", revalued))
	}
}
