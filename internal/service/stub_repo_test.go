package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"loanmarket/internal/models"
	"loanmarket/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
// It implements the full interface but only the subset the service tests
// exercise keeps real state.
type stubRepo struct {
	nextID       uint64
	loansByID    map[uint64]*models.Loan
	loansByKey   map[string]*models.Loan
	explanations map[uint64][]models.RiskExplanation
	transactions map[string]*models.Transaction
	audits       []models.AuditLog
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		loansByID:    map[uint64]*models.Loan{},
		loansByKey:   map[string]*models.Loan{},
		explanations: map[uint64][]models.RiskExplanation{},
		transactions: map[string]*models.Transaction{},
	}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func (s *stubRepo) InsertLoan(ctx context.Context, item *models.Loan) error {
	s.nextID++
	item.ID = s.nextID
	item.CreatedAt = time.Now().UTC()
	copied := *item
	s.loansByID[item.ID] = &copied
	s.loansByKey[item.LoanID] = &copied
	return nil
}

func (s *stubRepo) SaveLoan(ctx context.Context, item *models.Loan) error {
	copied := *item
	s.loansByID[item.ID] = &copied
	s.loansByKey[item.LoanID] = &copied
	return nil
}

func (s *stubRepo) GetLoanByID(ctx context.Context, id uint64) (*models.Loan, error) {
	if loan, ok := s.loansByID[id]; ok {
		copied := *loan
		return &copied, nil
	}
	return nil, nil
}

func (s *stubRepo) GetLoanByLoanID(ctx context.Context, loanID string) (*models.Loan, error) {
	if loan, ok := s.loansByKey[loanID]; ok {
		copied := *loan
		return &copied, nil
	}
	return nil, nil
}

func (s *stubRepo) ListLoans(ctx context.Context, params repository.ListLoansParams) ([]models.Loan, error) {
	var out []models.Loan
	for _, loan := range s.loansByID {
		if params.OriginatorAccount != nil && loan.OriginatorAccount != *params.OriginatorAccount {
			continue
		}
		if params.Status != nil && loan.Status != *params.Status {
			continue
		}
		out = append(out, *loan)
	}
	return out, nil
}

func (s *stubRepo) CountLoans(ctx context.Context, params repository.ListLoansParams) (int64, error) {
	items, _ := s.ListLoans(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) ListMarketplaceLoans(ctx context.Context, params repository.MarketplaceParams) ([]models.Loan, error) {
	var out []models.Loan
	for _, loan := range s.loansByID {
		if loan.Status != models.LoanStatusActive {
			continue
		}
		if params.MaxRiskScore != nil && (loan.RiskScore == nil || *loan.RiskScore > *params.MaxRiskScore) {
			continue
		}
		if params.MinYield != nil && (loan.YieldToMaturity == nil || *loan.YieldToMaturity < *params.MinYield) {
			continue
		}
		if len(params.RiskGrades) > 0 {
			if loan.RiskGrade == nil {
				continue
			}
			found := false
			for _, g := range params.RiskGrades {
				if g == *loan.RiskGrade {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *loan)
	}
	return out, nil
}

func (s *stubRepo) CountMarketplaceLoans(ctx context.Context, params repository.MarketplaceParams) (int64, error) {
	items, _ := s.ListMarketplaceLoans(ctx, params)
	return int64(len(items)), nil
}

func (s *stubRepo) ListStaleActiveLoans(ctx context.Context, before time.Time, limit int) ([]models.Loan, error) {
	var out []models.Loan
	for _, loan := range s.loansByID {
		if loan.Status != models.LoanStatusActive {
			continue
		}
		if loan.LastAssessmentAt != nil && loan.LastAssessmentAt.After(before) {
			continue
		}
		out = append(out, *loan)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *stubRepo) ReplaceRiskExplanations(ctx context.Context, loanID uint64, items []models.RiskExplanation) error {
	s.explanations[loanID] = append([]models.RiskExplanation(nil), items...)
	return nil
}

func (s *stubRepo) ListRiskExplanations(ctx context.Context, loanID uint64) ([]models.RiskExplanation, error) {
	return s.explanations[loanID], nil
}

func (s *stubRepo) InsertTransaction(ctx context.Context, item *models.Transaction) error {
	s.nextID++
	item.ID = s.nextID
	item.InitiatedAt = time.Now().UTC()
	copied := *item
	s.transactions[item.TransactionID] = &copied
	return nil
}

func (s *stubRepo) SaveTransaction(ctx context.Context, item *models.Transaction) error {
	copied := *item
	s.transactions[item.TransactionID] = &copied
	return nil
}

func (s *stubRepo) GetTransactionByTxID(ctx context.Context, txID string) (*models.Transaction, error) {
	if item, ok := s.transactions[txID]; ok {
		copied := *item
		return &copied, nil
	}
	return nil, nil
}

func (s *stubRepo) ListTransactionsByLoan(ctx context.Context, loanID uint64, limit, offset int) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, item := range s.transactions {
		if item.LoanID == loanID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubRepo) InsertAuditLog(ctx context.Context, item *models.AuditLog) error {
	s.audits = append(s.audits, *item)
	return nil
}
