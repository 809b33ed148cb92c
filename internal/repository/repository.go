package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"loanmarket/internal/models"
)

// MarketplaceParams filters the investor-facing loan search. Pointer fields
// are optional; nil means "no constraint".
type MarketplaceParams struct {
	Limit  int
	Offset int

	MinPrincipal    *float64
	MaxPrincipal    *float64
	MinInterestRate *float64
	MaxInterestRate *float64
	RiskGrades      []string
	MinYield        *float64
	MaxYield        *float64
	MaxRiskScore    *float64

	OrderBy string
	Asc     *bool
}

type ListLoansParams struct {
	Limit             int
	Offset            int
	OriginatorAccount *string
	Status            *string
}

type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Loans.
	InsertLoan(ctx context.Context, item *models.Loan) error
	SaveLoan(ctx context.Context, item *models.Loan) error
	GetLoanByID(ctx context.Context, id uint64) (*models.Loan, error)
	GetLoanByLoanID(ctx context.Context, loanID string) (*models.Loan, error)
	ListLoans(ctx context.Context, params ListLoansParams) ([]models.Loan, error)
	CountLoans(ctx context.Context, params ListLoansParams) (int64, error)
	ListMarketplaceLoans(ctx context.Context, params MarketplaceParams) ([]models.Loan, error)
	CountMarketplaceLoans(ctx context.Context, params MarketplaceParams) (int64, error)
	ListStaleActiveLoans(ctx context.Context, before time.Time, limit int) ([]models.Loan, error)

	// Risk explanations (replaced per assessment).
	ReplaceRiskExplanations(ctx context.Context, loanID uint64, items []models.RiskExplanation) error
	ListRiskExplanations(ctx context.Context, loanID uint64) ([]models.RiskExplanation, error)

	// Transactions.
	InsertTransaction(ctx context.Context, item *models.Transaction) error
	SaveTransaction(ctx context.Context, item *models.Transaction) error
	GetTransactionByTxID(ctx context.Context, txID string) (*models.Transaction, error)
	ListTransactionsByLoan(ctx context.Context, loanID uint64, limit, offset int) ([]models.Transaction, error)

	// Audit.
	InsertAuditLog(ctx context.Context, item *models.AuditLog) error
}
