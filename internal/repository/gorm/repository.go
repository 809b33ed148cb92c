package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"loanmarket/internal/models"
	"loanmarket/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- Loans ------------------------------------------------------------------

func (s *Store) InsertLoan(ctx context.Context, item *models.Loan) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveLoan(ctx context.Context, item *models.Loan) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetLoanByID(ctx context.Context, id uint64) (*models.Loan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Loan
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetLoanByLoanID(ctx context.Context, loanID string) (*models.Loan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Loan
	err := s.db.WithContext(ctx).First(&item, "loan_id = ?", strings.TrimSpace(loanID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListLoans(ctx context.Context, params repository.ListLoansParams) ([]models.Loan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyLoanFilters(s.db.WithContext(ctx).Model(&models.Loan{}), params)
	query = query.Order("created_at desc")
	var items []models.Loan
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountLoans(ctx context.Context, params repository.ListLoansParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyLoanFilters(s.db.WithContext(ctx).Model(&models.Loan{}), params).Count(&total).Error
	return total, err
}

func applyLoanFilters(query *gorm.DB, params repository.ListLoansParams) *gorm.DB {
	if params.OriginatorAccount != nil && strings.TrimSpace(*params.OriginatorAccount) != "" {
		query = query.Where("originator_account = ?", strings.TrimSpace(*params.OriginatorAccount))
	}
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	return query
}

func (s *Store) ListMarketplaceLoans(ctx context.Context, params repository.MarketplaceParams) ([]models.Loan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyMarketplaceFilters(s.db.WithContext(ctx).Model(&models.Loan{}), params)
	orderBy := params.OrderBy
	if orderBy == "" {
		orderBy = "yield_to_maturity"
	}
	query = applyOrder(query, orderBy, params.Asc, "yield_to_maturity")
	var items []models.Loan
	if err := query.Limit(normalizeLimit(params.Limit, 100)).Offset(normalizeOffset(params.Offset)).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountMarketplaceLoans(ctx context.Context, params repository.MarketplaceParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := applyMarketplaceFilters(s.db.WithContext(ctx).Model(&models.Loan{}), params).Count(&total).Error
	return total, err
}

func applyMarketplaceFilters(query *gorm.DB, params repository.MarketplaceParams) *gorm.DB {
	query = query.Where("status = ?", models.LoanStatusActive)
	if params.MinPrincipal != nil {
		query = query.Where("principal >= ?", *params.MinPrincipal)
	}
	if params.MaxPrincipal != nil {
		query = query.Where("principal <= ?", *params.MaxPrincipal)
	}
	if params.MinInterestRate != nil {
		query = query.Where("interest_rate >= ?", *params.MinInterestRate)
	}
	if params.MaxInterestRate != nil {
		query = query.Where("interest_rate <= ?", *params.MaxInterestRate)
	}
	if grades := cleanStrings(params.RiskGrades); len(grades) > 0 {
		query = query.Where("risk_grade IN ?", grades)
	}
	if params.MinYield != nil {
		query = query.Where("yield_to_maturity >= ?", *params.MinYield)
	}
	if params.MaxYield != nil {
		query = query.Where("yield_to_maturity <= ?", *params.MaxYield)
	}
	if params.MaxRiskScore != nil {
		query = query.Where("risk_score < ?", *params.MaxRiskScore)
	}
	return query
}

func (s *Store) ListStaleActiveLoans(ctx context.Context, before time.Time, limit int) ([]models.Loan, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Loan
	err := s.db.WithContext(ctx).
		Where("status = ?", models.LoanStatusActive).
		Where("last_assessment_at IS NULL OR last_assessment_at < ?", before).
		Order("last_assessment_at asc nulls first").
		Limit(normalizeLimit(limit, 200)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Risk explanations ------------------------------------------------------

func (s *Store) ReplaceRiskExplanations(ctx context.Context, loanID uint64, items []models.RiskExplanation) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("loan_id = ?", loanID).Delete(&models.RiskExplanation{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].LoanID = loanID
		}
		return tx.Create(&items).Error
	})
}

func (s *Store) ListRiskExplanations(ctx context.Context, loanID uint64) ([]models.RiskExplanation, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.RiskExplanation
	err := s.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("abs(attribution_score) desc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Transactions -----------------------------------------------------------

func (s *Store) InsertTransaction(ctx context.Context, item *models.Transaction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveTransaction(ctx context.Context, item *models.Transaction) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetTransactionByTxID(ctx context.Context, txID string) (*models.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Transaction
	err := s.db.WithContext(ctx).First(&item, "transaction_id = ?", strings.TrimSpace(txID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTransactionsByLoan(ctx context.Context, loanID uint64, limit, offset int) ([]models.Transaction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Transaction
	err := s.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("initiated_at desc").
		Limit(normalizeLimit(limit, 100)).
		Offset(normalizeOffset(offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Audit ------------------------------------------------------------------

func (s *Store) InsertAuditLog(ctx context.Context, item *models.AuditLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// --- Helpers ----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	seen := map[string]struct{}{}
	for _, raw := range items {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}
