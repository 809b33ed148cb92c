package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"loanmarket/internal/client/near"
	"loanmarket/internal/models"
	"loanmarket/internal/pricing"
	"loanmarket/internal/repository"
	"loanmarket/internal/risk"
)

var (
	ErrLoanExists   = errors.New("loan id already exists")
	ErrLoanNotFound = errors.New("loan not found")
	ErrNotAssessed  = errors.New("loan has no risk assessment")
	ErrInvalidState = errors.New("invalid loan status")
)

// Only the strongest attributions are persisted per assessment.
const maxStoredExplanations = 10

type LoanService struct {
	Repo    repository.Repository
	Risk    *risk.Engine
	Pricing *pricing.Engine
	Chain   *near.Client
	Logger  *zap.Logger
}

type CreateLoanInput struct {
	LoanID            string  `json:"loan_id"`
	OriginatorAccount string  `json:"originator_account"`
	Principal         float64 `json:"principal"`
	InterestRate      float64 `json:"interest_rate"`
	TenureMonths      int     `json:"tenure_months"`
	MonthlyEMI        float64 `json:"monthly_emi"`

	BorrowerCreditScore    *int     `json:"borrower_credit_score"`
	BorrowerIncome         *float64 `json:"borrower_income"`
	BorrowerEmploymentType *string  `json:"borrower_employment_type"`
	LoanPurpose            *string  `json:"loan_purpose"`

	EMIsPaid           int     `json:"emis_paid"`
	EMIsMissed         int     `json:"emis_missed"`
	CurrentOutstanding float64 `json:"current_outstanding"`
}

// CreateLoan persists a new loan and runs risk assessment and pricing
// synchronously. On success the loan becomes ACTIVE and, best effort, is
// registered as a token on chain. If assessment fails the loan stays
// PENDING in the database and the error is returned.
func (s *LoanService) CreateLoan(ctx context.Context, input CreateLoanInput, actor string) (*models.Loan, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("loan service not configured")
	}

	existing, err := s.Repo.GetLoanByLoanID(ctx, input.LoanID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrLoanExists, input.LoanID)
	}

	loan := &models.Loan{
		LoanID:                 input.LoanID,
		OriginatorAccount:      input.OriginatorAccount,
		Principal:              decimal.NewFromFloat(input.Principal),
		InterestRate:           input.InterestRate,
		TenureMonths:           input.TenureMonths,
		MonthlyEMI:             decimal.NewFromFloat(input.MonthlyEMI),
		BorrowerCreditScore:    input.BorrowerCreditScore,
		BorrowerIncome:         input.BorrowerIncome,
		BorrowerEmploymentType: input.BorrowerEmploymentType,
		LoanPurpose:            input.LoanPurpose,
		EMIsPaid:               input.EMIsPaid,
		EMIsMissed:             input.EMIsMissed,
		CurrentOutstanding:     decimal.NewFromFloat(input.CurrentOutstanding),
		Status:                 models.LoanStatusPending,
	}
	if err := s.Repo.InsertLoan(ctx, loan); err != nil {
		return nil, err
	}
	s.logAudit(ctx, &loan.ID, actor, "LOAN_CREATED", "Loan", loan.LoanID, nil, nil)

	if err := s.processLoan(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

type BulkCreateResult struct {
	Created []models.Loan    `json:"created"`
	Failed  []BulkCreateFail `json:"failed"`
}

type BulkCreateFail struct {
	LoanID string `json:"loan_id"`
	Reason string `json:"reason"`
}

// CreateLoansBulk creates loans one at a time; a failure isolates to its own
// loan and the rest of the batch continues.
func (s *LoanService) CreateLoansBulk(ctx context.Context, inputs []CreateLoanInput, actor string) BulkCreateResult {
	result := BulkCreateResult{Created: []models.Loan{}, Failed: []BulkCreateFail{}}
	for _, input := range inputs {
		loan, err := s.CreateLoan(ctx, input, actor)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Error("bulk create: loan failed",
					zap.String("loan_id", input.LoanID), zap.Error(err))
			}
			result.Failed = append(result.Failed, BulkCreateFail{LoanID: input.LoanID, Reason: err.Error()})
			continue
		}
		result.Created = append(result.Created, *loan)
	}
	return result
}

// UpdateLoanInput carries the mutable repayment-state fields. Nil means
// leave unchanged.
type UpdateLoanInput struct {
	EMIsPaid           *int     `json:"emis_paid"`
	EMIsMissed         *int     `json:"emis_missed"`
	CurrentOutstanding *float64 `json:"current_outstanding"`
	Status             *string  `json:"status"`
}

// UpdateLoan applies repayment-state changes with an old/new audit snapshot.
// Risk and pricing fields are untouched; they only move through reassessment
// (explicit or the cron revaluer).
func (s *LoanService) UpdateLoan(ctx context.Context, loanID string, input UpdateLoanInput, actor string) (*models.Loan, error) {
	loan, err := s.getByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	oldSnapshot, _ := json.Marshal(repaymentSummary(loan))
	if input.EMIsPaid != nil {
		loan.EMIsPaid = *input.EMIsPaid
	}
	if input.EMIsMissed != nil {
		loan.EMIsMissed = *input.EMIsMissed
	}
	if input.CurrentOutstanding != nil {
		loan.CurrentOutstanding = decimal.NewFromFloat(*input.CurrentOutstanding)
	}
	if input.Status != nil {
		switch *input.Status {
		case models.LoanStatusPending, models.LoanStatusActive, models.LoanStatusSettled,
			models.LoanStatusDefaulted, models.LoanStatusRestructured:
			loan.Status = *input.Status
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidState, *input.Status)
		}
	}
	if err := s.Repo.SaveLoan(ctx, loan); err != nil {
		return nil, err
	}

	newSnapshot, _ := json.Marshal(repaymentSummary(loan))
	s.logAudit(ctx, &loan.ID, actor, "LOAN_UPDATED", "Loan", loan.LoanID, oldSnapshot, newSnapshot)
	return loan, nil
}

// Reassess reruns assessment and pricing for an existing loan with its
// current repayment state. The previous risk fields are audited before being
// superseded.
func (s *LoanService) Reassess(ctx context.Context, loanID string, actor string) (*models.Loan, error) {
	loan, err := s.getByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	oldSnapshot, _ := json.Marshal(riskSummary(loan))
	if err := s.processLoan(ctx, loan); err != nil {
		return nil, err
	}
	newSnapshot, _ := json.Marshal(riskSummary(loan))
	s.logAudit(ctx, &loan.ID, actor, "LOAN_REASSESSED", "Loan", loan.LoanID, oldSnapshot, newSnapshot)
	return loan, nil
}

// processLoan runs the risk engine, prices the loan, stores the top
// attributions and promotes the loan to ACTIVE. Chain registration happens
// last and never fails the loan.
func (s *LoanService) processLoan(ctx context.Context, loan *models.Loan) error {
	assessment, explanations, err := s.Risk.Assess(snapshotFromLoan(loan))
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("risk assessment failed",
				zap.String("loan_id", loan.LoanID), zap.Error(err))
		}
		loan.Status = models.LoanStatusPending
		_ = s.Repo.SaveLoan(ctx, loan)
		return err
	}

	priced := s.Pricing.FairValue(termsFromLoan(loan), assessment.ProbabilityOfDefault, assessment.RiskGrade)
	assumptionsRaw, _ := json.Marshal(priced.Assumptions)

	expectedLoss := decimal.NewFromFloat(assessment.ExpectedLoss)
	suggestedPrice := decimal.NewFromFloat(priced.SuggestedPrice)
	loan.RiskScore = &assessment.ProbabilityOfDefault
	loan.ExpectedLoss = &expectedLoss
	loan.RiskGrade = &assessment.RiskGrade
	loan.SuggestedPrice = &suggestedPrice
	loan.YieldToMaturity = &priced.YieldToMaturity
	loan.PricingAssumptions = datatypes.JSON(assumptionsRaw)
	loan.ModelVersion = &assessment.ModelVersion
	loan.LastAssessmentAt = &assessment.AssessedAt
	loan.Status = models.LoanStatusActive
	if err := s.Repo.SaveLoan(ctx, loan); err != nil {
		return err
	}

	rows := make([]models.RiskExplanation, 0, maxStoredExplanations)
	for i, exp := range explanations {
		if i >= maxStoredExplanations {
			break
		}
		rows = append(rows, models.RiskExplanation{
			LoanID:            loan.ID,
			FeatureName:       exp.FeatureName,
			FeatureValue:      exp.FeatureValue,
			AttributionScore:  exp.AttributionScore,
			ImpactDescription: exp.Description,
			ModelVersion:      assessment.ModelVersion,
		})
	}
	if err := s.Repo.ReplaceRiskExplanations(ctx, loan.ID, rows); err != nil {
		return err
	}

	if loan.OnChainTokenID == nil {
		s.registerOnChain(ctx, loan)
	}

	if s.Logger != nil {
		s.Logger.Info("loan assessed and priced",
			zap.String("loan_id", loan.LoanID),
			zap.Float64("risk_score", assessment.ProbabilityOfDefault),
			zap.String("risk_grade", assessment.RiskGrade),
			zap.Float64("suggested_price", priced.SuggestedPrice))
	}
	return nil
}

// registerOnChain mints the loan token. Failures are logged and swallowed;
// an unregistered loan is still tradeable off chain and the cron revaluer
// retries on the next pass.
func (s *LoanService) registerOnChain(ctx context.Context, loan *models.Loan) {
	if s.Chain == nil || loan.OriginatorAccount == "" {
		return
	}
	tokenID := fmt.Sprintf("LOAN-TOKEN-%d", loan.ID)
	price := 0.0
	if loan.SuggestedPrice != nil {
		price, _ = loan.SuggestedPrice.Float64()
	}

	res, err := s.Chain.RegisterLoanToken(ctx, tokenID, loan.LoanID, toChainUnits(price), loan.OriginatorAccount)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("chain registration failed",
				zap.String("loan_id", loan.LoanID), zap.Error(err))
		}
		return
	}

	loan.OnChainTokenID = &tokenID
	if err := s.Repo.SaveLoan(ctx, loan); err != nil {
		if s.Logger != nil {
			s.Logger.Error("saving chain token id failed",
				zap.String("loan_id", loan.LoanID), zap.Error(err))
		}
		return
	}
	txRaw, _ := json.Marshal(map[string]any{"transaction_hash": res.TransactionHash, "block_height": res.BlockHeight})
	s.logAudit(ctx, &loan.ID, "", "BLOCKCHAIN_REGISTERED", "Loan", loan.LoanID, nil, txRaw)
}

func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*models.Loan, error) {
	return s.getByLoanID(ctx, loanID)
}

func (s *LoanService) ListByOriginator(ctx context.Context, originator string, limit, offset int) ([]models.Loan, int64, error) {
	params := repository.ListLoansParams{
		Limit:             limit,
		Offset:            offset,
		OriginatorAccount: &originator,
	}
	items, err := s.Repo.ListLoans(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountLoans(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Explanations returns the stored per-feature attributions from the latest
// assessment.
func (s *LoanService) Explanations(ctx context.Context, loanID string) ([]models.RiskExplanation, error) {
	loan, err := s.getByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListRiskExplanations(ctx, loan.ID)
}

// Valuation reprices a loan ad hoc from its stored risk assessment, without
// persisting anything.
func (s *LoanService) Valuation(ctx context.Context, loanID string) (pricing.Result, error) {
	loan, err := s.getByLoanID(ctx, loanID)
	if err != nil {
		return pricing.Result{}, err
	}
	if loan.RiskScore == nil || loan.RiskGrade == nil {
		return pricing.Result{}, fmt.Errorf("%w: %s", ErrNotAssessed, loanID)
	}
	return s.Pricing.FairValue(termsFromLoan(loan), *loan.RiskScore, *loan.RiskGrade), nil
}

// Stress reprices a loan under shocked default probabilities.
func (s *LoanService) Stress(ctx context.Context, loanID string) (pricing.StressReport, error) {
	loan, err := s.getByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.RiskScore == nil || loan.RiskGrade == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotAssessed, loanID)
	}
	return s.Pricing.RunStress(termsFromLoan(loan), *loan.RiskScore, *loan.RiskGrade), nil
}

// SearchMarketplace lists ACTIVE loans matching investor filters.
func (s *LoanService) SearchMarketplace(ctx context.Context, params repository.MarketplaceParams) ([]models.Loan, int64, error) {
	items, err := s.Repo.ListMarketplaceLoans(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountMarketplaceLoans(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FeaturedLoans surfaces top-grade loans with the best yields.
func (s *LoanService) FeaturedLoans(ctx context.Context, limit int) ([]models.Loan, error) {
	asc := false
	items, err := s.Repo.ListMarketplaceLoans(ctx, repository.MarketplaceParams{
		Limit:      limit,
		RiskGrades: []string{"A", "B"},
		OrderBy:    "yield_to_maturity",
		Asc:        &asc,
	})
	return items, err
}

// RecommendedLoans applies a simple risk/return heuristic: low PD, high
// yield, best yield first.
func (s *LoanService) RecommendedLoans(ctx context.Context, limit int) ([]models.Loan, error) {
	asc := false
	maxRisk := 0.15
	minYield := 8.0
	items, err := s.Repo.ListMarketplaceLoans(ctx, repository.MarketplaceParams{
		Limit:        limit,
		MaxRiskScore: &maxRisk,
		MinYield:     &minYield,
		OrderBy:      "yield_to_maturity",
		Asc:          &asc,
	})
	return items, err
}

func (s *LoanService) getByLoanID(ctx context.Context, loanID string) (*models.Loan, error) {
	loan, err := s.Repo.GetLoanByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, fmt.Errorf("%w: %s", ErrLoanNotFound, loanID)
	}
	return loan, nil
}

func (s *LoanService) logAudit(ctx context.Context, loanID *uint64, actor, action, entityType, entityID string, oldValue, newValue []byte) {
	item := &models.AuditLog{
		LoanID:     loanID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
	}
	if actor != "" {
		item.Actor = &actor
	}
	if oldValue != nil {
		item.OldValue = datatypes.JSON(oldValue)
	}
	if newValue != nil {
		item.NewValue = datatypes.JSON(newValue)
	}
	if err := s.Repo.InsertAuditLog(ctx, item); err != nil && s.Logger != nil {
		s.Logger.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func snapshotFromLoan(loan *models.Loan) risk.LoanSnapshot {
	principal, _ := loan.Principal.Float64()
	emi, _ := loan.MonthlyEMI.Float64()
	outstanding, _ := loan.CurrentOutstanding.Float64()

	snap := risk.LoanSnapshot{
		Principal:          principal,
		InterestRate:       loan.InterestRate,
		TenureMonths:       loan.TenureMonths,
		MonthlyEMI:         emi,
		EMIsPaid:           loan.EMIsPaid,
		EMIsMissed:         loan.EMIsMissed,
		CurrentOutstanding: outstanding,
		BorrowerIncome:     loan.BorrowerIncome,
	}
	if loan.BorrowerCreditScore != nil {
		score := float64(*loan.BorrowerCreditScore)
		snap.BorrowerCreditScore = &score
	}
	return snap
}

func termsFromLoan(loan *models.Loan) pricing.Terms {
	emi, _ := loan.MonthlyEMI.Float64()
	outstanding, _ := loan.CurrentOutstanding.Float64()
	return pricing.Terms{
		MonthlyEMI:         emi,
		TenureMonths:       loan.TenureMonths,
		EMIsPaid:           loan.EMIsPaid,
		CurrentOutstanding: outstanding,
	}
}

func repaymentSummary(loan *models.Loan) map[string]any {
	return map[string]any{
		"emis_paid":           loan.EMIsPaid,
		"emis_missed":         loan.EMIsMissed,
		"current_outstanding": loan.CurrentOutstanding,
		"status":              loan.Status,
	}
}

func riskSummary(loan *models.Loan) map[string]any {
	return map[string]any{
		"risk_score":        loan.RiskScore,
		"risk_grade":        loan.RiskGrade,
		"suggested_price":   loan.SuggestedPrice,
		"yield_to_maturity": loan.YieldToMaturity,
		"model_version":     loan.ModelVersion,
	}
}

// toChainUnits converts a price in whole currency units to the contract's
// micro-unit representation. yoctoNEAR overflows uint64 for realistic loan
// values, so the contract side agrees on 1e6 units per currency unit.
func toChainUnits(price float64) uint64 {
	if price <= 0 {
		return 0
	}
	return uint64(price * 1e6)
}
