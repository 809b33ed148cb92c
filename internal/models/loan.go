package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Loan lifecycle statuses.
const (
	LoanStatusPending      = "PENDING"
	LoanStatusActive       = "ACTIVE"
	LoanStatusSettled      = "SETTLED"
	LoanStatusDefaulted    = "DEFAULTED"
	LoanStatusRestructured = "RESTRUCTURED"
)

type Loan struct {
	ID                uint64 `gorm:"primaryKey;autoIncrement"`
	LoanID            string `gorm:"type:varchar(100);not null;uniqueIndex"`
	OriginatorAccount string `gorm:"type:varchar(255);not null;index"`

	// Contractual terms.
	Principal    decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	InterestRate float64         `gorm:"not null"`
	TenureMonths int             `gorm:"not null"`
	MonthlyEMI   decimal.Decimal `gorm:"column:monthly_emi;type:numeric(30,10);not null"`

	// Borrower attributes.
	BorrowerCreditScore    *int
	BorrowerIncome         *float64
	BorrowerEmploymentType *string `gorm:"type:varchar(50)"`
	LoanPurpose            *string `gorm:"type:varchar(100)"`

	// Repayment history.
	EMIsPaid           int             `gorm:"column:emis_paid;not null;default:0"`
	EMIsMissed         int             `gorm:"column:emis_missed;not null;default:0"`
	CurrentOutstanding decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	// Risk assessment outputs. Superseded on re-assessment, never mutated
	// in place by the engine.
	RiskScore    *float64
	ExpectedLoss *decimal.Decimal `gorm:"type:numeric(30,10)"`
	RiskGrade    *string          `gorm:"type:varchar(1);index"`

	// Pricing outputs.
	SuggestedPrice     *decimal.Decimal `gorm:"type:numeric(30,10)"`
	YieldToMaturity    *float64
	PricingAssumptions datatypes.JSON `gorm:"type:jsonb"`

	// Blockchain stand-in.
	OnChainTokenID *string `gorm:"type:varchar(100);uniqueIndex"`

	Status           string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ModelVersion     *string    `gorm:"type:varchar(50)"`
	LastAssessmentAt *time.Time `gorm:"type:timestamptz;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Loan) TableName() string {
	return "loans"
}
