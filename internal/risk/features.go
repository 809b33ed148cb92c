package risk

import (
	"math"
)

// NumFeatures is the fixed width of the classifier input. The scaler and
// model weights are positional; FeatureNames defines the only valid order.
const NumFeatures = 10

var FeatureNames = [NumFeatures]string{
	"principal",
	"interest_rate",
	"tenure_months",
	"borrower_credit_score",
	"borrower_income",
	"emis_paid",
	"emis_missed",
	"current_outstanding",
	"payment_ratio",
	"outstanding_ratio",
}

// Defaults applied when optional borrower attributes are absent.
const (
	DefaultCreditScore = 650.0
	DefaultIncome      = 50000.0
)

// LoanSnapshot is the immutable input record for one evaluation.
type LoanSnapshot struct {
	Principal          float64
	InterestRate       float64 // annual, percent
	TenureMonths       int
	MonthlyEMI         float64
	EMIsPaid           int
	EMIsMissed         int
	CurrentOutstanding float64

	BorrowerCreditScore *float64
	BorrowerIncome      *float64
}

type FeatureVector [NumFeatures]float64

// BuildFeatures derives the classifier input from a loan snapshot. It is a
// pure function; the only failure mode is a malformed required field.
func BuildFeatures(snap LoanSnapshot) (FeatureVector, error) {
	var vec FeatureVector
	if err := validate(snap); err != nil {
		return vec, err
	}

	creditScore := DefaultCreditScore
	if snap.BorrowerCreditScore != nil {
		creditScore = *snap.BorrowerCreditScore
	}
	income := DefaultIncome
	if snap.BorrowerIncome != nil {
		income = *snap.BorrowerIncome
	}

	paymentRatio := float64(snap.EMIsPaid) / float64(snap.EMIsPaid+snap.EMIsMissed+1)
	outstandingRatio := snap.CurrentOutstanding / snap.Principal

	vec = FeatureVector{
		snap.Principal,
		snap.InterestRate,
		float64(snap.TenureMonths),
		creditScore,
		income,
		float64(snap.EMIsPaid),
		float64(snap.EMIsMissed),
		snap.CurrentOutstanding,
		paymentRatio,
		outstandingRatio,
	}
	return vec, nil
}

func validate(snap LoanSnapshot) error {
	switch {
	case !isFinite(snap.Principal) || snap.Principal <= 0:
		return &ValidationError{Field: "principal", Reason: "must be a positive number"}
	case !isFinite(snap.InterestRate) || snap.InterestRate < 0 || snap.InterestRate > 100:
		return &ValidationError{Field: "interest_rate", Reason: "must be a percentage in [0, 100]"}
	case snap.TenureMonths <= 0:
		return &ValidationError{Field: "tenure_months", Reason: "must be positive"}
	case !isFinite(snap.MonthlyEMI) || snap.MonthlyEMI < 0:
		return &ValidationError{Field: "monthly_emi", Reason: "must be a non-negative number"}
	case snap.EMIsPaid < 0:
		return &ValidationError{Field: "emis_paid", Reason: "must be non-negative"}
	case snap.EMIsMissed < 0:
		return &ValidationError{Field: "emis_missed", Reason: "must be non-negative"}
	case !isFinite(snap.CurrentOutstanding) || snap.CurrentOutstanding < 0:
		return &ValidationError{Field: "current_outstanding", Reason: "must be a non-negative number"}
	}
	if snap.BorrowerCreditScore != nil && (*snap.BorrowerCreditScore < 300 || *snap.BorrowerCreditScore > 850) {
		return &ValidationError{Field: "borrower_credit_score", Reason: "must be in [300, 850]"}
	}
	if snap.BorrowerIncome != nil && (!isFinite(*snap.BorrowerIncome) || *snap.BorrowerIncome < 0) {
		return &ValidationError{Field: "borrower_income", Reason: "must be a non-negative number"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
