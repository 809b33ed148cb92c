package models

import (
	"time"
)

// RiskExplanation is one per-feature attribution row from the latest
// assessment of a loan. Rows are replaced wholesale on re-assessment.
type RiskExplanation struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	LoanID uint64 `gorm:"not null;index"`

	FeatureName       string  `gorm:"type:varchar(100);not null"`
	FeatureValue      float64 `gorm:"not null"`
	AttributionScore  float64 `gorm:"not null"`
	ImpactDescription string  `gorm:"type:text"`

	ModelVersion string    `gorm:"type:varchar(50);not null"`
	CreatedAt    time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (RiskExplanation) TableName() string {
	return "risk_explanations"
}
