package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction processing statuses.
const (
	TxStatusPending   = "PENDING"
	TxStatusConfirmed = "CONFIRMED"
	TxStatusFailed    = "FAILED"
)

// Transaction records a fractional loan purchase. Fraction is in basis
// points (10000 = 100%).
type Transaction struct {
	ID            uint64 `gorm:"primaryKey;autoIncrement"`
	TransactionID string `gorm:"type:varchar(100);not null;uniqueIndex"`

	LoanID        uint64 `gorm:"not null;index"`
	BuyerAccount  string `gorm:"type:varchar(255);not null;index"`
	SellerAccount string `gorm:"type:varchar(255);not null;index"`

	LoanTokenID string          `gorm:"type:varchar(100);not null"`
	Fraction    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	NearTxHash  *string `gorm:"type:varchar(255);uniqueIndex"`
	BlockHeight *int64

	Status string `gorm:"type:varchar(20);not null;default:'PENDING';index"`

	InitiatedAt time.Time  `gorm:"type:timestamptz;autoCreateTime"`
	ConfirmedAt *time.Time `gorm:"type:timestamptz"`
}

func (Transaction) TableName() string {
	return "transactions"
}
