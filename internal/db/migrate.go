package db

import (
	"loanmarket/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Loan{},
		&models.RiskExplanation{},
		&models.Transaction{},
		&models.AuditLog{},
	)
}
