package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID     uint64  `gorm:"primaryKey;autoIncrement"`
	LoanID *uint64 `gorm:"index"`
	Actor  *string `gorm:"type:varchar(255)"`

	Action     string  `gorm:"type:varchar(100);not null;index"`
	EntityType string  `gorm:"type:varchar(50);not null"`
	EntityID   *string `gorm:"type:varchar(100)"`

	OldValue datatypes.JSON `gorm:"type:jsonb"`
	NewValue datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
