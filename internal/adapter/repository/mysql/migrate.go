package mysql

import (
	"realestate-lifecycle/internal/domain/audit"
	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates every table the engine owns plus the audit table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&interest.Interest{},
		&contract.Contract{},
		&contract.Installment{},
		&audit.Entry{},
	)
}
