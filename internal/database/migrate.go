package database

import (
	"fmt"

	"persistence-core/internal/models"

	"gorm.io/gorm"
)

func coreModels() []any {
	return []any{
		&models.ApplicationUser{},
		&models.AuditEntry{},
	}
}

// Migrate creates or updates the core tables plus any module tables.
func Migrate(db *gorm.DB, extra ...any) error {
	if err := db.AutoMigrate(append(coreModels(), extra...)...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Reset drops and recreates every table Migrate manages.
func Reset(db *gorm.DB, extra ...any) error {
	all := append(coreModels(), extra...)
	if err := db.Migrator().DropTable(all...); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return Migrate(db, extra...)
}
