package database

import (
	"context"

	"persistence-core/internal/models"

	"gorm.io/gorm"
)

// AuditTrail returns the audit records of one entity, oldest first.
func AuditTrail(ctx context.Context, db *gorm.DB, entityName, entityID string) ([]models.AuditEntry, error) {
	var entries []models.AuditEntry
	err := db.WithContext(ctx).
		Where("entity_name = ? AND entity_id = ?", entityName, entityID).
		Order("created_at asc").
		Find(&entries).Error
	return entries, err
}
