package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ActionType string

const (
	ActionInsert ActionType = "INSERT"
	ActionUpdate ActionType = "UPDATE"
	ActionDelete ActionType = "DELETE"
)

// AuditEntry is one persisted mutation of one auditable entity.
// Entries are append-only and are never audited themselves.
type AuditEntry struct {
	Model

	EntityName string     `gorm:"size:255;not null"`
	ActionType ActionType `gorm:"size:16;not null"`
	EntityID   string     `gorm:"size:255;not null;index"`

	ApplicationUserID   *uuid.UUID `gorm:"type:char(36)"`
	ApplicationUserName string     `gorm:"size:255"`

	Changes datatypes.JSONMap `gorm:"not null"` // field name -> value as string
}
