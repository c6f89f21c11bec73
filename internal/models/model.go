package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Timestamped is implemented by entities whose CreatedAt / LastUpdatedAt
// are maintained by the save pipeline.
type Timestamped interface {
	SetCreatedAt(t time.Time)
	SetLastUpdatedAt(t time.Time)
	GetLastUpdatedAt() time.Time
}

// Attributed is implemented by auditable entities: they carry the acting
// principal of their creation and of their latest mutation.
type Attributed interface {
	SetCreatedByID(id *uuid.UUID)
	SetLastUpdatedByID(id *uuid.UUID)
}

// Timestamps are UTC and set only by the stamper.
type Timestamps struct {
	CreatedAt     time.Time `gorm:"not null"`
	LastUpdatedAt time.Time `gorm:"not null"`
}

func (t *Timestamps) SetCreatedAt(at time.Time)     { t.CreatedAt = at }
func (t *Timestamps) SetLastUpdatedAt(at time.Time) { t.LastUpdatedAt = at }
func (t *Timestamps) GetLastUpdatedAt() time.Time   { return t.LastUpdatedAt }

// Attribution stays nil when no actor was available.
type Attribution struct {
	CreatedByID     *uuid.UUID `gorm:"type:char(36)"`
	LastUpdatedByID *uuid.UUID `gorm:"type:char(36)"`
}

func (a *Attribution) SetCreatedByID(id *uuid.UUID)     { a.CreatedByID = id }
func (a *Attribution) SetLastUpdatedByID(id *uuid.UUID) { a.LastUpdatedByID = id }

// Model is the base for persisted records keyed by a uuid.
type Model struct {
	ID uuid.UUID `gorm:"type:char(36);primaryKey"`
	Timestamps
}

// BeforeCreate assigns the id during the insert when the caller did not.
func (m *Model) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// AuditableModel is a Model whose mutations land in the audit trail.
type AuditableModel struct {
	Model
	Attribution
}
