package database

import (
	"errors"
	"testing"
	"time"

	"persistence-core/internal/config"
	"persistence-core/internal/identity"
	"persistence-core/internal/logging"
	"persistence-core/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// auditable, uuid key assigned on insert
type widget struct {
	models.AuditableModel
	Name  string
	Count int
}

// auditable, auto-increment key assigned by the database
type ticket struct {
	ID    uint `gorm:"primaryKey;autoIncrement"`
	Title string
	models.Timestamps
	models.Attribution
}

// timestamped only
type gadget struct {
	models.Model
	Label string
}

// auditable but without a primary key
type keyless struct {
	Name string
	models.Timestamps
	models.Attribution
}

// auditable, Status filled from a column default
type issue struct {
	models.AuditableModel
	Title  string
	Status string `gorm:"size:32;default:open"`
}

// auditable, composite key
type membership struct {
	GroupID  string `gorm:"primaryKey;size:64"`
	MemberID string `gorm:"primaryKey;size:64"`
	Role     string
	models.Timestamps
	models.Attribution
}

var (
	alice = identity.New(uuid.MustParse("0b7c6a52-5f0e-4d3c-9a43-5d1f1a9e0a01"), "alice")
	bob   = identity.New(uuid.MustParse("6f1d2c3b-8e4f-4a5b-9c6d-7e8f9a0b1c02"), "bob")
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := Open(config.DatabaseConfig{
		Provider:         config.InMemory,
		ConnectionString: config.DefaultInMemoryConnectionString,
	}, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, Migrate(db, &widget{}, &ticket{}, &gadget{}, &issue{}, &membership{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestStore(t *testing.T, auditing bool) *Store {
	t.Helper()
	return NewStore(newTestDB(t), Options{Auditing: auditing})
}

func countAudit(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.AuditEntry{}).Count(&n).Error)
	return n
}

// failAuditWrites makes every insert into audit_entries fail.
func failAuditWrites(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Callback().Create().Before("gorm:create").Register("test:fail_audit", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == "audit_entries" {
			_ = tx.AddError(errors.New("audit table unavailable"))
		}
	})
	require.NoError(t, err)
}

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	cur := start
	return func() time.Time {
		t := cur
		cur = cur.Add(step)
		return t
	}
}
