package models

import "persistence-core/internal/identity"

type ApplicationUser struct {
	AuditableModel
	Username string `gorm:"uniqueIndex;size:255;not null"`
}

// Identity returns the user as an acting principal.
func (u *ApplicationUser) Identity() identity.Identity {
	return identity.New(u.ID, u.Username)
}
