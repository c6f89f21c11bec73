// Package identity describes the acting principal a save is attributed to.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the current acting principal.
type Identity interface {
	UserID() uuid.UUID
	Username() string
}

type principal struct {
	id   uuid.UUID
	name string
}

func (p principal) UserID() uuid.UUID { return p.id }
func (p principal) Username() string  { return p.name }

// New returns an Identity for a known user.
func New(id uuid.UUID, username string) Identity {
	return principal{id: id, name: username}
}

type none struct{}

func (none) UserID() uuid.UUID { return uuid.Nil }
func (none) Username() string  { return "" }

// None is used where auditing is structurally disabled (bootstrap, jobs).
var None Identity = none{}

// IsAbsent reports whether id carries no principal.
func IsAbsent(id Identity) bool {
	return id == nil || id == None || id.UserID() == uuid.Nil
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or None.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok && id != nil {
		return id
	}
	return None
}
