package database

import (
	"context"
	"fmt"
	"reflect"

	"persistence-core/internal/identity"
	"persistence-core/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/schema"
)

// Placeholder stands for a value the store assigns during the write.
type Placeholder struct {
	seq   int
	field string
}

func (p Placeholder) String() string {
	return fmt.Sprintf("<pending %s #%d>", p.field, p.seq)
}

// AuditDraft is an audit record captured before the primary write.
// EntityKey holds the primary key parts in schema order. Key parts and
// some Values may still be Placeholders; Pending lists the fields holding
// one.
type AuditDraft struct {
	EntityName string
	Action     models.ActionType
	EntityKey  []any
	UserID     *uuid.UUID
	UserName   string
	Values     map[string]any
	Pending    []string
}

// resolver reads the final value behind a placeholder once the row exists.
type resolver struct {
	placeholder Placeholder
	field       *schema.Field
	value       reflect.Value
}

// detect builds drafts for every auditable entity of the save. It runs
// before the primary write and fails without side effects on a mapping
// defect.
func detect(ctx context.Context, entries []*pendingEntry, actor identity.Identity) ([]AuditDraft, []resolver, error) {
	var (
		drafts    []AuditDraft
		resolvers []resolver
		seq       int
	)

	var userID *uuid.UUID
	var userName string
	if !identity.IsAbsent(actor) {
		id := actor.UserID()
		userID, userName = &id, actor.Username()
	}

	for _, e := range entries {
		if _, ok := e.entity.(*models.AuditEntry); ok {
			continue
		}
		if _, ok := e.entity.(models.Attributed); !ok {
			continue
		}

		if len(e.schema.PrimaryFields) == 0 {
			return nil, nil, &ConsistencyError{Entity: e.schema.Name, Err: ErrMissingPrimaryKey}
		}

		d := AuditDraft{
			EntityName: e.schema.Name,
			Action:     e.action,
			UserID:     userID,
			UserName:   userName,
			Values:     make(map[string]any),
		}

		for _, f := range columns(e.schema) {
			v, zero := f.ValueOf(ctx, e.value)
			if e.action == models.ActionInsert && zero && storeGenerated(f) {
				seq++
				ph := Placeholder{seq: seq, field: f.Name}
				d.Values[f.Name] = ph
				d.Pending = append(d.Pending, f.Name)
				resolvers = append(resolvers, resolver{placeholder: ph, field: f, value: e.value})
				continue
			}
			if e.action == models.ActionUpdate && insertOnlyFields[f.Name] {
				// never part of the UPDATE statement
				d.Values[f.Name] = e.original[f.Name]
				continue
			}
			d.Values[f.Name] = detach(v)
		}
		for _, pk := range e.schema.PrimaryFields {
			d.EntityKey = append(d.EntityKey, d.Values[pk.Name])
		}

		drafts = append(drafts, d)
	}

	return drafts, resolvers, nil
}

// storeGenerated reports whether a zero value of f is filled in by the
// write itself: create hooks, auto increment, literal and database
// defaults.
func storeGenerated(f *schema.Field) bool {
	return f.PrimaryKey || f.AutoIncrement || f.HasDefaultValue
}
