package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"persistence-core/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// keySeparator joins the parts of a composite key in AuditEntry.EntityID.
const keySeparator = ","

// resolve reads the store-generated values after the primary commit.
func resolve(ctx context.Context, resolvers []resolver) map[Placeholder]any {
	out := make(map[Placeholder]any, len(resolvers))
	for _, r := range resolvers {
		v, _ := r.field.ValueOf(ctx, r.value)
		out[r.placeholder] = detach(v)
	}
	return out
}

// Finalize turns a draft into the audit record to persist, replacing
// every placeholder with its resolved value.
func Finalize(d AuditDraft, resolved map[Placeholder]any) (*models.AuditEntry, error) {
	values := make(map[string]any, len(d.Values))
	for k, v := range d.Values {
		values[k] = v
	}

	for _, name := range d.Pending {
		ph, ok := values[name].(Placeholder)
		if !ok {
			continue
		}
		final, ok := resolved[ph]
		if !ok {
			return nil, &ConsistencyError{Entity: d.EntityName, Err: fmt.Errorf("%w: %s", ErrUnresolvedPlaceholder, name)}
		}
		values[name] = final
	}

	if len(d.EntityKey) == 0 {
		return nil, &ConsistencyError{Entity: d.EntityName, Err: ErrMissingPrimaryKey}
	}
	parts := make([]string, 0, len(d.EntityKey))
	for _, part := range d.EntityKey {
		if ph, ok := part.(Placeholder); ok {
			final, ok := resolved[ph]
			if !ok {
				return nil, &ConsistencyError{Entity: d.EntityName, Err: fmt.Errorf("%w: primary key %s", ErrUnresolvedPlaceholder, ph.field)}
			}
			part = final
		}
		s, _ := stringify(part).(string)
		parts = append(parts, s)
	}

	changes := make(datatypes.JSONMap, len(values))
	for k, v := range values {
		changes[k] = stringify(v)
	}

	return &models.AuditEntry{
		EntityName:          d.EntityName,
		ActionType:          d.Action,
		EntityID:            strings.Join(parts, keySeparator),
		ApplicationUserID:   d.UserID,
		ApplicationUserName: d.UserName,
		Changes:             changes,
	}, nil
}

// stringify coerces a captured value to its text form; nil stays nil.
func stringify(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// writeAudit finalizes the drafts and persists them in one transaction.
func (s *Store) writeAudit(ctx context.Context, drafts []AuditDraft, resolvers []resolver) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}

	resolved := resolve(ctx, resolvers)

	entries := make([]*models.AuditEntry, 0, len(drafts))
	for _, d := range drafts {
		e, err := Finalize(d, resolved)
		if err != nil {
			return 0, err
		}
		entries = append(entries, e)
	}

	for _, e := range entries {
		s.stamper.stampCreated(e)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&entries).Error
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}
