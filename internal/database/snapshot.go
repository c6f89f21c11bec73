package database

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// fields that are written once, at insert
var insertOnlyFields = map[string]bool{
	"CreatedAt":   true,
	"CreatedByID": true,
}

// checkEntity rejects anything but a non-nil pointer to a struct.
func checkEntity(entity any) error {
	rv := reflect.ValueOf(entity)
	if !rv.IsValid() || rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return &ConsistencyError{Entity: fmt.Sprintf("%T", entity), Err: ErrUnsupportedEntity}
	}
	return nil
}

func parseEntity(db *gorm.DB, entity any) (*schema.Schema, reflect.Value, error) {
	if err := checkEntity(entity); err != nil {
		return nil, reflect.Value{}, err
	}
	rv := reflect.ValueOf(entity)

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(entity); err != nil {
		return nil, reflect.Value{}, &ConsistencyError{Entity: fmt.Sprintf("%T", entity), Err: err}
	}
	return stmt.Schema, rv.Elem(), nil
}

// columns are the mapped scalar fields of s.
func columns(s *schema.Schema) []*schema.Field {
	out := make([]*schema.Field, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.DBName != "" && f.Readable {
			out = append(out, f)
		}
	}
	return out
}

func snapshot(ctx context.Context, s *schema.Schema, rv reflect.Value) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range columns(s) {
		v, _ := f.ValueOf(ctx, rv)
		out[f.Name] = detach(v)
	}
	return out
}

// changedFields compares the live entity against its snapshot.
func changedFields(ctx context.Context, s *schema.Schema, rv reflect.Value, original map[string]any) []*schema.Field {
	var changed []*schema.Field
	for _, f := range columns(s) {
		v, _ := f.ValueOf(ctx, rv)
		if !sameValue(original[f.Name], detach(v)) {
			changed = append(changed, f)
		}
	}
	return changed
}

// restoreInsertOnly puts the snapshot value back into every insert-only
// field, discarding caller edits the UPDATE statement would never carry.
func restoreInsertOnly(ctx context.Context, s *schema.Schema, rv reflect.Value, original map[string]any) {
	if original == nil {
		return
	}
	for _, f := range columns(s) {
		if !insertOnlyFields[f.Name] {
			continue
		}
		fv := f.ReflectValueOf(ctx, rv)
		if !fv.CanSet() {
			continue
		}
		setDetached(fv, original[f.Name])
	}
}

// setDetached is the inverse of detach for one field.
func setDetached(fv reflect.Value, v any) {
	if v == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return
	}
	ov := reflect.ValueOf(v)
	if fv.Kind() == reflect.Ptr && ov.Type().AssignableTo(fv.Type().Elem()) {
		p := reflect.New(fv.Type().Elem())
		p.Elem().Set(ov)
		fv.Set(p)
		return
	}
	if ov.Type().AssignableTo(fv.Type()) {
		fv.Set(ov)
	}
}

// detach copies v so later in-place mutation of the entity does not leak
// into a snapshot. Nil pointers become untyped nil.
func detach(v any) any {
	if v == nil {
		return nil
	}
	if b, ok := v.([]byte); ok {
		return append([]byte(nil), b...)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		return detach(rv.Elem().Interface())
	}
	return v
}

func sameValue(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}
