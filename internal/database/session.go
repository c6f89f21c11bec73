package database

import (
	"context"
	"reflect"

	"persistence-core/internal/models"

	"gorm.io/gorm/schema"
)

type entryState int

const (
	stateUnchanged entryState = iota
	stateAdded
	stateDeleted
)

// entry is one entity attached to a Session.
type entry struct {
	entity   any
	value    reflect.Value
	schema   *schema.Schema
	state    entryState
	original map[string]any
}

// pendingEntry is an entry that takes part in the current save.
type pendingEntry struct {
	*entry
	action  models.ActionType
	changed []*schema.Field
}

// Session is the explicit unit of work the save pipeline consumes: the
// caller stages inserts and deletes and attaches loaded entities whose
// snapshot decides whether they were modified. A Session is not safe for
// concurrent use; independent sessions of one Store may save concurrently.
type Session struct {
	store   *Store
	entries []*entry
	index   map[any]*entry
}

// Add stages entity for insertion.
func (s *Session) Add(entity any) error {
	if err := checkEntity(entity); err != nil {
		return err
	}
	if e, ok := s.index[entity]; ok {
		if e.state == stateDeleted {
			e.state = stateUnchanged
		}
		return nil
	}
	_, err := s.attach(entity, stateAdded)
	return err
}

// Track attaches an already persisted entity. Its current field values
// become the baseline for change detection.
func (s *Session) Track(entity any) error {
	if err := checkEntity(entity); err != nil {
		return err
	}
	if _, ok := s.index[entity]; ok {
		return nil
	}
	_, err := s.attach(entity, stateUnchanged)
	return err
}

// Remove stages entity for deletion. An entity added but never saved is
// simply forgotten.
func (s *Session) Remove(entity any) error {
	if err := checkEntity(entity); err != nil {
		return err
	}
	e, ok := s.index[entity]
	if !ok {
		_, err := s.attach(entity, stateDeleted)
		return err
	}
	if e.state == stateAdded {
		s.forget(e)
		return nil
	}
	e.state = stateDeleted
	return nil
}

// Len is the number of attached entities.
func (s *Session) Len() int { return len(s.entries) }

func (s *Session) attach(entity any, state entryState) (*entry, error) {
	sch, rv, err := parseEntity(s.store.db, entity)
	if err != nil {
		return nil, err
	}
	e := &entry{entity: entity, value: rv, schema: sch, state: state}
	if state != stateAdded {
		e.original = snapshot(context.Background(), sch, rv)
	}
	s.entries = append(s.entries, e)
	s.index[entity] = e
	return e, nil
}

func (s *Session) forget(e *entry) {
	delete(s.index, e.entity)
	for i, x := range s.entries {
		if x == e {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// pending classifies the attached entries; unchanged ones are left out.
func (s *Session) pending(ctx context.Context) []*pendingEntry {
	var out []*pendingEntry
	for _, e := range s.entries {
		switch e.state {
		case stateAdded:
			out = append(out, &pendingEntry{entry: e, action: models.ActionInsert})
		case stateDeleted:
			out = append(out, &pendingEntry{entry: e, action: models.ActionDelete})
		default:
			restoreInsertOnly(ctx, e.schema, e.value, e.original)
			if changed := changedFields(ctx, e.schema, e.value, e.original); len(changed) > 0 {
				out = append(out, &pendingEntry{entry: e, action: models.ActionUpdate, changed: changed})
			}
		}
	}
	return out
}

// accept rebases the session on what was just committed.
func (s *Session) accept(ctx context.Context, written []*pendingEntry) {
	for _, p := range written {
		if p.action == models.ActionDelete {
			s.forget(p.entry)
			continue
		}
		p.state = stateUnchanged
		p.original = snapshot(ctx, p.schema, p.value)
	}
}
