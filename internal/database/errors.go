package database

import (
	"errors"
	"fmt"
)

var (
	// ErrActorRequired: auditing is on but the save carries no principal.
	ErrActorRequired = errors.New("acting principal required while auditing is enabled")

	ErrMissingPrimaryKey     = errors.New("entity has no primary key")
	ErrUnresolvedPlaceholder = errors.New("store-generated value was not resolved")
	ErrUnsupportedEntity     = errors.New("entity must be a non-nil pointer to a struct")

	// ErrStaleEntity: an update or delete matched no row.
	ErrStaleEntity = errors.New("entity row not found")
)

// ConsistencyError reports a mapping defect found while preparing a save.
// Nothing has been written when it is returned.
type ConsistencyError struct {
	Entity string
	Err    error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("consistency error on %s: %v", e.Entity, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// AuditIncompleteError is returned when the primary write committed but the
// audit records could not be written. Retrying the save would re-apply the
// data change.
type AuditIncompleteError struct {
	Committed int64
	Err       error
}

func (e *AuditIncompleteError) Error() string {
	return fmt.Sprintf("data saved (%d rows) but audit trail incomplete: %v", e.Committed, e.Err)
}

func (e *AuditIncompleteError) Unwrap() error { return e.Err }

func IsAuditIncomplete(err error) bool {
	var target *AuditIncompleteError
	return errors.As(err, &target)
}
