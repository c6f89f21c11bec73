package database

import (
	"context"
	"fmt"

	"persistence-core/internal/identity"
	"persistence-core/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Save is SaveContext with a background context.
func (s *Session) Save(actor identity.Identity) (int64, error) {
	return s.SaveContext(context.Background(), actor)
}

// SaveContext writes every staged change and returns the number of rows
// the primary write affected.
//
// With auditing enabled the steps are: stamp, capture audit drafts, commit
// the primary write, then resolve store-generated values and commit the
// audit records. A failure of that last step is reported as
// *AuditIncompleteError: the data change is already durable.
func (s *Session) SaveContext(ctx context.Context, actor identity.Identity) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pending := s.pending(ctx)
	if len(pending) == 0 {
		return 0, nil
	}

	st := s.store
	log := st.log.WithFields(logrus.Fields{
		"entries":  len(pending),
		"auditing": st.auditing,
	})

	if err := st.stamper.stamp(ctx, pending, actor, st.auditing); err != nil {
		log.WithError(err).Warn("save rejected")
		return 0, err
	}
	log.Debug("stamped")

	if !st.auditing {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := st.writePrimary(ctx, pending)
		if err != nil {
			return 0, err
		}
		s.accept(ctx, pending)
		log.WithField("rows", n).Debug("saved")
		return n, nil
	}

	drafts, resolvers, err := detect(ctx, pending, actor)
	if err != nil {
		log.WithError(err).Error("audit capture failed, nothing written")
		return 0, err
	}
	log.WithField("drafts", len(drafts)).Debug("audit drafts captured")

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n, err := st.writePrimary(ctx, pending)
	if err != nil {
		return 0, err
	}
	s.accept(ctx, pending)
	log.WithField("rows", n).Debug("primary write committed")

	audited, err := st.writeAudit(ctx, drafts, resolvers)
	if err != nil {
		log.WithError(err).WithField("rows", n).Error("data saved but audit trail incomplete")
		return n, &AuditIncompleteError{Committed: n, Err: err}
	}
	log.WithFields(logrus.Fields{"rows": n, "audited": audited}).Debug("saved")

	return n, nil
}

// writePrimary applies the staged changes in one transaction.
func (s *Store) writePrimary(ctx context.Context, pending []*pendingEntry) (int64, error) {
	var rows int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows = 0
		for _, e := range pending {
			n, err := applyEntry(ctx, tx, e)
			if err != nil {
				return fmt.Errorf("%s %s: %w", e.action, e.schema.Name, err)
			}
			rows += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("primary write: %w", err)
	}
	return rows, nil
}

func applyEntry(ctx context.Context, tx *gorm.DB, e *pendingEntry) (int64, error) {
	var res *gorm.DB

	switch e.action {
	case models.ActionInsert:
		res = tx.Omit(clause.Associations).Create(e.entity)
	case models.ActionUpdate:
		// re-diff so stamped columns are included
		var cols []string
		for _, f := range changedFields(ctx, e.schema, e.value, e.original) {
			if !insertOnlyFields[f.Name] {
				cols = append(cols, f.DBName)
			}
		}
		if len(cols) == 0 {
			return 0, nil
		}
		res = tx.Model(e.entity).Select(cols).Updates(e.entity)
	case models.ActionDelete:
		res = tx.Delete(e.entity)
	}

	if res.Error != nil {
		return 0, res.Error
	}
	if e.action != models.ActionInsert && res.RowsAffected == 0 {
		return 0, ErrStaleEntity
	}
	return res.RowsAffected, nil
}
