package database

import (
	"time"

	"persistence-core/internal/logging"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Options struct {
	// Auditing is fixed for the lifetime of the Store.
	Auditing bool
	Logger   logrus.FieldLogger
	// Now overrides the wall clock (tests).
	Now func() time.Time
}

// Store is the entry point of the audited save pipeline.
type Store struct {
	db       *gorm.DB
	auditing bool
	log      logrus.FieldLogger
	stamper  *stamper
}

func NewStore(db *gorm.DB, opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		db:       db,
		auditing: opts.Auditing,
		log:      log.WithField("component", "store"),
		stamper:  &stamper{clock: newClock(opts.Now)},
	}
}

func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Auditing() bool { return s.auditing }

// Session opens a new unit of work.
func (s *Store) Session() *Session {
	return &Session{store: s, index: make(map[any]*entry)}
}
