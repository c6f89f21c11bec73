package database

import (
	"context"
	"runtime"
	"sync"
	"time"

	"persistence-core/internal/identity"
	"persistence-core/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// clock hands out strictly increasing UTC instants with microsecond
// precision, the finest every supported provider stores losslessly.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newClock(now func() time.Time) *clock {
	if now == nil {
		now = time.Now
	}
	return &clock{now: now}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw := c.now().UTC()
	t := raw.Truncate(time.Microsecond)
	if t.Before(raw) {
		t = t.Add(time.Microsecond)
	}
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// stamper sets timestamps and attribution on staged entities.
type stamper struct {
	clock *clock
}

func (st *stamper) stamp(ctx context.Context, entries []*pendingEntry, actor identity.Identity, requireActor bool) error {
	var actorID *uuid.UUID
	if !identity.IsAbsent(actor) {
		id := actor.UserID()
		actorID = &id
	}

	if requireActor && actorID == nil {
		for _, e := range entries {
			if _, ok := e.entity.(models.Attributed); ok && e.action != models.ActionDelete {
				return ErrActorRequired
			}
		}
	}

	now := st.clock.Now()

	// entities are disjoint, so they can be stamped independently
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, e := range entries {
		if e.action == models.ActionDelete {
			continue
		}
		g.Go(func() error {
			stampEntity(e.entity, e.action == models.ActionInsert, now, actorID)
			return nil
		})
	}
	return g.Wait()
}

// stampCreated stamps records that are always inserted (audit entries).
func (st *stamper) stampCreated(items ...models.Timestamped) {
	now := st.clock.Now()
	for _, it := range items {
		stampEntity(it, true, now, nil)
	}
}

func stampEntity(entity any, inserted bool, now time.Time, actorID *uuid.UUID) {
	if ts, ok := entity.(models.Timestamped); ok {
		at := now
		if prev := ts.GetLastUpdatedAt(); !inserted && !at.After(prev) {
			at = prev.Add(time.Microsecond)
		}
		ts.SetLastUpdatedAt(at)
		if inserted {
			ts.SetCreatedAt(at)
		}
	}

	if a, ok := entity.(models.Attributed); ok && actorID != nil {
		a.SetLastUpdatedByID(copyID(actorID))
		if inserted {
			a.SetCreatedByID(copyID(actorID))
		}
	}
}

func copyID(id *uuid.UUID) *uuid.UUID {
	c := *id
	return &c
}
