package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"persistence-core/internal/identity"
	"persistence-core/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_StrictlyIncreasing(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newClock(fixedClock(start, 0))

	first := c.Now()
	second := c.Now()
	third := c.Now()

	assert.True(t, first.Equal(start))
	assert.True(t, second.After(first))
	assert.True(t, third.After(second))
	assert.Equal(t, time.Microsecond, third.Sub(second))
}

func TestClock_RoundsUpToMicrosecond(t *testing.T) {
	raw := time.Date(2024, 1, 1, 0, 0, 0, 1500, time.UTC)
	c := newClock(fixedClock(raw, time.Nanosecond))

	got := c.Now()
	assert.Equal(t, 2000, got.Nanosecond())
	assert.False(t, got.Before(raw))
}

func TestClock_BackwardsJumpIgnored(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := newClock(fixedClock(start, -time.Hour))

	prev := c.Now()
	for i := 0; i < 5; i++ {
		next := c.Now()
		require.True(t, next.After(prev))
		prev = next
	}
}

func TestClock_Concurrent(t *testing.T) {
	c := newClock(nil)

	const n = 200
	out := make(chan time.Time, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out <- c.Now()
		}()
	}
	wg.Wait()
	close(out)

	seen := make(map[time.Time]bool, n)
	for ts := range out {
		assert.False(t, seen[ts], "duplicate instant %s", ts)
		seen[ts] = true
	}
}

func TestStampEntity_InsertSetsBothTimestamps(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	w := &widget{}
	id := alice.UserID()

	stampEntity(w, true, now, &id)

	assert.True(t, w.CreatedAt.Equal(now))
	assert.True(t, w.LastUpdatedAt.Equal(now))
	require.NotNil(t, w.CreatedByID)
	require.NotNil(t, w.LastUpdatedByID)
	assert.Equal(t, id, *w.CreatedByID)
	assert.Equal(t, id, *w.LastUpdatedByID)
	assert.NotSame(t, w.CreatedByID, w.LastUpdatedByID)
}

func TestStampEntity_UpdateNeverMovesBackwards(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	future := created.Add(time.Hour)

	w := &widget{}
	w.CreatedAt = created
	w.LastUpdatedAt = future

	stampEntity(w, false, created.Add(time.Minute), nil)

	assert.True(t, w.CreatedAt.Equal(created))
	assert.True(t, w.LastUpdatedAt.After(future))
	assert.Nil(t, w.LastUpdatedByID)
}

func TestStampEntity_TimestampedOnly(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	g := &gadget{}
	id := bob.UserID()

	stampEntity(g, true, now, &id)

	assert.True(t, g.CreatedAt.Equal(now))
	assert.True(t, g.LastUpdatedAt.Equal(now))
}

func TestStamper_ActorRequired(t *testing.T) {
	st := &stamper{clock: newClock(nil)}

	insert := []*pendingEntry{{entry: &entry{entity: &widget{}}, action: models.ActionInsert}}
	err := st.stamp(context.Background(), insert, identity.None, true)
	assert.ErrorIs(t, err, ErrActorRequired)

	// deletes and timestamp-only entities need no actor
	other := []*pendingEntry{
		{entry: &entry{entity: &widget{}}, action: models.ActionDelete},
		{entry: &entry{entity: &gadget{}}, action: models.ActionInsert},
	}
	assert.NoError(t, st.stamp(context.Background(), other, identity.None, true))
	assert.NoError(t, st.stamp(context.Background(), insert, nil, false))
}

func TestStamper_OneInstantPerSave(t *testing.T) {
	st := &stamper{clock: newClock(nil)}

	a, b := &widget{}, &gadget{}
	entries := []*pendingEntry{
		{entry: &entry{entity: a}, action: models.ActionInsert},
		{entry: &entry{entity: b}, action: models.ActionInsert},
	}
	require.NoError(t, st.stamp(context.Background(), entries, alice, true))

	assert.False(t, a.CreatedAt.IsZero())
	assert.True(t, a.CreatedAt.Equal(b.CreatedAt))
}
