package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeJournal(t *testing.T) {
	t.Run("records committed changes in order", func(t *testing.T) {
		j := NewChangeJournal(10)
		h := NewChangeNotificationHandler(j)

		for _, status := range []string{"open", "closed"} {
			inv := newInvocation(t, "SetStatus", status)
			err := h.Handle(context.Background(), inv, succeedWith())
			require.NoError(t, err)
		}

		entries := j.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "Status", entries[0].Property)
		assert.Equal(t, "open", entries[0].Value)
		assert.Equal(t, "closed", entries[1].Value)
		assert.Equal(t, "SetStatus", entries[0].Member)
		assert.NotEmpty(t, entries[0].ID)
		assert.NotEqual(t, entries[0].ID, entries[1].ID)
	})

	t.Run("failed mutations are not recorded", func(t *testing.T) {
		j := NewChangeJournal(10)
		h := NewChangeNotificationHandler(j)

		boom := errors.New("storage offline")
		err := h.Handle(context.Background(), newInvocation(t, "SetStatus", "closed"), failWith(boom))

		assert.Equal(t, boom, err)
		assert.Zero(t, j.Len())
	})

	t.Run("journal never vetoes a change", func(t *testing.T) {
		j := NewChangeJournal(10)
		assert.NoError(t, j.Changing(context.Background(), Change{Member: "SetStatus", Property: "Status"}))
	})

	t.Run("oldest records fall off at capacity", func(t *testing.T) {
		j := NewChangeJournal(2)

		for _, v := range []string{"a", "b", "c"} {
			j.Changed(context.Background(), Change{Member: "SetStatus", Property: "Status", Value: v})
		}

		entries := j.Entries()
		require.Len(t, entries, 2)
		assert.Equal(t, "b", entries[0].Value)
		assert.Equal(t, "c", entries[1].Value)
	})

	t.Run("ByProperty filters records", func(t *testing.T) {
		j := NewChangeJournal(10)
		j.Changed(context.Background(), Change{Member: "SetStatus", Property: "Status", Value: "open"})
		j.Changed(context.Background(), Change{Member: "SetOwner", Property: "Owner", Value: "ops"})
		j.Changed(context.Background(), Change{Member: "SetStatus", Property: "Status", Value: "closed"})

		status := j.ByProperty("Status")
		require.Len(t, status, 2)
		assert.Equal(t, "open", status[0].Value)
		assert.Equal(t, "closed", status[1].Value)
		assert.Empty(t, j.ByProperty("Region"))
	})

	t.Run("Since and Clear respect record age", func(t *testing.T) {
		j := NewChangeJournal(10)
		current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		j.now = func() time.Time { return current }

		j.Changed(context.Background(), Change{Member: "SetStatus", Property: "Status", Value: "open"})
		current = current.Add(time.Hour)
		j.Changed(context.Background(), Change{Member: "SetStatus", Property: "Status", Value: "closed"})

		recent := j.Since(current.Add(-time.Minute))
		require.Len(t, recent, 1)
		assert.Equal(t, "closed", recent[0].Value)

		removed := j.Clear(30 * time.Minute)
		assert.Equal(t, 1, removed)
		require.Equal(t, 1, j.Len())
		assert.Equal(t, "closed", j.Entries()[0].Value)
	})

	t.Run("zero capacity falls back to the default", func(t *testing.T) {
		j := NewChangeJournal(0)
		j.Changed(context.Background(), Change{Member: "SetStatus", Property: "Status", Value: "open"})
		assert.Equal(t, 1, j.Len())
	})
}
