package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChangeRecord is one committed property change observed by a
// ChangeJournal.
type ChangeRecord struct {
	ID       string
	At       time.Time
	Member   string
	Property string
	Value    any
}

// defaultJournalCapacity bounds a journal when no capacity is given.
const defaultJournalCapacity = 1024

// ChangeJournal is a bounded in-memory ChangeListener that keeps an
// ordered record of committed property changes. It never vetoes a
// change; rejected and failed mutations are not recorded. When the
// journal is full the oldest records fall off first.
type ChangeJournal struct {
	mu       sync.RWMutex
	entries  []ChangeRecord
	capacity int
	now      func() time.Time
}

// NewChangeJournal creates a journal holding at most capacity records.
// A capacity of zero or less falls back to the default.
func NewChangeJournal(capacity int) *ChangeJournal {
	if capacity <= 0 {
		capacity = defaultJournalCapacity
	}
	return &ChangeJournal{
		capacity: capacity,
		now:      time.Now,
	}
}

// Changing implements ChangeListener
func (j *ChangeJournal) Changing(ctx context.Context, change Change) error {
	return nil
}

// Changed implements ChangeListener
func (j *ChangeJournal) Changed(ctx context.Context, change Change) {
	record := ChangeRecord{
		ID:       uuid.New().String(),
		At:       j.now(),
		Member:   change.Member,
		Property: change.Property,
		Value:    change.Value,
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, record)
	if len(j.entries) > j.capacity {
		j.entries = j.entries[len(j.entries)-j.capacity:]
	}
}

// Len returns the number of records currently held.
func (j *ChangeJournal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// Entries returns a copy of all records in commit order.
func (j *ChangeJournal) Entries() []ChangeRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]ChangeRecord, len(j.entries))
	copy(out, j.entries)
	return out
}

// ByProperty returns the records for one property in commit order.
func (j *ChangeJournal) ByProperty(property string) []ChangeRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []ChangeRecord
	for _, e := range j.entries {
		if e.Property == property {
			out = append(out, e)
		}
	}
	return out
}

// Since returns the records committed at or after t.
func (j *ChangeJournal) Since(t time.Time) []ChangeRecord {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []ChangeRecord
	for _, e := range j.entries {
		if !e.At.Before(t) {
			out = append(out, e)
		}
	}
	return out
}

// Clear drops records older than the given age and returns how many were
// removed.
func (j *ChangeJournal) Clear(olderThan time.Duration) int {
	cutoff := j.now().Add(-olderThan)

	j.mu.Lock()
	defer j.mu.Unlock()

	kept := j.entries[:0]
	for _, e := range j.entries {
		if !e.At.Before(cutoff) {
			kept = append(kept, e)
		}
	}

	removed := len(j.entries) - len(kept)
	j.entries = kept
	return removed
}
