// Package collision detects hash collisions among conditioning-group
// keys. Group lookups key on a 64-bit hash of the conditioning values;
// the tracker keeps the canonical string form per hash so two distinct
// combinations hashing to the same key fail loudly instead of silently
// sharing statistics.
package collision

import "errors"

// ErrKeyCollision is returned when two distinct canonical forms map to
// the same hash.
var ErrKeyCollision = errors.New("group key hash collision")

// Tracker records the canonical form seen for each group hash.
type Tracker struct {
	canonical map[uint64]string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{canonical: make(map[uint64]string)}
}

// Track registers a hash with its canonical form. It returns
// ErrKeyCollision when the hash was seen before with a different
// canonical form; re-tracking the same pair is a no-op.
func (t *Tracker) Track(hash uint64, canonical string) error {
	if prev, ok := t.canonical[hash]; ok {
		if prev != canonical {
			return ErrKeyCollision
		}

		return nil
	}
	t.canonical[hash] = canonical

	return nil
}

// Canonical returns the canonical form tracked for a hash.
func (t *Tracker) Canonical(hash uint64) (string, bool) {
	v, ok := t.canonical[hash]

	return v, ok
}

// Len returns the number of distinct hashes tracked.
func (t *Tracker) Len() int {
	return len(t.canonical)
}

// Snapshot returns a copy of the hash-to-canonical map, for persisting
// fitted group keys.
func (t *Tracker) Snapshot() map[uint64]string {
	out := make(map[uint64]string, len(t.canonical))
	for k, v := range t.canonical {
		out[k] = v
	}

	return out
}

// FromSnapshot rebuilds a tracker from a persisted map.
func FromSnapshot(m map[uint64]string) *Tracker {
	t := NewTracker()
	for k, v := range m {
		t.canonical[k] = v
	}

	return t
}
