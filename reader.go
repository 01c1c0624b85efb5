package vmap

import (
	"sync/atomic"
)

// snapshot is an immutable point-in-time copy of a container's key→value
// mapping. Published snapshots are never mutated, only wholesale-replaced,
// so readers holding one never need a lock.
type snapshot struct {
	values map[string]*Value
	keys   []string
}

// SnapshotReader is a read-copy-update view of a Container. Get is
// wait-free: one atomic load of the current snapshot pointer, then a map
// lookup in the immutable copy. Refresh rebuilds a snapshot under the
// source's ordinary read lock and publishes it with a release store;
// readers use an acquire load, so a reader observing the new pointer also
// observes everything that produced its contents.
//
// Staleness is bounded only by refresh cadence: a reader that has not
// refreshed keeps serving the old snapshot regardless of source mutations.
type SnapshotReader struct {
	source    *Container
	snap      atomic.Pointer[snapshot]
	refreshes atomic.Uint64
}

// NewSnapshotReader builds the reader and takes snapshot #0 immediately.
func NewSnapshotReader(source *Container) *SnapshotReader {
	r := &SnapshotReader{source: source}
	r.Refresh()
	return r
}

// Refresh builds a fresh snapshot from the source and publishes it.
// Concurrent refreshes race harmlessly; the loser's snapshot is simply
// replaced.
func (r *SnapshotReader) Refresh() {
	snap := &snapshot{
		values: make(map[string]*Value, r.source.Len()),
	}
	r.source.ForEach(func(key string, v *Value) {
		snap.values[key] = v.Clone()
		snap.keys = append(snap.keys, key)
	})
	r.snap.Store(snap)
	r.refreshes.Add(1)
}

// Get returns the value under key as of the current snapshot.
func (r *SnapshotReader) Get(key string) (*Value, bool) {
	v, ok := r.snap.Load().values[key]
	return v, ok
}

func (r *SnapshotReader) Contains(key string) bool {
	_, ok := r.snap.Load().values[key]
	return ok
}

func (r *SnapshotReader) Len() int {
	return len(r.snap.Load().values)
}

func (r *SnapshotReader) Empty() bool {
	return r.Len() == 0
}

// Keys returns the snapshot's keys in the source's insertion order.
func (r *SnapshotReader) Keys() []string {
	keys := r.snap.Load().keys
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// ForEach visits the current snapshot in insertion order. No locks are
// taken; a concurrent Refresh does not affect an in-progress iteration.
func (r *SnapshotReader) ForEach(fn func(key string, v *Value)) {
	snap := r.snap.Load()
	for _, key := range snap.keys {
		fn(key, snap.values[key])
	}
}

// RefreshCount returns the number of snapshots published so far, including
// the initial one.
func (r *SnapshotReader) RefreshCount() uint64 {
	return r.refreshes.Load()
}

// Source returns the container this reader snapshots.
func (r *SnapshotReader) Source() *Container {
	return r.source
}
