package vmap

import (
	"github.com/cespare/xxhash/v2"
)

// StoragePolicy is a pluggable key-lookup strategy for PolicyContainer.
// Policies carry no locking of their own; they are meant for single-owner
// or externally-synchronized use.
type StoragePolicy interface {
	Set(key string, v *Value)
	Get(key string) (*Value, bool)
	Contains(key string) bool
	Remove(key string) bool
	Clear()
	Len() int
	Empty() bool
	// Each visits entries in insertion order until fn returns false.
	Each(fn func(key string, v *Value) bool)
}

// LinearPolicy stores entries in an ordered slice and looks keys up by
// linear scan. O(n) lookup and removal, minimal constant overhead, exact
// insertion order.
type LinearPolicy struct {
	entries []entry
}

var _ StoragePolicy = (*LinearPolicy)(nil)

func NewLinearPolicy() *LinearPolicy {
	return &LinearPolicy{}
}

func (p *LinearPolicy) find(key string) int {
	for i, e := range p.entries {
		if e.key == key {
			return i
		}
	}
	return -1
}

func (p *LinearPolicy) Set(key string, v *Value) {
	if i := p.find(key); i >= 0 {
		p.entries[i].val = v
		return
	}
	p.entries = append(p.entries, entry{key, v})
}

func (p *LinearPolicy) Get(key string) (*Value, bool) {
	if i := p.find(key); i >= 0 {
		return p.entries[i].val, true
	}
	return nil, false
}

func (p *LinearPolicy) Contains(key string) bool {
	return p.find(key) >= 0
}

func (p *LinearPolicy) Remove(key string) bool {
	i := p.find(key)
	if i < 0 {
		return false
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)
	return true
}

func (p *LinearPolicy) Clear() {
	p.entries = nil
}

func (p *LinearPolicy) Len() int {
	return len(p.entries)
}

func (p *LinearPolicy) Empty() bool {
	return len(p.entries) == 0
}

func (p *LinearPolicy) Each(fn func(key string, v *Value) bool) {
	for _, e := range p.entries {
		if !fn(e.key, e.val) {
			return
		}
	}
}

// HashedPolicy keeps the same ordered slice plus an xxhash(key)→positions
// index for O(1) average lookup. Removal stays O(n): trailing positions in
// the index must be decremented to stay consistent with the compacted
// slice. That cost is deliberate; it buys exact insertion order.
type HashedPolicy struct {
	entries []entry
	index   map[uint64][]int
}

var _ StoragePolicy = (*HashedPolicy)(nil)

func NewHashedPolicy() *HashedPolicy {
	return &HashedPolicy{index: make(map[uint64][]int)}
}

// find probes the hash bucket and confirms by key comparison, so hash
// collisions degrade to a short scan instead of a wrong answer.
func (p *HashedPolicy) find(key string) (uint64, int) {
	h := xxhash.Sum64String(key)
	for _, i := range p.index[h] {
		if p.entries[i].key == key {
			return h, i
		}
	}
	return h, -1
}

func (p *HashedPolicy) Set(key string, v *Value) {
	h, i := p.find(key)
	if i >= 0 {
		p.entries[i].val = v
		return
	}
	p.index[h] = append(p.index[h], len(p.entries))
	p.entries = append(p.entries, entry{key, v})
}

func (p *HashedPolicy) Get(key string) (*Value, bool) {
	if _, i := p.find(key); i >= 0 {
		return p.entries[i].val, true
	}
	return nil, false
}

func (p *HashedPolicy) Contains(key string) bool {
	_, i := p.find(key)
	return i >= 0
}

func (p *HashedPolicy) Remove(key string) bool {
	h, i := p.find(key)
	if i < 0 {
		return false
	}
	p.entries = append(p.entries[:i], p.entries[i+1:]...)

	bucket := p.index[h]
	for bi, pos := range bucket {
		if pos == i {
			bucket = append(bucket[:bi], bucket[bi+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(p.index, h)
	} else {
		p.index[h] = bucket
	}

	// Every position past the removed slot shifted left by one.
	for hh, bucket := range p.index {
		for bi, pos := range bucket {
			if pos > i {
				bucket[bi] = pos - 1
			}
		}
		p.index[hh] = bucket
	}
	return true
}

func (p *HashedPolicy) Clear() {
	p.entries = nil
	p.index = make(map[uint64][]int)
}

func (p *HashedPolicy) Len() int {
	return len(p.entries)
}

func (p *HashedPolicy) Empty() bool {
	return len(p.entries) == 0
}

func (p *HashedPolicy) Each(fn func(key string, v *Value) bool) {
	for _, e := range p.entries {
		if !fn(e.key, e.val) {
			return
		}
	}
}
