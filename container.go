package vmap

import (
	"sync"
	"sync/atomic"
)

// Header defaults, matching the wire peers this format originated with.
const (
	DefaultMessageType = "data_container"
	DefaultVersion     = "1.0.0.0"
)

type entry struct {
	key string
	val *Value
}

// Container is a concurrent, insertion-order-preserving store of named
// values guarded by a single reader-writer lock. Point reads take the
// shared lock; mutations take the exclusive lock. A container may itself be
// embedded as a nested-container payload of a Value and thus shared between
// owners; the wire codec's cycle guard keeps self-referential graphs
// encodable.
type Container struct {
	mu      sync.RWMutex
	entries []entry
	index   map[string]int

	sourceID    string
	sourceSubID string
	targetID    string
	targetSubID string
	messageType string
	version     string

	reads      atomic.Uint64
	writes     atomic.Uint64
	bulkReads  atomic.Uint64
	bulkWrites atomic.Uint64
}

// NewContainer returns an empty container with the default message type and
// version.
func NewContainer() *Container {
	return &Container{
		index:       make(map[string]int),
		messageType: DefaultMessageType,
		version:     DefaultVersion,
	}
}

func (c *Container) SourceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sourceID
}

func (c *Container) SourceSubID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sourceSubID
}

func (c *Container) TargetID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.targetID
}

func (c *Container) TargetSubID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.targetSubID
}

func (c *Container) MessageType() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messageType
}

func (c *Container) Version() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

func (c *Container) SetSource(id, subID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourceID, c.sourceSubID = id, subID
}

func (c *Container) SetTarget(id, subID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetID, c.targetSubID = id, subID
}

func (c *Container) SetMessageType(t string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messageType = t
}

func (c *Container) SetVersion(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = v
}

// SwapHeader exchanges the source and target identifiers, turning a request
// header into a reply header.
func (c *Container) SwapHeader() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sourceID, c.targetID = c.targetID, c.sourceID
	c.sourceSubID, c.targetSubID = c.targetSubID, c.sourceSubID
}

// Get returns the value stored under key.
func (c *Container) Get(key string) (*Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.reads.Add(1)
	i, ok := c.index[key]
	if !ok {
		return nil, false
	}
	return c.entries[i].val, true
}

// Set stores v under key, replacing any existing value in place (insertion
// order of the key is preserved across replacement).
func (c *Container) Set(key string, v *Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, v)
	c.writes.Add(1)
}

func (c *Container) setLocked(key string, v *Value) {
	if i, ok := c.index[key]; ok {
		c.entries[i].val = v
		return
	}
	c.index[key] = len(c.entries)
	c.entries = append(c.entries, entry{key, v})
}

// Put stores v under its own name. Values stored this way round-trip their
// key through serialization exactly.
func (c *Container) Put(v *Value) {
	c.Set(v.Name(), v)
}

// Typed setters construct a value named after the key, mirroring the
// typical producer code path.

func (c *Container) SetBool(key string, v bool)       { c.Set(key, NewBool(key, v)) }
func (c *Container) SetInt32(key string, v int32)     { c.Set(key, NewInt32(key, v)) }
func (c *Container) SetInt64(key string, v int64)     { c.Set(key, NewInt64(key, v)) }
func (c *Container) SetUint64(key string, v uint64)   { c.Set(key, NewUint64(key, v)) }
func (c *Container) SetFloat64(key string, v float64) { c.Set(key, NewFloat64(key, v)) }
func (c *Container) SetString(key string, v string)   { c.Set(key, NewString(key, v)) }
func (c *Container) SetBytes(key string, v []byte)    { c.Set(key, NewBytes(key, v)) }
func (c *Container) SetNested(key string, v *Container) {
	c.Set(key, NewNested(key, v))
}

// Remove deletes the value stored under key, reporting whether anything was
// removed. Removing a missing key is not an error.
func (c *Container) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.removeLocked(key)
	if ok {
		c.writes.Add(1)
	}
	return ok
}

func (c *Container) removeLocked(key string) bool {
	i, ok := c.index[key]
	if !ok {
		return false
	}
	copy(c.entries[i:], c.entries[i+1:])
	c.entries = c.entries[:len(c.entries)-1]
	delete(c.index, key)
	for j := i; j < len(c.entries); j++ {
		c.index[c.entries[j].key] = j
	}
	return true
}

func (c *Container) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.reads.Add(1)
	_, ok := c.index[key]
	return ok
}

func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Container) Empty() bool {
	return c.Len() == 0
}

// Keys returns the keys in insertion order.
func (c *Container) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, len(c.entries))
	for i, e := range c.entries {
		keys[i] = e.key
	}
	return keys
}

// Clear removes all values. Header fields are untouched.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
	c.index = make(map[string]int)
	c.writes.Add(1)
}

// ForEach calls fn for every key/value pair in insertion order under the
// shared lock. fn must not call back into the container.
func (c *Container) ForEach(fn func(key string, v *Value)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		fn(e.key, e.val)
	}
}

// Bulk is the view handed to BulkRead/BulkUpdate callbacks. It operates on
// the container without re-acquiring the lock, which the enclosing bulk
// call already holds.
type Bulk struct {
	c        *Container
	writable bool
}

func (b *Bulk) Get(key string) (*Value, bool) {
	i, ok := b.c.index[key]
	if !ok {
		return nil, false
	}
	return b.c.entries[i].val, true
}

func (b *Bulk) Contains(key string) bool {
	_, ok := b.c.index[key]
	return ok
}

func (b *Bulk) Len() int {
	return len(b.c.entries)
}

func (b *Bulk) Each(fn func(key string, v *Value) bool) {
	for _, e := range b.c.entries {
		if !fn(e.key, e.val) {
			return
		}
	}
}

func (b *Bulk) Set(key string, v *Value) {
	if !b.writable {
		panic("vmap: Set inside BulkRead")
	}
	b.c.setLocked(key, v)
}

func (b *Bulk) Remove(key string) bool {
	if !b.writable {
		panic("vmap: Remove inside BulkRead")
	}
	return b.c.removeLocked(key)
}

// BulkUpdate runs fn under one exclusive lock acquisition, amortizing
// multi-key transactions. fn must not call the container's own methods.
func (c *Container) BulkUpdate(fn func(b *Bulk)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&Bulk{c, true})
	c.bulkWrites.Add(1)
}

// BulkRead runs fn under one shared lock acquisition. fn must not mutate
// and must not call the container's own methods.
func (c *Container) BulkRead(fn func(b *Bulk)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.bulkReads.Add(1)
	fn(&Bulk{c, false})
}

// CompareExchange replaces the value under key with desired iff the current
// value equals expected. Returns false if the key is absent or the current
// value differs.
func (c *Container) CompareExchange(key string, expected, desired *Value) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[key]
	if !ok {
		return false
	}
	if !c.entries[i].val.Equal(expected) {
		return false
	}
	c.entries[i].val = desired
	c.writes.Add(1)
	return true
}

// Stats is a point-in-time snapshot of the container's operation counters.
type Stats struct {
	Reads      uint64
	Writes     uint64
	BulkReads  uint64
	BulkWrites uint64
	Len        int
}

func (c *Container) Stats() Stats {
	return Stats{
		Reads:      c.reads.Load(),
		Writes:     c.writes.Load(),
		BulkReads:  c.bulkReads.Load(),
		BulkWrites: c.bulkWrites.Load(),
		Len:        c.Len(),
	}
}

// headerIsDefaultLocked reports whether every header field still has its
// zero/default value, in which case the envelope omits the header block.
func (c *Container) headerIsDefaultLocked() bool {
	return c.sourceID == "" && c.sourceSubID == "" &&
		c.targetID == "" && c.targetSubID == "" &&
		c.messageType == DefaultMessageType && c.version == DefaultVersion
}

// Serialize returns the wire-format envelope of the container: flags,
// optional header block, then every value in insertion order.
func (c *Container) Serialize() []byte {
	return c.AppendSerialized(nil)
}

// AppendSerialized appends the envelope to buf and returns the extended
// buffer.
func (c *Container) AppendSerialized(buf []byte) []byte {
	g := make(encodeGuard)
	g.enter(c)
	return c.appendEnvelope(buf, g)
}

// appendEnvelope requires that the caller has already entered c into g;
// a nested reference back to c then encodes as absent instead of
// re-acquiring c's lock.
func (c *Container) appendEnvelope(buf []byte, g encodeGuard) []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var flags byte
	if !c.headerIsDefaultLocked() {
		flags |= envFlagHeader
	}
	buf = appendByte(buf, flags)
	if flags&envFlagHeader != 0 {
		buf = appendVarString(buf, c.sourceID)
		buf = appendVarString(buf, c.sourceSubID)
		buf = appendVarString(buf, c.targetID)
		buf = appendVarString(buf, c.targetSubID)
		buf = appendVarString(buf, c.messageType)
		buf = appendVarString(buf, c.version)
	}
	buf = appendUint32(buf, uint32(len(c.entries)))
	for _, e := range c.entries {
		buf = appendValue(buf, e.val, g)
	}
	return buf
}

// DeserializeContainer reconstructs a container from its envelope. Values
// are keyed by their own names. Malformed input yields a nil container and
// a DataError; the function never panics and never reads past data.
func DeserializeContainer(data []byte) (*Container, error) {
	d := makeByteDecoder(data)
	c, err := decodeEnvelope(&d)
	if err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, dataErrf(data, d.Off(), nil, "%d trailing bytes after container", d.Remaining())
	}
	return c, nil
}

func decodeEnvelope(d *byteDecoder) (*Container, error) {
	flags, err := d.Byte()
	if err != nil {
		return nil, err
	}
	if flags&^envFlagHeader != 0 {
		return nil, dataErrf(d.Orig, d.Off()-1, nil, "unknown envelope flags %#x", flags)
	}
	c := NewContainer()
	if flags&envFlagHeader != 0 {
		fields := [6]*string{
			&c.sourceID, &c.sourceSubID,
			&c.targetID, &c.targetSubID,
			&c.messageType, &c.version,
		}
		for _, f := range fields {
			s, err := d.VarString()
			if err != nil {
				return nil, err
			}
			*f = s
		}
	}
	count, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if int64(count)*wireMinValue > int64(d.Remaining()) {
		return nil, dataErrf(d.Orig, d.Off()-4, nil, "value count %d exceeds remaining data %d", count, d.Remaining())
	}
	for i := uint32(0); i < count; i++ {
		v, err := decodeValue(d)
		if err != nil {
			return nil, err
		}
		c.setLocked(v.Name(), v)
	}
	return c, nil
}
