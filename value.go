package vmap

import (
	"bytes"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Value is a named, tagged value holding exactly one of the 16 payload kinds.
//
// The name is immutable; the payload is guarded by the value's own
// reader-writer lock, so a Value shared between containers stays consistent
// no matter which holder mutates it. Accessors return (T, ok) and never
// coerce: asking an int32 value for a string yields ok == false.
type Value struct {
	name string

	mu   sync.RWMutex
	kind Kind
	num  uint64 // bool, integer and float payloads (float bits)
	str  string
	blob []byte
	sub  *Container
	arr  []*Value

	reads  atomic.Uint64
	writes atomic.Uint64
}

// NewNull returns a null value with the given name.
func NewNull(name string) *Value {
	return &Value{name: name}
}

func NewBool(name string, v bool) *Value {
	var n uint64
	if v {
		n = 1
	}
	return &Value{name: name, kind: KindBool, num: n}
}

func NewInt16(name string, v int16) *Value {
	return &Value{name: name, kind: KindInt16, num: uint64(uint16(v))}
}

func NewUint16(name string, v uint16) *Value {
	return &Value{name: name, kind: KindUint16, num: uint64(v)}
}

func NewInt32(name string, v int32) *Value {
	return &Value{name: name, kind: KindInt32, num: uint64(uint32(v))}
}

func NewUint32(name string, v uint32) *Value {
	return &Value{name: name, kind: KindUint32, num: uint64(v)}
}

func NewInt64(name string, v int64) *Value {
	return &Value{name: name, kind: KindInt64, num: uint64(v)}
}

func NewUint64(name string, v uint64) *Value {
	return &Value{name: name, kind: KindUint64, num: v}
}

func NewFloat32(name string, v float32) *Value {
	return &Value{name: name, kind: KindFloat32, num: uint64(math.Float32bits(v))}
}

func NewFloat64(name string, v float64) *Value {
	return &Value{name: name, kind: KindFloat64, num: math.Float64bits(v)}
}

func NewString(name string, v string) *Value {
	return &Value{name: name, kind: KindString, str: v}
}

// NewBytes copies v into the new value.
func NewBytes(name string, v []byte) *Value {
	return &Value{name: name, kind: KindBytes, blob: bytes.Clone(v)}
}

// NewNested wraps a shared container as a value payload. The container is
// referenced, not copied; c may be nil (an absent nested container).
func NewNested(name string, c *Container) *Value {
	return &Value{name: name, kind: KindNested, sub: c}
}

// NewArray wraps an ordered sequence of shared values. Elements may be nil;
// a nil element encodes as a null placeholder.
func NewArray(name string, elems ...*Value) *Value {
	return &Value{name: name, kind: KindArray, arr: elems}
}

// Name returns the immutable name. Lock-free.
func (v *Value) Name() string {
	return v.name
}

// Kind returns the canonical logical tag of the current payload.
func (v *Value) Kind() Kind {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.kind
}

// IsNull reports whether the value currently holds no payload.
func (v *Value) IsNull() bool {
	return v.Kind() == KindNull
}

func (v *Value) AsBool() (bool, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindBool {
		return false, false
	}
	return v.num != 0, true
}

func (v *Value) AsInt16() (int16, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindInt16 {
		return 0, false
	}
	return int16(v.num), true
}

func (v *Value) AsUint16() (uint16, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindUint16 {
		return 0, false
	}
	return uint16(v.num), true
}

func (v *Value) AsInt32() (int32, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindInt32 {
		return 0, false
	}
	return int32(v.num), true
}

func (v *Value) AsUint32() (uint32, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindUint32 {
		return 0, false
	}
	return uint32(v.num), true
}

func (v *Value) AsInt64() (int64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindInt64 {
		return 0, false
	}
	return int64(v.num), true
}

func (v *Value) AsUint64() (uint64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindUint64 {
		return 0, false
	}
	return v.num, true
}

func (v *Value) AsFloat32() (float32, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindFloat32 {
		return 0, false
	}
	return math.Float32frombits(uint32(v.num)), true
}

func (v *Value) AsFloat64() (float64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindFloat64 {
		return 0, false
	}
	return math.Float64frombits(v.num), true
}

func (v *Value) AsString() (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsBytes returns a copy of the byte payload.
func (v *Value) AsBytes() ([]byte, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindBytes {
		return nil, false
	}
	return bytes.Clone(v.blob), true
}

// AsNested returns the shared nested container. The container may be nil
// if the payload is an absent nested container.
func (v *Value) AsNested() (*Container, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindNested {
		return nil, false
	}
	return v.sub, true
}

// AsArray returns a copy of the element slice; the elements themselves
// remain shared.
func (v *Value) AsArray() ([]*Value, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	v.reads.Add(1)
	if v.kind != KindArray {
		return nil, false
	}
	out := make([]*Value, len(v.arr))
	copy(out, v.arr)
	return out, true
}

// setPayload replaces the payload under the exclusive lock and bumps the
// write counter. Every typed setter funnels through here.
func (v *Value) setPayload(kind Kind, num uint64, str string, blob []byte, sub *Container, arr []*Value) {
	v.mu.Lock()
	v.kind = kind
	v.num = num
	v.str = str
	v.blob = blob
	v.sub = sub
	v.arr = arr
	v.mu.Unlock()
	v.writes.Add(1)
}

func (v *Value) SetNull() {
	v.setPayload(KindNull, 0, "", nil, nil, nil)
}

func (v *Value) SetBool(b bool) {
	var n uint64
	if b {
		n = 1
	}
	v.setPayload(KindBool, n, "", nil, nil, nil)
}

func (v *Value) SetInt16(n int16) {
	v.setPayload(KindInt16, uint64(uint16(n)), "", nil, nil, nil)
}

func (v *Value) SetUint16(n uint16) {
	v.setPayload(KindUint16, uint64(n), "", nil, nil, nil)
}

func (v *Value) SetInt32(n int32) {
	v.setPayload(KindInt32, uint64(uint32(n)), "", nil, nil, nil)
}

func (v *Value) SetUint32(n uint32) {
	v.setPayload(KindUint32, uint64(n), "", nil, nil, nil)
}

func (v *Value) SetInt64(n int64) {
	v.setPayload(KindInt64, uint64(n), "", nil, nil, nil)
}

func (v *Value) SetUint64(n uint64) {
	v.setPayload(KindUint64, n, "", nil, nil, nil)
}

func (v *Value) SetFloat32(f float32) {
	v.setPayload(KindFloat32, uint64(math.Float32bits(f)), "", nil, nil, nil)
}

func (v *Value) SetFloat64(f float64) {
	v.setPayload(KindFloat64, math.Float64bits(f), "", nil, nil, nil)
}

func (v *Value) SetString(s string) {
	v.setPayload(KindString, 0, s, nil, nil, nil)
}

func (v *Value) SetBytes(b []byte) {
	v.setPayload(KindBytes, 0, "", bytes.Clone(b), nil, nil)
}

func (v *Value) SetNested(c *Container) {
	v.setPayload(KindNested, 0, "", nil, c, nil)
}

func (v *Value) SetArray(elems ...*Value) {
	v.setPayload(KindArray, 0, "", nil, nil, elems)
}

// ReadCount returns the number of typed reads served so far.
func (v *Value) ReadCount() uint64 {
	return v.reads.Load()
}

// WriteCount returns the number of payload replacements so far.
func (v *Value) WriteCount() uint64 {
	return v.writes.Load()
}

// Clone returns an independent value with the same name and payload.
// Byte payloads are copied; nested containers and array elements are shared
// references, matching the shared-ownership model. Counters start at zero.
func (v *Value) Clone() *Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	c := &Value{
		name: v.name,
		kind: v.kind,
		num:  v.num,
		str:  v.str,
		sub:  v.sub,
	}
	c.blob = bytes.Clone(v.blob)
	if v.arr != nil {
		c.arr = make([]*Value, len(v.arr))
		copy(c.arr, v.arr)
	}
	return c
}

// Equal reports whether both values have the same name, kind and payload.
// Array payloads compare element-wise; nested containers compare by
// identity, since they are shared handles. Locks both values in a fixed
// identity order so that concurrent Equal calls on the same pair cannot
// deadlock.
func (v *Value) Equal(o *Value) bool {
	if v == o {
		return true
	}
	if v == nil || o == nil {
		return false
	}
	unlock := lockPairRead(v, o)
	defer unlock()
	if v.name != o.name || v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindBytes:
		return bytes.Equal(v.blob, o.blob)
	case KindNested:
		return v.sub == o.sub
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		a, b := v.arr, o.arr
		for i := range a {
			if a[i] == b[i] {
				continue
			}
			if a[i] == nil || b[i] == nil || !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	default:
		return v.num == o.num
	}
}

// Less defines a weak ordering on values: by name, then by kind tag, then,
// for array payloads, by element count alone. Scalar payloads of the same
// kind do not participate in the ordering, so Less reports false both ways
// for them. Uses the same fixed-identity-order locking as Equal.
func (v *Value) Less(o *Value) bool {
	if v == o {
		return false
	}
	unlock := lockPairRead(v, o)
	defer unlock()
	if v.name != o.name {
		return v.name < o.name
	}
	if v.kind != o.kind {
		return v.kind < o.kind
	}
	if v.kind == KindArray {
		return len(v.arr) < len(o.arr)
	}
	return false
}

// lockPairRead takes the read locks of both values in ascending address
// order and returns the matching unlock.
func lockPairRead(a, b *Value) func() {
	if a == b {
		a.mu.RLock()
		return a.mu.RUnlock
	}
	if uintptr(unsafe.Pointer(a)) > uintptr(unsafe.Pointer(b)) {
		a, b = b, a
	}
	a.mu.RLock()
	b.mu.RLock()
	return func() {
		b.mu.RUnlock()
		a.mu.RUnlock()
	}
}
