package vmap

import (
	"encoding/json"
	"fmt"
	"math"
)

// JSON rendering is a read-only projection: {"name", "kind", "value"} per
// value, {"header"?, "values"} per container. It shares the wire codec's
// cycle guard, so a self-referential container renders as null instead of
// recursing.

func (v *Value) payloadAny(g encodeGuard) any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.num != 0
	case KindInt16:
		return int16(v.num)
	case KindUint16:
		return uint16(v.num)
	case KindInt32:
		return int32(v.num)
	case KindUint32:
		return uint32(v.num)
	case KindInt64:
		return int64(v.num)
	case KindUint64:
		return v.num
	case KindFloat32:
		return math.Float32frombits(uint32(v.num))
	case KindFloat64:
		return math.Float64frombits(v.num)
	case KindString:
		return v.str
	case KindBytes:
		return v.blob // encoding/json renders []byte as base64
	case KindNested:
		c := v.sub
		if c == nil || !g.enter(c) {
			return nil
		}
		defer g.leave(c)
		return c.jsonObj(g)
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			if e != nil {
				out[i] = e.jsonObj(g)
			}
		}
		return out
	}
	return nil
}

func (v *Value) jsonObj(g encodeGuard) map[string]any {
	v.mu.RLock()
	kind := v.kind
	v.mu.RUnlock()
	return map[string]any{
		"name":  v.name,
		"kind":  kind.String(),
		"value": v.payloadAny(g),
	}
}

func (v *Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.jsonObj(make(encodeGuard)))
}

// String renders the value as name:kind=payload for logs and tests.
func (v *Value) String() string {
	v.mu.RLock()
	kind := v.kind
	v.mu.RUnlock()
	if kind == KindBytes {
		v.mu.RLock()
		defer v.mu.RUnlock()
		return fmt.Sprintf("%s:%s=%x", v.name, kind, v.blob)
	}
	return fmt.Sprintf("%s:%s=%v", v.name, kind, v.payloadAny(make(encodeGuard)))
}

func (c *Container) jsonObj(g encodeGuard) map[string]any {
	c.mu.RLock()
	obj := make(map[string]any, 2)
	if !c.headerIsDefaultLocked() {
		obj["header"] = map[string]any{
			"source_id":     c.sourceID,
			"source_sub_id": c.sourceSubID,
			"target_id":     c.targetID,
			"target_sub_id": c.targetSubID,
			"message_type":  c.messageType,
			"version":       c.version,
		}
	}
	entries := make([]entry, len(c.entries))
	copy(entries, c.entries)
	c.mu.RUnlock()

	values := make([]any, len(entries))
	for i, e := range entries {
		values[i] = e.val.jsonObj(g)
	}
	obj["values"] = values
	return obj
}

func (c *Container) MarshalJSON() ([]byte, error) {
	g := make(encodeGuard)
	g.enter(c)
	return json.Marshal(c.jsonObj(g))
}

// ToJSON renders the whole container, header included unless defaulted.
func (c *Container) ToJSON() (string, error) {
	b, err := c.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
