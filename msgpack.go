package vmap

import (
	"bytes"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

// MessagePack projection: an alternate self-describing codec for peers that
// speak msgpack instead of the native wire format. The projection is
// stateless; values and containers are converted in and out without
// touching the core's invariants.
//
// Container layout: a map with optional header keys (src, ssub, tgt, tsub,
// type, ver) and a "values" key holding an array of [name, kind, payload]
// triples. Nested containers recurse; the wire codec's cycle guard applies,
// encoding a container already on the stack as nil.

// MarshalMsgpack encodes the container as msgpack.
func MarshalMsgpack(c *Container) ([]byte, error) {
	var bb bytesBuilder
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	g := make(encodeGuard)
	g.enter(c)
	err := encodeContainerMsgpack(enc, c, g)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return bb.Buf, nil
}

// UnmarshalMsgpack decodes a msgpack-projected container.
func UnmarshalMsgpack(data []byte) (*Container, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	c, err := decodeContainerMsgpack(dec)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(data, len(data)-r.Len(), err, "msgpack container")
	}
	return c, nil
}

// MarshalValueMsgpack encodes a single value as a [name, kind, payload]
// msgpack triple.
func MarshalValueMsgpack(v *Value) ([]byte, error) {
	var bb bytesBuilder
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	err := encodeValueMsgpack(enc, v, make(encodeGuard))
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return bb.Buf, nil
}

// UnmarshalValueMsgpack decodes a single projected value.
func UnmarshalValueMsgpack(data []byte) (*Value, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	v, err := decodeValueMsgpack(dec)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(data, len(data)-r.Len(), err, "msgpack value")
	}
	return v, nil
}

// encodeContainerMsgpack requires that the caller has already entered c
// into g, same as appendEnvelope.
func encodeContainerMsgpack(enc *msgpack.Encoder, c *Container, g encodeGuard) error {
	c.mu.RLock()
	header := !c.headerIsDefaultLocked()
	src, ssub := c.sourceID, c.sourceSubID
	tgt, tsub := c.targetID, c.targetSubID
	typ, ver := c.messageType, c.version
	entries := make([]entry, len(c.entries))
	copy(entries, c.entries)
	c.mu.RUnlock()

	n := 1
	if header {
		n = 7
	}
	if err := enc.EncodeMapLen(n); err != nil {
		return err
	}
	if header {
		for _, kv := range [...][2]string{
			{"src", src}, {"ssub", ssub}, {"tgt", tgt},
			{"tsub", tsub}, {"type", typ}, {"ver", ver},
		} {
			if err := enc.EncodeString(kv[0]); err != nil {
				return err
			}
			if err := enc.EncodeString(kv[1]); err != nil {
				return err
			}
		}
	}
	if err := enc.EncodeString("values"); err != nil {
		return err
	}
	if err := enc.EncodeArrayLen(len(entries)); err != nil {
		return err
	}
	for _, e := range entries {
		if err := encodeValueMsgpack(enc, e.val, g); err != nil {
			return err
		}
	}
	return nil
}

func encodeValueMsgpack(enc *msgpack.Encoder, v *Value, g encodeGuard) error {
	if v == nil {
		return enc.EncodeNil()
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	if err := enc.EncodeArrayLen(3); err != nil {
		return err
	}
	if err := enc.EncodeString(v.name); err != nil {
		return err
	}
	if err := enc.EncodeUint8(uint8(v.kind)); err != nil {
		return err
	}
	switch v.kind {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeBool(v.num != 0)
	case KindInt16:
		return enc.EncodeInt(int64(int16(v.num)))
	case KindUint16:
		return enc.EncodeUint(uint64(uint16(v.num)))
	case KindInt32:
		return enc.EncodeInt(int64(int32(v.num)))
	case KindUint32:
		return enc.EncodeUint(uint64(uint32(v.num)))
	case KindInt64:
		return enc.EncodeInt(int64(v.num))
	case KindUint64:
		return enc.EncodeUint(v.num)
	case KindFloat32:
		return enc.EncodeFloat32(math.Float32frombits(uint32(v.num)))
	case KindFloat64:
		return enc.EncodeFloat64(math.Float64frombits(v.num))
	case KindString:
		return enc.EncodeString(v.str)
	case KindBytes:
		return enc.EncodeBytes(v.blob)
	case KindNested:
		c := v.sub
		if c == nil || !g.enter(c) {
			return enc.EncodeNil()
		}
		defer g.leave(c)
		return encodeContainerMsgpack(enc, c, g)
	case KindArray:
		if err := enc.EncodeArrayLen(len(v.arr)); err != nil {
			return err
		}
		for _, e := range v.arr {
			if err := encodeValueMsgpack(enc, e, g); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown kind %d", v.kind)
}

func decodeContainerMsgpack(dec *msgpack.Decoder) (*Container, error) {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	c := NewContainer()
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		switch key {
		case "src":
			c.sourceID, err = dec.DecodeString()
		case "ssub":
			c.sourceSubID, err = dec.DecodeString()
		case "tgt":
			c.targetID, err = dec.DecodeString()
		case "tsub":
			c.targetSubID, err = dec.DecodeString()
		case "type":
			c.messageType, err = dec.DecodeString()
		case "ver":
			c.version, err = dec.DecodeString()
		case "values":
			var count int
			count, err = dec.DecodeArrayLen()
			if err != nil {
				return nil, err
			}
			for j := 0; j < count; j++ {
				v, err := decodeValueMsgpack(dec)
				if err != nil {
					return nil, err
				}
				if v != nil {
					c.setLocked(v.Name(), v)
				}
			}
		default:
			err = dec.Skip()
		}
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func decodeValueMsgpack(dec *msgpack.Decoder) (*Value, error) {
	code, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if code == msgpcode.Nil {
		if err := dec.DecodeNil(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, err
	}
	if n != 3 {
		return nil, fmt.Errorf("value triple has %d elements", n)
	}
	name, err := dec.DecodeString()
	if err != nil {
		return nil, err
	}
	tag, err := dec.DecodeUint8()
	if err != nil {
		return nil, err
	}
	kind, ok := canonicalKind(tag)
	if !ok {
		return nil, fmt.Errorf("unknown kind %d", tag)
	}

	v := &Value{name: name, kind: kind}
	switch kind {
	case KindNull:
		err = dec.DecodeNil()
	case KindBool:
		var b bool
		b, err = dec.DecodeBool()
		if b {
			v.num = 1
		}
	case KindInt16:
		var n int16
		n, err = dec.DecodeInt16()
		v.num = uint64(uint16(n))
	case KindUint16:
		var n uint16
		n, err = dec.DecodeUint16()
		v.num = uint64(n)
	case KindInt32:
		var n int32
		n, err = dec.DecodeInt32()
		v.num = uint64(uint32(n))
	case KindUint32:
		var n uint32
		n, err = dec.DecodeUint32()
		v.num = uint64(n)
	case KindInt64:
		var n int64
		n, err = dec.DecodeInt64()
		v.num = uint64(n)
	case KindUint64:
		v.num, err = dec.DecodeUint64()
	case KindFloat32:
		var f float32
		f, err = dec.DecodeFloat32()
		v.num = uint64(math.Float32bits(f))
	case KindFloat64:
		var f float64
		f, err = dec.DecodeFloat64()
		v.num = math.Float64bits(f)
	case KindString:
		v.str, err = dec.DecodeString()
	case KindBytes:
		v.blob, err = dec.DecodeBytes()
	case KindNested:
		code, err = dec.PeekCode()
		if err != nil {
			return nil, err
		}
		if code == msgpcode.Nil {
			err = dec.DecodeNil()
		} else {
			v.sub, err = decodeContainerMsgpack(dec)
		}
	case KindArray:
		var count int
		count, err = dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		// The header's count is untrusted until the elements actually
		// decode; cap the preallocation so a crafted array32 header
		// cannot force a huge upfront allocation.
		if count > 0 {
			v.arr = make([]*Value, 0, min(count, 1024))
			for i := 0; i < count; i++ {
				var e *Value
				e, err = decodeValueMsgpack(dec)
				if err != nil {
					return nil, err
				}
				v.arr = append(v.arr, e)
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}
