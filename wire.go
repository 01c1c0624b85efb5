package vmap

import (
	"encoding/binary"
)

// Wire grammar, big-endian throughout:
//
//	value    = name_len:4 name tag:1 payload
//	payload  = (per tag)
//	           null     -> nothing
//	           bool     -> 1 byte
//	           int/float-> raw fixed-width bytes, no prefix
//	           string   -> len:4 bytes
//	           bytes    -> len:4 bytes
//	           nested   -> len:4 envelope   (len 0 = absent)
//	           array    -> count:4 value...  (nil slot = unnamed null)
//	envelope = flags:1 [header] count:4 value...
//	header   = 6 x (len:4 bytes): sourceID sourceSubID targetID targetSubID
//	           messageType version
//
// Tag bytes are the Kind values. Tags 8/9 are accepted on decode and folded
// into 6/7; they are never produced on encode.

// wireMinValue is the smallest possible encoded value: empty name plus the
// tag byte. Used to sanity-check counts before allocating.
const wireMinValue = 5

const envFlagHeader = 0x01

// encodeGuard tracks the containers currently on the encoding stack.
// A container reached again while it is still being encoded serializes as
// an absent nested payload instead of recursing forever. The guard is local
// to one encode call, so legitimately shared (diamond-shaped) containers
// still encode fully each time they appear.
type encodeGuard map[*Container]struct{}

func (g encodeGuard) enter(c *Container) bool {
	if _, on := g[c]; on {
		return false
	}
	g[c] = struct{}{}
	return true
}

func (g encodeGuard) leave(c *Container) {
	delete(g, c)
}

// EncodeValue returns the wire encoding of v.
func EncodeValue(v *Value) []byte {
	return AppendValue(nil, v)
}

// AppendValue appends the wire encoding of v to buf and returns the
// extended buffer.
func AppendValue(buf []byte, v *Value) []byte {
	return appendValue(buf, v, make(encodeGuard))
}

func appendValue(buf []byte, v *Value, g encodeGuard) []byte {
	if v == nil {
		// Null placeholder for an absent array slot.
		buf = appendUint32(buf, 0)
		return appendByte(buf, byte(KindNull))
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	buf = appendVarString(buf, v.name)
	buf = appendByte(buf, byte(v.kind))

	switch v.kind {
	case KindNull:
	case KindBool:
		buf = appendByte(buf, byte(v.num&1))
	case KindInt16, KindUint16:
		buf = appendUint16(buf, uint16(v.num))
	case KindInt32, KindUint32, KindFloat32:
		buf = appendUint32(buf, uint32(v.num))
	case KindInt64, KindUint64, KindFloat64:
		buf = appendUint64(buf, v.num)
	case KindString:
		buf = appendVarString(buf, v.str)
	case KindBytes:
		buf = appendVarBytes(buf, v.blob)
	case KindNested:
		buf = appendNested(buf, v.sub, g)
	case KindArray:
		buf = appendUint32(buf, uint32(len(v.arr)))
		for _, e := range v.arr {
			buf = appendValue(buf, e, g)
		}
	}
	return buf
}

// appendNested writes a length-prefixed container envelope, or a zero
// length when the container is absent or already on the encoding stack.
func appendNested(buf []byte, c *Container, g encodeGuard) []byte {
	if c == nil || !g.enter(c) {
		return appendUint32(buf, 0)
	}
	defer g.leave(c)
	lenOff, buf := grow(buf, 4)
	buf = c.appendEnvelope(buf, g)
	binary.BigEndian.PutUint32(buf[lenOff:], uint32(len(buf)-lenOff-4))
	return buf
}

// DecodeValue decodes a single wire-encoded value. The entire buffer must
// be consumed; trailing bytes are an error. Malformed or truncated input
// yields a DataError and never a panic or out-of-bounds read.
func DecodeValue(data []byte) (*Value, error) {
	d := makeByteDecoder(data)
	v, err := decodeValue(&d)
	if err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, dataErrf(data, d.Off(), nil, "%d trailing bytes after value", d.Remaining())
	}
	return v, nil
}

func decodeValue(d *byteDecoder) (*Value, error) {
	name, err := d.VarString()
	if err != nil {
		return nil, err
	}
	tag, err := d.Byte()
	if err != nil {
		return nil, err
	}
	kind, ok := canonicalKind(tag)
	if !ok {
		return nil, dataErrf(d.Orig, d.Off()-1, nil, "unknown tag %d", tag)
	}

	v := &Value{name: name, kind: kind}
	switch kind {
	case KindNull:
	case KindBool:
		b, err := d.Byte()
		if err != nil {
			return nil, err
		}
		if b > 1 {
			return nil, dataErrf(d.Orig, d.Off()-1, nil, "invalid bool byte %d", b)
		}
		v.num = uint64(b)
	case KindInt16, KindUint16:
		n, err := d.Uint16()
		if err != nil {
			return nil, err
		}
		v.num = uint64(n)
	case KindInt32, KindUint32, KindFloat32:
		n, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		v.num = uint64(n)
	case KindInt64, KindUint64, KindFloat64:
		n, err := d.Uint64()
		if err != nil {
			return nil, err
		}
		v.num = n
	case KindString:
		b, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		v.str = string(b)
	case KindBytes:
		b, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		v.blob = append([]byte(nil), b...)
	case KindNested:
		b, err := d.VarBytes()
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			sub, err := DeserializeContainer(b)
			if err != nil {
				return nil, dataErrf(d.Orig, d.Off()-len(b), err, "nested container")
			}
			v.sub = sub
		}
	case KindArray:
		count, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		if int64(count)*wireMinValue > int64(d.Remaining()) {
			return nil, dataErrf(d.Orig, d.Off()-4, nil, "array count %d exceeds remaining data %d", count, d.Remaining())
		}
		if count > 0 {
			v.arr = make([]*Value, 0, count)
			for i := uint32(0); i < count; i++ {
				e, err := decodeValue(d)
				if err != nil {
					return nil, err
				}
				v.arr = append(v.arr, e)
			}
		}
	}
	return v, nil
}
