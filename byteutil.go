package vmap

import (
	"encoding/binary"
	"io"
	"math"
)

func ensureCapacity(buf []byte, minCap int) []byte {
	c := cap(buf)
	if minCap > c {
		if c < 16 {
			c = 16
		}
		for minCap > c {
			c <<= 1
		}
		old := buf
		buf = make([]byte, len(old), c)
		copy(buf, old)
	}
	return buf
}

func grow(buf []byte, n int) (int, []byte) {
	off := len(buf)
	newLen := off + n
	buf = ensureCapacity(buf, newLen)
	return off, buf[:newLen]
}

func appendRaw(buf []byte, chunk []byte) []byte {
	n := len(chunk)
	off, buf := grow(buf, n)
	copy(buf[off:], chunk)
	return buf
}

func appendString(buf []byte, v string) []byte {
	n := len(v)
	off, buf := grow(buf, n)
	copy(buf[off:], v)
	return buf
}

func appendByte(buf []byte, v byte) []byte {
	off, buf := grow(buf, 1)
	buf[off] = v
	return buf
}

func appendUint16(buf []byte, v uint16) []byte {
	off, buf := grow(buf, 2)
	binary.BigEndian.PutUint16(buf[off:], v)
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	off, buf := grow(buf, 4)
	binary.BigEndian.PutUint32(buf[off:], v)
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	off, buf := grow(buf, 8)
	binary.BigEndian.PutUint64(buf[off:], v)
	return buf
}

// appendVarString appends a 4-byte big-endian length followed by the string
// bytes, the length-prefixed form shared by names, strings, blobs and
// nested payloads.
func appendVarString(buf []byte, v string) []byte {
	buf = appendUint32(buf, uint32(len(v)))
	return appendString(buf, v)
}

func appendVarBytes(buf []byte, v []byte) []byte {
	buf = appendUint32(buf, uint32(len(v)))
	return appendRaw(buf, v)
}

type bytesBuilder struct {
	Buf []byte
}

var _ io.Writer = (*bytesBuilder)(nil)

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = appendRaw(bb.Buf, b)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(v byte) error {
	bb.Buf = appendByte(bb.Buf, v)
	return nil
}

// byteDecoder consumes a byte slice front to back, validating every read
// against the remaining length. It never reads past the original buffer;
// truncated input surfaces as a DataError carrying the failure offset.
type byteDecoder struct {
	Orig []byte
	Buf  []byte
}

func makeByteDecoder(buf []byte) byteDecoder {
	return byteDecoder{buf, buf}
}

func (d *byteDecoder) Off() int {
	return len(d.Orig) - len(d.Buf)
}

func (d *byteDecoder) Remaining() int {
	return len(d.Buf)
}

func (d *byteDecoder) Byte() (byte, error) {
	if len(d.Buf) < 1 {
		return 0, dataErrf(d.Orig, d.Off(), nil, "not enough data: 1 byte wanted")
	}
	v := d.Buf[0]
	d.Buf = d.Buf[1:]
	return v, nil
}

func (d *byteDecoder) Uint16() (uint16, error) {
	if len(d.Buf) < 2 {
		return 0, dataErrf(d.Orig, d.Off(), nil, "not enough data: %d bytes remaining, 2 wanted", len(d.Buf))
	}
	v := binary.BigEndian.Uint16(d.Buf)
	d.Buf = d.Buf[2:]
	return v, nil
}

func (d *byteDecoder) Uint32() (uint32, error) {
	if len(d.Buf) < 4 {
		return 0, dataErrf(d.Orig, d.Off(), nil, "not enough data: %d bytes remaining, 4 wanted", len(d.Buf))
	}
	v := binary.BigEndian.Uint32(d.Buf)
	d.Buf = d.Buf[4:]
	return v, nil
}

func (d *byteDecoder) Uint64() (uint64, error) {
	if len(d.Buf) < 8 {
		return 0, dataErrf(d.Orig, d.Off(), nil, "not enough data: %d bytes remaining, 8 wanted", len(d.Buf))
	}
	v := binary.BigEndian.Uint64(d.Buf)
	d.Buf = d.Buf[8:]
	return v, nil
}

func (d *byteDecoder) Raw(n int) ([]byte, error) {
	if len(d.Buf) < n {
		return nil, dataErrf(d.Orig, d.Off(), nil, "not enough data: %d bytes remaining, %d wanted", len(d.Buf), n)
	}
	v := d.Buf[:n]
	d.Buf = d.Buf[n:]
	return v, nil
}

// Length reads a 4-byte length prefix and validates it against the
// remaining data before anything is allocated or consumed.
func (d *byteDecoder) Length() (int, error) {
	v, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 || int(v) > len(d.Buf) {
		return 0, dataErrf(d.Orig, d.Off(), nil, "length %d exceeds remaining data %d", v, len(d.Buf))
	}
	return int(v), nil
}

// VarBytes reads a 4-byte length prefix followed by that many bytes.
// The returned slice aliases the input.
func (d *byteDecoder) VarBytes() ([]byte, error) {
	n, err := d.Length()
	if err != nil {
		return nil, err
	}
	return d.Raw(n)
}

func (d *byteDecoder) VarString() (string, error) {
	b, err := d.VarBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}
