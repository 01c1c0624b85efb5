package vmap

import "fmt"

// Kind identifies the payload type of a Value. The numeric values double as
// the wire format's tag bytes and must never be reordered.
//
// Tags 8 and 9 are legacy aliases from compilers that kept a distinct
// "long long" type next to the fixed-width 64-bit integers. This
// implementation canonicalizes them to KindInt64 and KindUint64 on decode
// and never emits them on encode, so Kind never takes those two values at
// runtime.
type Kind uint8

const (
	KindNull    Kind = 0
	KindBool    Kind = 1
	KindInt16   Kind = 2
	KindUint16  Kind = 3
	KindInt32   Kind = 4
	KindUint32  Kind = 5
	KindInt64   Kind = 6
	KindUint64  Kind = 7
	kindLlong   Kind = 8 // wire-only alias of KindInt64
	kindUllong  Kind = 9 // wire-only alias of KindUint64
	KindFloat32 Kind = 10
	KindFloat64 Kind = 11
	KindString  Kind = 12
	KindBytes   Kind = 13
	KindNested  Kind = 14
	KindArray   Kind = 15

	numKinds = 16
)

var kindNames = [numKinds]string{
	"null", "bool", "int16", "uint16", "int32", "uint32",
	"int64", "uint64", "llong", "ullong", "float32", "float64",
	"string", "bytes", "nested", "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// canonicalKind folds the legacy long-long wire aliases into the canonical
// 64-bit kinds. Returns false for tag bytes outside the defined range.
func canonicalKind(tag byte) (Kind, bool) {
	if tag >= numKinds {
		return 0, false
	}
	switch k := Kind(tag); k {
	case kindLlong:
		return KindInt64, true
	case kindUllong:
		return KindUint64, true
	default:
		return k, true
	}
}

// IsNumeric reports whether k is an integer or floating-point kind.
func (k Kind) IsNumeric() bool {
	return k >= KindInt16 && k <= KindFloat64
}

// IsFloat reports whether k is one of the two floating-point kinds.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}
