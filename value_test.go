package vmap

import (
	"sync"
	"testing"
)

func TestValueConstructorsAndAccessors(t *testing.T) {
	v := NewNull("n")
	deepEqual(t, v.Kind(), KindNull)
	deepEqual(t, v.IsNull(), true)

	b := NewBool("b", true)
	got, ok := b.AsBool()
	deepEqual(t, ok, true)
	deepEqual(t, got, true)

	i := NewInt32("age", -5)
	n32, ok := i.AsInt32()
	deepEqual(t, ok, true)
	deepEqual(t, n32, int32(-5))
	deepEqual(t, i.Kind(), KindInt32)

	f := NewFloat64("f", 2.5)
	f64, ok := f.AsFloat64()
	deepEqual(t, ok, true)
	deepEqual(t, f64, 2.5)

	s := NewString("s", "hello")
	str, ok := s.AsString()
	deepEqual(t, ok, true)
	deepEqual(t, str, "hello")

	bb := NewBytes("raw", []byte{1, 2, 3})
	blob, ok := bb.AsBytes()
	deepEqual(t, ok, true)
	deepEqual(t, blob, []byte{1, 2, 3})
}

func TestValueTypeMismatchReturnsEmpty(t *testing.T) {
	v := NewInt32("age", 42)
	if _, ok := v.AsString(); ok {
		t.Errorf("** AsString on int32 value = ok, wanted empty")
	}
	if _, ok := v.AsInt64(); ok {
		t.Errorf("** AsInt64 on int32 value = ok, wanted empty (no width coercion)")
	}
	if _, ok := v.AsBool(); ok {
		t.Errorf("** AsBool on int32 value = ok, wanted empty")
	}
}

func TestValueSetReplacesPayload(t *testing.T) {
	v := NewString("k", "old")
	v.SetInt64(7)
	deepEqual(t, v.Kind(), KindInt64)
	n, ok := v.AsInt64()
	deepEqual(t, ok, true)
	deepEqual(t, n, int64(7))
	if _, ok := v.AsString(); ok {
		t.Errorf("** AsString after SetInt64 = ok, wanted empty")
	}
	deepEqual(t, v.WriteCount(), uint64(1))
}

func TestValueCounters(t *testing.T) {
	v := NewInt32("n", 1)
	v.AsInt32()
	v.AsInt32()
	v.AsString() // mismatches still count as reads
	deepEqual(t, v.ReadCount(), uint64(3))
	v.SetInt32(2)
	v.SetInt32(3)
	deepEqual(t, v.WriteCount(), uint64(2))
}

func TestValueBytesAreCopied(t *testing.T) {
	src := []byte{1, 2, 3}
	v := NewBytes("raw", src)
	src[0] = 99
	blob, _ := v.AsBytes()
	deepEqual(t, blob, []byte{1, 2, 3})

	blob[1] = 99
	blob2, _ := v.AsBytes()
	deepEqual(t, blob2, []byte{1, 2, 3})
}

func TestValueClone(t *testing.T) {
	v := NewString("k", "v1")
	c := v.Clone()
	v.SetString("v2")

	s, _ := c.AsString()
	deepEqual(t, s, "v1")
	deepEqual(t, c.Name(), "k")
	deepEqual(t, c.WriteCount(), uint64(0))

	// Nested containers stay shared across clones.
	sub := NewContainer()
	nv := NewNested("sub", sub)
	nc := nv.Clone()
	got, _ := nc.AsNested()
	if got != sub {
		t.Errorf("** cloned nested payload is not the shared container")
	}
}

func TestValueEqual(t *testing.T) {
	deepEqual(t, NewInt32("a", 1).Equal(NewInt32("a", 1)), true)
	deepEqual(t, NewInt32("a", 1).Equal(NewInt32("a", 2)), false)
	deepEqual(t, NewInt32("a", 1).Equal(NewInt32("b", 1)), false)
	deepEqual(t, NewInt32("a", 1).Equal(NewInt64("a", 1)), false)
	deepEqual(t, NewNull("x").Equal(NewNull("x")), true)
	deepEqual(t, NewBytes("b", []byte{1}).Equal(NewBytes("b", []byte{1})), true)

	e1, e2 := NewInt32("e", 1), NewInt32("e", 1)
	a1 := NewArray("arr", e1, nil)
	a2 := NewArray("arr", e2, nil)
	deepEqual(t, a1.Equal(a2), true)
	a3 := NewArray("arr", e1)
	deepEqual(t, a1.Equal(a3), false)

	sub := NewContainer()
	deepEqual(t, NewNested("n", sub).Equal(NewNested("n", sub)), true)
	deepEqual(t, NewNested("n", sub).Equal(NewNested("n", NewContainer())), false)
}

func TestValueLessOrdersArraysBySize(t *testing.T) {
	small := NewArray("a", NewInt32("e", 1))
	big := NewArray("a", NewInt32("e", 1), NewInt32("e", 2))
	deepEqual(t, small.Less(big), true)
	deepEqual(t, big.Less(small), false)

	// Equal sizes are unordered, even with different elements.
	other := NewArray("a", NewString("s", "x"))
	deepEqual(t, small.Less(other), false)
	deepEqual(t, other.Less(small), false)

	// Name orders first, kind tag second.
	deepEqual(t, NewArray("a").Less(NewArray("b")), true)
	deepEqual(t, NewInt32("x", 9).Less(NewArray("x")), true)

	// Scalars of the same kind are unordered.
	deepEqual(t, NewInt32("x", 1).Less(NewInt32("x", 2)), false)
	deepEqual(t, NewInt32("x", 2).Less(NewInt32("x", 1)), false)
}

func TestValueEqualConcurrentReversedPairs(t *testing.T) {
	// Equal locks both sides in identity order; hammering both directions
	// concurrently must not deadlock.
	a := NewInt32("x", 1)
	b := NewInt32("x", 1)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				a.Equal(b)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				b.Equal(a)
			}
		}()
	}
	wg.Wait()
}

func TestValueConcurrentReadersAndWriter(t *testing.T) {
	v := NewInt64("n", 0)
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if n, ok := v.AsInt64(); ok && n < 0 {
					t.Error("** negative payload observed")
					return
				}
			}
		}()
	}
	for i := int64(1); i <= 1000; i++ {
		v.SetInt64(i)
	}
	close(stop)
	wg.Wait()
}

func TestValueString(t *testing.T) {
	deepEqual(t, NewInt32("age", -5).String(), "age:int32=-5")
	deepEqual(t, NewString("k", "v").String(), "k:string=v")
	deepEqual(t, NewBytes("b", []byte{0xab, 0xcd}).String(), "b:bytes=abcd")
	deepEqual(t, NewNull("x").String(), "x:null=<nil>")
}
