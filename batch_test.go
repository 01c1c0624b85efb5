package vmap

import (
	"math"
	"testing"
)

func TestAggregateFloats(t *testing.T) {
	values := []*Value{
		NewFloat64("a", 1),
		NewFloat64("b", -2),
		NewFloat32("c", 3.5),
		NewString("skip", "x"), // non-float kinds are skipped
		nil,
		NewFloat64("d", 0.5),
		NewFloat64("e", 10),
		NewFloat64("f", -7),
	}
	st := AggregateFloats(values)
	deepEqual(t, st.Count, 6)
	deepEqual(t, st.Sum, 6.0)
	deepEqual(t, st.Min, -7.0)
	deepEqual(t, st.Max, 10.0)
	deepEqual(t, st.Mean(), 1.0)
}

func TestAggregateFloatsEmpty(t *testing.T) {
	st := AggregateFloats(nil)
	deepEqual(t, st.Count, 0)
	deepEqual(t, st.Sum, 0.0)
	if !math.IsNaN(st.Mean()) {
		t.Errorf("** Mean of empty aggregate = %v, wanted NaN", st.Mean())
	}
}

func TestAggregateFloatsUnrolledTail(t *testing.T) {
	// Lengths around the 4-wide unroll boundary.
	for n := 1; n <= 9; n++ {
		values := make([]*Value, n)
		want := 0.0
		for i := range values {
			values[i] = NewFloat64("v", float64(i+1))
			want += float64(i + 1)
		}
		st := AggregateFloats(values)
		deepEqual(t, st.Count, n)
		deepEqual(t, st.Sum, want)
		deepEqual(t, st.Min, 1.0)
		deepEqual(t, st.Max, float64(n))
	}
}

func TestAggregateContainerFloats(t *testing.T) {
	c := NewContainer()
	c.SetFloat64("a", 2)
	c.SetInt64("skip", 100)
	c.SetFloat64("b", 4)
	st := AggregateContainerFloats(c)
	deepEqual(t, st.Count, 2)
	deepEqual(t, st.Sum, 6.0)
}
