package vmap

import "math"

// FloatStats aggregates a sequence of floating-point values. Count reports
// how many values contributed; non-float kinds are skipped.
type FloatStats struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
}

// Mean returns Sum/Count, or NaN for an empty aggregate.
func (s FloatStats) Mean() float64 {
	if s.Count == 0 {
		return math.NaN()
	}
	return s.Sum / float64(s.Count)
}

// AggregateFloats computes sum/min/max over the float32/float64 values in
// the sequence. A read-only consumer of the value contract: each value is
// read once through its normal locked accessor path.
func AggregateFloats(values []*Value) FloatStats {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		if f, ok := v.AsFloat64(); ok {
			nums = append(nums, f)
		} else if f, ok := v.AsFloat32(); ok {
			nums = append(nums, float64(f))
		}
	}
	return aggregate(nums)
}

// aggregate runs a 4-wide unrolled accumulation so the compiler can keep
// the partials in registers, with a scalar tail.
func aggregate(nums []float64) FloatStats {
	if len(nums) == 0 {
		return FloatStats{}
	}
	var s0, s1, s2, s3 float64
	mn, mx := nums[0], nums[0]
	i := 0
	for ; i+4 <= len(nums); i += 4 {
		a, b, c, d := nums[i], nums[i+1], nums[i+2], nums[i+3]
		s0 += a
		s1 += b
		s2 += c
		s3 += d
		mn = min(mn, min(min(a, b), min(c, d)))
		mx = max(mx, max(max(a, b), max(c, d)))
	}
	sum := s0 + s1 + s2 + s3
	for ; i < len(nums); i++ {
		sum += nums[i]
		mn = min(mn, nums[i])
		mx = max(mx, nums[i])
	}
	return FloatStats{Count: len(nums), Sum: sum, Min: mn, Max: mx}
}

// AggregateContainerFloats aggregates every float value in the container,
// in insertion order, under one shared-lock pass.
func AggregateContainerFloats(c *Container) FloatStats {
	var values []*Value
	c.BulkRead(func(b *Bulk) {
		values = make([]*Value, 0, b.Len())
		b.Each(func(key string, v *Value) bool {
			values = append(values, v)
			return true
		})
	})
	return AggregateFloats(values)
}
