package vmap

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSnapshotReaderInitialSnapshot(t *testing.T) {
	c := NewContainer()
	c.SetString("k", "v1")
	r := NewSnapshotReader(c)

	deepEqual(t, r.RefreshCount(), uint64(1))
	v, ok := r.Get("k")
	deepEqual(t, ok, true)
	s, _ := v.AsString()
	deepEqual(t, s, "v1")
	deepEqual(t, r.Len(), 1)
	deepEqual(t, r.Contains("k"), true)
	deepEqual(t, r.Keys(), []string{"k"})
}

func TestSnapshotReaderStalenessBoundedByRefresh(t *testing.T) {
	c := NewContainer()
	c.SetString("k", "v1")
	r := NewSnapshotReader(c)
	r.Refresh()

	c.SetString("k", "v2")

	// Reader not refreshed: still sees v1.
	v, _ := r.Get("k")
	s, _ := v.AsString()
	deepEqual(t, s, "v1")

	r.Refresh()
	v, _ = r.Get("k")
	s, _ = v.AsString()
	deepEqual(t, s, "v2")
}

func TestSnapshotReaderSnapshotImmuneToSourceMutation(t *testing.T) {
	c := NewContainer()
	c.SetString("k", "v1")
	r := NewSnapshotReader(c)

	// Mutating the source's value object must not leak into the snapshot:
	// refresh clones values.
	v, _ := c.Get("k")
	v.SetString("mutated")

	rv, _ := r.Get("k")
	s, _ := rv.AsString()
	deepEqual(t, s, "v1")
}

func TestSnapshotReaderRefreshIdempotent(t *testing.T) {
	c := NewContainer()
	c.SetInt64("a", 1)
	c.SetString("b", "x")
	r := NewSnapshotReader(c)

	r.Refresh()
	first := map[string]string{}
	r.ForEach(func(key string, v *Value) {
		first[key] = v.String()
	})
	r.Refresh()
	second := map[string]string{}
	r.ForEach(func(key string, v *Value) {
		second[key] = v.String()
	})
	deepEqual(t, second, first)
}

func TestSnapshotReaderConcurrentRefreshAndGet(t *testing.T) {
	c := NewContainer()
	for i := 0; i < 16; i++ {
		c.SetInt64(string(rune('a'+i)), int64(i))
	}
	r := NewSnapshotReader(c)

	var stop atomic.Bool
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				// A snapshot is all-or-nothing: every key present, never a
				// torn subset.
				if n := r.Len(); n != 16 {
					t.Errorf("** torn snapshot: len %d", n)
					return
				}
				if _, ok := r.Get("a"); !ok {
					t.Error("** torn snapshot: key a missing")
					return
				}
			}
		}()
	}
	for i := 0; i < 500; i++ {
		c.SetInt64("a", int64(i))
		r.Refresh()
	}
	stop.Store(true)
	wg.Wait()
}

func TestAutoRefreshReader(t *testing.T) {
	c := NewContainer()
	c.SetString("k", "v1")
	r := NewAutoRefreshReader(c, 5*time.Millisecond)
	defer r.Stop()

	deepEqual(t, r.Running(), true)
	c.SetString("k", "v2")

	deadline := time.Now().Add(2 * time.Second)
	for {
		v, _ := r.Get("k")
		if s, _ := v.AsString(); s == "v2" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("auto-refresh never picked up the new value")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAutoRefreshReaderStopIdempotent(t *testing.T) {
	c := NewContainer()
	r := NewAutoRefreshReader(c, time.Millisecond)

	r.Stop()
	deepEqual(t, r.Running(), false)
	r.Stop() // second call is a no-op
	r.Stop()

	// Stopped is terminal: no further refreshes happen.
	n := r.RefreshCount()
	c.SetString("k", "v")
	time.Sleep(10 * time.Millisecond)
	deepEqual(t, r.RefreshCount(), n)

	// The last snapshot keeps serving.
	deepEqual(t, r.Contains("k"), false)
}

func TestAutoRefreshReaderConcurrentStop(t *testing.T) {
	c := NewContainer()
	r := NewAutoRefreshReader(c, time.Millisecond)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Stop()
		}()
	}
	wg.Wait()
	deepEqual(t, r.Running(), false)
}
