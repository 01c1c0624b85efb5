package vmap

import (
	"sync"
	"time"
)

// AutoRefreshReader is a SnapshotReader refreshed by a background goroutine
// on a fixed period. Stop is idempotent, joins the goroutine, and is
// terminal: a stopped reader keeps serving its last snapshot but never
// refreshes again.
type AutoRefreshReader struct {
	*SnapshotReader
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewAutoRefreshReader takes an immediate snapshot and starts the refresh
// loop with the given period.
func NewAutoRefreshReader(source *Container, interval time.Duration) *AutoRefreshReader {
	r := &AutoRefreshReader{
		SnapshotReader: NewSnapshotReader(source),
		interval:       interval,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *AutoRefreshReader) run() {
	defer close(r.done)
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			r.Refresh()
		case <-r.stop:
			return
		}
	}
}

// Stop shuts down the refresh loop and waits for it to exit. Safe to call
// any number of times from any goroutine.
func (r *AutoRefreshReader) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	<-r.done
}

// Running reports whether the refresh loop is still alive.
func (r *AutoRefreshReader) Running() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Interval returns the configured refresh period.
func (r *AutoRefreshReader) Interval() time.Duration {
	return r.interval
}
