package vmap

import (
	"context"
	"errors"
	"sync"
)

// AsyncStore offloads serialize/deserialize/save/load onto a fixed pool of
// worker goroutines and hands results back over channels. It adds no new
// invariants: every operation is the corresponding synchronous call, just
// executed elsewhere.
type AsyncStore struct {
	store *FileStore
	tasks chan func()

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// ErrStoreClosed is reported by operations submitted after Close.
var ErrStoreClosed = errors.New("vmap: async store closed")

// BytesResult carries the outcome of an async serialize.
type BytesResult struct {
	Data []byte
	Err  error
}

// ContainerResult carries the outcome of an async deserialize or load.
type ContainerResult struct {
	Container *Container
	Err       error
}

// NewAsyncStore starts the worker pool. store may be nil if only
// SerializeAsync/DeserializeAsync are used.
func NewAsyncStore(store *FileStore, workers int) *AsyncStore {
	if workers < 1 {
		workers = 1
	}
	a := &AsyncStore{
		store: store,
		tasks: make(chan func(), workers*2),
	}
	a.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go a.worker()
	}
	return a
}

func (a *AsyncStore) worker() {
	defer a.wg.Done()
	for task := range a.tasks {
		task()
	}
}

// Close stops accepting work, drains queued tasks and joins the workers.
// Idempotent.
func (a *AsyncStore) Close() {
	a.closeOnce.Do(func() {
		close(a.tasks)
	})
	a.wg.Wait()
}

// submit queues task unless the context is already done. The recover
// handles the submit-after-Close race: sending on the closed task channel
// is reported as ErrStoreClosed instead of a panic.
func (a *AsyncStore) submit(ctx context.Context, task func(), closed func()) {
	defer func() {
		if recover() != nil {
			closed()
		}
	}()
	select {
	case <-ctx.Done():
		closed()
	case a.tasks <- task:
	}
}

// SerializeAsync encodes c on a worker. The returned channel receives
// exactly one result.
func (a *AsyncStore) SerializeAsync(ctx context.Context, c *Container) <-chan BytesResult {
	out := make(chan BytesResult, 1)
	a.submit(ctx, func() {
		out <- BytesResult{Data: c.Serialize()}
	}, func() {
		out <- BytesResult{Err: submitErr(ctx)}
	})
	return out
}

// DeserializeAsync decodes data on a worker.
func (a *AsyncStore) DeserializeAsync(ctx context.Context, data []byte) <-chan ContainerResult {
	out := make(chan ContainerResult, 1)
	a.submit(ctx, func() {
		c, err := DeserializeContainer(data)
		out <- ContainerResult{Container: c, Err: err}
	}, func() {
		out <- ContainerResult{Err: submitErr(ctx)}
	})
	return out
}

// SaveAsync persists c under key via the file store.
func (a *AsyncStore) SaveAsync(ctx context.Context, key string, c *Container) <-chan error {
	out := make(chan error, 1)
	a.submit(ctx, func() {
		out <- a.store.Put(key, c)
	}, func() {
		out <- submitErr(ctx)
	})
	return out
}

// LoadAsync reads the container under key via the file store. A missing
// key yields a nil container and nil error, same as FileStore.Get.
func (a *AsyncStore) LoadAsync(ctx context.Context, key string) <-chan ContainerResult {
	out := make(chan ContainerResult, 1)
	a.submit(ctx, func() {
		c, err := a.store.Get(key)
		out <- ContainerResult{Container: c, Err: err}
	}, func() {
		out <- ContainerResult{Err: submitErr(ctx)}
	})
	return out
}

func submitErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrStoreClosed
}
