package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sandeepkv93/hydrate/internal/storage"
)

var errWriterClosed = errors.New("store: writer closed")

type writeOp struct {
	key     string
	payload []byte
	remove  bool
	barrier chan struct{}
}

// writer applies snapshot writes one at a time in submission order, so the
// durable value of a key is always the latest submitted snapshot.
type writer struct {
	kv       storage.KV
	timeout  time.Duration
	onResult func(key string, err error)

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []writeOp
	closed bool
	errs   []error
	done   chan struct{}
}

func newWriter(kv storage.KV, timeout time.Duration, onResult func(string, error)) *writer {
	w := &writer{
		kv:       kv,
		timeout:  timeout,
		onResult: onResult,
		done:     make(chan struct{}),
	}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

func (w *writer) set(key string, payload []byte) {
	w.enqueue(writeOp{key: key, payload: payload})
}

func (w *writer) remove(key string) {
	w.enqueue(writeOp{key: key, remove: true})
}

func (w *writer) enqueue(op writeOp) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		if op.barrier != nil {
			close(op.barrier)
			return
		}
		w.errs = append(w.errs, errWriterClosed)
		return
	}
	w.queue = append(w.queue, op)
	w.cond.Signal()
}

// fail records an error for a write that never reached the queue, so the
// next flush reports it like a failed apply.
func (w *writer) fail(key string, err error) {
	w.mu.Lock()
	w.errs = append(w.errs, err)
	w.mu.Unlock()
	if w.onResult != nil {
		w.onResult(key, err)
	}
}

// flush waits for every write submitted before the call and returns the
// errors collected since the previous flush.
func (w *writer) flush(ctx context.Context) error {
	barrier := make(chan struct{})
	w.enqueue(writeOp{barrier: barrier})
	select {
	case <-barrier:
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	errs := w.errs
	w.errs = nil
	w.mu.Unlock()
	return errors.Join(errs...)
}

func (w *writer) close(ctx context.Context) error {
	err := w.flush(ctx)
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		w.cond.Signal()
	}
	w.mu.Unlock()
	select {
	case <-w.done:
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
	return err
}

func (w *writer) run() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 && w.closed {
			w.mu.Unlock()
			return
		}
		op := w.queue[0]
		w.queue[0] = writeOp{}
		w.queue = w.queue[1:]
		w.mu.Unlock()

		if op.barrier != nil {
			close(op.barrier)
			continue
		}
		err := w.apply(op)
		if err != nil {
			err = fmt.Errorf("persist %s: %w", op.key, err)
			w.mu.Lock()
			w.errs = append(w.errs, err)
			w.mu.Unlock()
		}
		if w.onResult != nil {
			w.onResult(op.key, err)
		}
	}
}

func (w *writer) apply(op writeOp) error {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	if op.remove {
		return w.kv.Remove(ctx, op.key)
	}
	return w.kv.Set(ctx, op.key, op.payload)
}
