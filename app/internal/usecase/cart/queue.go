package cart

import (
	"context"
	"log/slog"
	"sync"

	domcart "example.com/gomarketplace/app/internal/domain/cart"
)

type opKind int

const (
	opSet opKind = iota
	opDelete
	opClear
	opBarrier
)

type op struct {
	kind opKind
	blob []byte
	done chan error
}

// writeQueue applies durable operations for a single storage key in the
// order they were pushed. One goroutine drains it, so a later snapshot can
// never land before an earlier one.
type writeQueue struct {
	store   domcart.DurableStore
	key     string
	log     *slog.Logger
	onError func(error)

	mu      sync.Mutex
	pending []op
	closed  bool

	wake    chan struct{}
	stopped chan struct{}
}

func newWriteQueue(store domcart.DurableStore, key string, log *slog.Logger, onError func(error)) *writeQueue {
	q := &writeQueue{
		store:   store,
		key:     key,
		log:     log,
		onError: onError,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go q.run(context.Background())
	return q
}

func (q *writeQueue) push(o op) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return domcart.ErrStoreClosed
	}
	q.pending = append(q.pending, o)
	q.signal()
	return nil
}

// barrier returns a channel that receives once every op pushed before it
// has been attempted.
func (q *writeQueue) barrier() (<-chan error, error) {
	done := make(chan error, 1)
	if err := q.push(op{kind: opBarrier, done: done}); err != nil {
		return nil, err
	}
	return done, nil
}

func (q *writeQueue) close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.signal()
	}
	q.mu.Unlock()

	select {
	case <-q.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// signal must be called with q.mu held.
func (q *writeQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *writeQueue) run(ctx context.Context) {
	defer close(q.stopped)
	for range q.wake {
		q.mu.Lock()
		batch := q.pending
		q.pending = nil
		closed := q.closed
		q.mu.Unlock()

		q.apply(ctx, batch)

		if closed {
			return
		}
	}
}

func (q *writeQueue) apply(ctx context.Context, batch []op) {
	for i, o := range batch {
		switch o.kind {
		case opSet:
			// a directly following snapshot supersedes this one
			if i+1 < len(batch) && batch[i+1].kind == opSet {
				continue
			}
			if err := q.store.Set(ctx, q.key, o.blob); err != nil {
				q.fail("cart persist failed", err)
			}
		case opDelete:
			err := q.store.Delete(ctx, q.key)
			if err != nil {
				q.fail("cart delete failed", err)
			}
			o.done <- err
		case opClear:
			err := q.store.Clear(ctx)
			if err != nil {
				q.fail("durable store clear failed", err)
			}
			o.done <- err
		case opBarrier:
			o.done <- nil
		}
	}
}

func (q *writeQueue) fail(msg string, err error) {
	q.log.Error(msg, slog.String("key", q.key), slog.Any("err", err))
	if q.onError != nil {
		q.onError(err)
	}
}
