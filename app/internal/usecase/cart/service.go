package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	domcart "example.com/gomarketplace/app/internal/domain/cart"
)

// DefaultKey is the key the mobile app has always written the cart under.
const DefaultKey = "@GoMarkertplace:products"

// ClearScope decides what DeleteCart removes from the durable store.
type ClearScope string

const (
	// ClearScopeKey removes only the cart's own key.
	ClearScopeKey ClearScope = "key"
	// ClearScopeAll wipes every key of the application namespace.
	ClearScopeAll ClearScope = "all"
)

var ErrInvalidClearScope = errors.New("invalid clear scope")

func ParseClearScope(s string) (ClearScope, error) {
	switch ClearScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClearScopeKey:
		return ClearScopeKey, nil
	case ClearScopeAll:
		return ClearScopeAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidClearScope, s)
	}
}

type Options struct {
	Key        string
	ClearScope ClearScope
	Logger     *slog.Logger
	// OnPersistError is called from the write queue for every failed
	// durable operation, after it has been logged.
	OnPersistError func(error)
}

type listener struct {
	id int
	fn func(domcart.Collection)
}

// Store owns the cart collection. Mutations apply to memory immediately and
// are mirrored to the durable store through an ordered background queue.
type Store struct {
	key   string
	scope ClearScope
	log   *slog.Logger

	durable domcart.DurableStore
	queue   *writeQueue

	mu        sync.Mutex
	products  domcart.Collection
	revision  uint64
	clearRev  uint64
	listeners []listener
	nextID    int

	// notifyMu serializes listener calls; lastNotified is guarded by it.
	notifyMu     sync.Mutex
	lastNotified uint64

	hydrateOnce sync.Once
	hydrateErr  error
	hydrated    chan struct{}
}

func NewStore(durable domcart.DurableStore, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.ClearScope == "" {
		opts.ClearScope = ClearScopeKey
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	log := opts.Logger.With(slog.String("component", "cart"))

	return &Store{
		key:      opts.Key,
		scope:    opts.ClearScope,
		log:      log,
		durable:  durable,
		queue:    newWriteQueue(durable, opts.Key, log, opts.OnPersistError),
		products: domcart.NewCollection(),
		hydrated: make(chan struct{}),
	}
}

// Start hydrates the cart in the background. Until Hydrated is closed the
// cart reports whatever is in memory, normally nothing.
func (s *Store) Start(ctx context.Context) {
	go func() {
		_ = s.Hydrate(ctx)
	}()
}

func (s *Store) Hydrated() <-chan struct{} {
	return s.hydrated
}

// Hydrate loads the persisted cart once per Store. Failures leave the cart
// empty; the returned error only describes what went wrong.
func (s *Store) Hydrate(ctx context.Context) error {
	s.hydrateOnce.Do(func() {
		s.hydrateErr = s.hydrate(ctx)
		close(s.hydrated)
	})
	return s.hydrateErr
}

func (s *Store) hydrate(ctx context.Context) error {
	s.mu.Lock()
	startRev := s.revision
	s.mu.Unlock()

	blob, err := s.durable.Get(ctx, s.key)
	if errors.Is(err, domcart.ErrKeyNotFound) {
		s.log.Info("cart hydrated", slog.String("key", s.key), slog.Int("entries", 0))
		return nil
	}
	if err != nil {
		s.log.Error("cart hydration read failed", slog.String("key", s.key), slog.Any("err", err))
		return fmt.Errorf("%w: %w", domcart.ErrHydration, err)
	}

	products, err := domcart.DecodeSnapshot(blob)
	if err != nil {
		s.log.Error("cart hydration decode failed", slog.String("key", s.key), slog.Any("err", err))
		return fmt.Errorf("%w: %w", domcart.ErrHydration, err)
	}

	s.mu.Lock()
	// a DeleteCart issued before hydration lands wins over the stored blob,
	// which may have been read before the clear reached the durable store
	if s.clearRev != 0 {
		s.mu.Unlock()
		s.log.Info("cart hydration discarded after delete", slog.String("key", s.key))
		return nil
	}
	s.products = products
	// mutations that raced hydration were persisted with the pre-hydration
	// collection; write the hydrated one after them
	if s.revision != startRev {
		s.enqueueLocked(products)
	}
	s.revision++
	rev := s.revision
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.log.Info("cart hydrated", slog.String("key", s.key), slog.Int("entries", products.Len()))
	s.notify(rev, listeners, products)
	return nil
}

func (s *Store) Products() domcart.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products
}

func (s *Store) AddToCart(item domcart.Descriptor) (domcart.Collection, error) {
	if err := item.Validate(); err != nil {
		return s.Products(), err
	}
	return s.mutate(func(c domcart.Collection) (domcart.Collection, bool) {
		return c.Add(item), true
	}), nil
}

// Increment is a no-op for ids that are not in the cart.
func (s *Store) Increment(id string) domcart.Collection {
	return s.mutate(func(c domcart.Collection) (domcart.Collection, bool) {
		return c.Increment(id)
	})
}

// Decrement removes the entry when its quantity is 1 and is a no-op for ids
// that are not in the cart.
func (s *Store) Decrement(id string) domcart.Collection {
	return s.mutate(func(c domcart.Collection) (domcart.Collection, bool) {
		return c.Decrement(id)
	})
}

// DeleteCart empties the cart and waits for the durable clear, which runs
// after every write already queued. The in-memory reset happens even when
// the clear fails.
func (s *Store) DeleteCart(ctx context.Context) error {
	kind := opDelete
	if s.scope == ClearScopeAll {
		kind = opClear
	}
	done := make(chan error, 1)

	s.mu.Lock()
	s.products = domcart.NewCollection()
	s.revision++
	s.clearRev = s.revision
	rev := s.revision
	pushErr := s.queue.push(op{kind: kind, done: done})
	listeners := s.listenersLocked()
	products := s.products
	s.mu.Unlock()

	s.notify(rev, listeners, products)

	if pushErr != nil {
		return fmt.Errorf("%w: %w", domcart.ErrClearFailed, pushErr)
	}
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %w", domcart.ErrClearFailed, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", domcart.ErrClearFailed, ctx.Err())
	}
}

// Subscribe registers fn to receive new collections in mutation order;
// snapshots superseded before delivery are skipped. fn must not call back
// into the Store. The returned func removes it.
func (s *Store) Subscribe(fn func(domcart.Collection)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Flush blocks until every durable operation queued before the call has
// been attempted.
func (s *Store) Flush(ctx context.Context) error {
	done, err := s.queue.barrier()
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the write queue and stops it. Mutations after Close still
// change memory but are no longer persisted.
func (s *Store) Close(ctx context.Context) error {
	return s.queue.close(ctx)
}

func (s *Store) mutate(fn func(domcart.Collection) (domcart.Collection, bool)) domcart.Collection {
	s.mu.Lock()
	next, changed := fn(s.products)
	if !changed {
		s.mu.Unlock()
		return next
	}
	s.products = next
	s.revision++
	rev := s.revision
	s.enqueueLocked(next)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	s.notify(rev, listeners, next)
	return next
}

// enqueueLocked must be called with s.mu held so queue order matches
// mutation order.
func (s *Store) enqueueLocked(c domcart.Collection) {
	blob, err := domcart.EncodeSnapshot(c)
	if err != nil {
		s.log.Error("cart encode failed", slog.String("key", s.key), slog.Any("err", err))
		return
	}
	if err := s.queue.push(op{kind: opSet, blob: blob}); err != nil {
		s.log.Warn("cart write dropped", slog.String("key", s.key), slog.Any("err", err))
	}
}

func (s *Store) listenersLocked() []listener {
	if len(s.listeners) == 0 {
		return nil
	}
	out := make([]listener, len(s.listeners))
	copy(out, s.listeners)
	return out
}

// notify delivers snapshots in revision order. A snapshot that arrives
// after a newer one was delivered is dropped, so the last one a listener
// sees is always the current collection.
func (s *Store) notify(rev uint64, listeners []listener, c domcart.Collection) {
	if len(listeners) == 0 {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if rev <= s.lastNotified {
		return
	}
	s.lastNotified = rev
	for _, l := range listeners {
		l.fn(c)
	}
}
