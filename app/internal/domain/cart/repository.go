package cart

import "context"

// DurableStore is the key-value persistence the cart is mirrored to. Each
// call is atomic on its own; nothing is transactional across calls.
type DurableStore interface {
	// Get returns ErrKeyNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
	// Clear removes every key of the application namespace.
	Clear(ctx context.Context) error
}
