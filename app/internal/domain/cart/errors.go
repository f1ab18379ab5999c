package cart

import "errors"

var (
	ErrInvalidDescriptor = errors.New("invalid cart item")
	ErrKeyNotFound       = errors.New("key not found")
	ErrCorruptSnapshot   = errors.New("corrupt cart snapshot")
	ErrHydration         = errors.New("cart hydration failed")
	ErrClearFailed       = errors.New("cart clear failed")
	ErrStoreClosed       = errors.New("cart store closed")
)
