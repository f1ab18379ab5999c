package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domcart "example.com/gomarketplace/app/internal/domain/cart"
)

func TestKVStore_GetMissing(t *testing.T) {
	s := NewKVStore()

	_, err := s.Get(context.Background(), "nope")
	require.ErrorIs(t, err, domcart.ErrKeyNotFound)
}

func TestKVStore_SetGetDeleteClear(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	require.NoError(t, s.Set(ctx, "b", []byte("2")))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, domcart.ErrKeyNotFound)

	got, err = s.Get(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, []byte("2"), got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Get(ctx, "b")
	require.ErrorIs(t, err, domcart.ErrKeyNotFound)
}

func TestKVStore_BlobsAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	blob := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", blob))
	blob[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), got)

	got[1] = 'z'
	again, _ := s.Get(ctx, "k")
	require.Equal(t, []byte("abc"), again)
}
