package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	domcart "example.com/gomarketplace/app/internal/domain/cart"
)

type execCall struct {
	sql  string
	args []any
}

type fakeRow struct {
	blob []byte
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.blob
	return nil
}

type fakeQuerier struct {
	execs   []execCall
	execErr error
	row     fakeRow
	queried []any
}

func (f *fakeQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("OK"), f.execErr
}

func (f *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queried = args
	return f.row
}

func TestGet_NoRows_ReturnsKeyNotFound(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	store := NewKVStore(q, "gomarketplace")

	_, err := store.Get(context.Background(), "@GoMarketplace:products")

	require.ErrorIs(t, err, domcart.ErrKeyNotFound)
	require.Equal(t, []any{"gomarketplace", "@GoMarketplace:products"}, q.queried)
}

func TestGet_ReturnsBlob(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{blob: []byte(`{"version":1,"products":[]}`)}}
	store := NewKVStore(q, "gomarketplace")

	blob, err := store.Get(context.Background(), "k")

	require.NoError(t, err)
	require.Equal(t, `{"version":1,"products":[]}`, string(blob))
}

func TestGet_PropagatesOtherErrors(t *testing.T) {
	boom := errors.New("conn reset")
	store := NewKVStore(&fakeQuerier{row: fakeRow{err: boom}}, "ns")

	_, err := store.Get(context.Background(), "k")

	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, domcart.ErrKeyNotFound)
}

func TestWrites_AreScopedToNamespace(t *testing.T) {
	q := &fakeQuerier{}
	store := NewKVStore(q, "ns")
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Clear(ctx))

	require.Len(t, q.execs, 3)
	require.Equal(t, []any{"ns", "k", []byte("v")}, q.execs[0].args)
	require.Contains(t, q.execs[0].sql, "ON CONFLICT")
	require.Equal(t, []any{"ns", "k"}, q.execs[1].args)
	require.Equal(t, []any{"ns"}, q.execs[2].args)
}

func TestSet_PropagatesError(t *testing.T) {
	boom := errors.New("read-only transaction")
	store := NewKVStore(&fakeQuerier{execErr: boom}, "ns")

	require.ErrorIs(t, store.Set(context.Background(), "k", []byte("v")), boom)
}
