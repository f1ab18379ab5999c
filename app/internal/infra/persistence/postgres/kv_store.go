package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domcart "example.com/gomarketplace/app/internal/domain/cart"
)

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

type KVStore struct {
	db        Querier
	namespace string
}

func NewKVStore(db Querier, namespace string) *KVStore {
	return &KVStore{db: db, namespace: namespace}
}

func (s *KVStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS kv_entries (
            namespace  TEXT        NOT NULL,
            entry_key  TEXT        NOT NULL,
            value      BYTEA       NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (namespace, entry_key)
        )
    `)
	return err
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(ctx, `
        SELECT value FROM kv_entries
        WHERE namespace = $1 AND entry_key = $2
    `, s.namespace, key).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domcart.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *KVStore) Set(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO kv_entries (namespace, entry_key, value)
        VALUES ($1, $2, $3)
        ON CONFLICT (namespace, entry_key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = now()
    `, s.namespace, key, blob)
	return err
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM kv_entries WHERE namespace = $1 AND entry_key = $2`, s.namespace, key)
	return err
}

func (s *KVStore) Clear(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM kv_entries WHERE namespace = $1`, s.namespace)
	return err
}
