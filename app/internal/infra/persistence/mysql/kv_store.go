package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"

	domcart "example.com/gomarketplace/app/internal/domain/cart"
)

// Open parses dsn, forces parseTime and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysqldrv.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysqldrv.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// KVStore keeps blobs in the kv_entries table, one row per key, partitioned
// by namespace so Clear only touches this application's rows.
type KVStore struct {
	db        *sql.DB
	namespace string
}

func NewKVStore(db *sql.DB, namespace string) *KVStore {
	return &KVStore{db: db, namespace: namespace}
}

func (s *KVStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS kv_entries (
            namespace  VARCHAR(128) NOT NULL,
            entry_key  VARCHAR(255) NOT NULL,
            value      LONGBLOB     NOT NULL,
            updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
            PRIMARY KEY (namespace, entry_key)
        )
    `)
	return err
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
        SELECT value FROM kv_entries
        WHERE namespace = ? AND entry_key = ?
    `, s.namespace, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domcart.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

func (s *KVStore) Set(ctx context.Context, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO kv_entries (namespace, entry_key, value)
        VALUES (?, ?, ?)
        ON DUPLICATE KEY UPDATE value = VALUES(value)
    `, s.namespace, key, blob)
	return err
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE namespace = ? AND entry_key = ?`, s.namespace, key)
	return err
}

func (s *KVStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE namespace = ?`, s.namespace)
	return err
}
