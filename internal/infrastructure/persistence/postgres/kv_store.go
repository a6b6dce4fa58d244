package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"losers-alert/internal/application/state"
)

// KVStore 以 kv_entries 表實作 state.Store，供多個程序共用同一份狀態。
type KVStore struct {
	db *sql.DB
}

// NewKVStore 建立 Postgres 鍵值存儲。
func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM kv_entries WHERE key = $1;`
	var v []byte
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, state.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	const q = `
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
`
	_, err := s.db.ExecContext(ctx, q, key, value)
	return err
}

// Update 以交易層級 advisory lock 序列化同一鍵的讀改寫；鍵尚不存在時一樣能互斥。
func (s *KVStore) Update(ctx context.Context, key string, fn state.UpdateFunc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, key); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}

	var cur []byte
	found := true
	err = tx.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1;`, key).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		found = false
	} else if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}

	next, err := fn(cur, found)
	if err != nil {
		return err
	}

	if next == nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1;`, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	} else {
		const upsert = `
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW();
`
		if _, err := tx.ExecContext(ctx, upsert, key, next); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1;`, key)
	return err
}

// Ping 供健康檢查使用。
func (s *KVStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
