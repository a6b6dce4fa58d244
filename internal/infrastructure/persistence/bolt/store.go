package bolt

import (
	"context"
	"fmt"
	"time"

	"losers-alert/internal/application/state"

	bbolt "go.etcd.io/bbolt"
)

var bucketName = []byte("state")

// Store 以 bbolt 單檔資料庫保存鍵值；bbolt 的寫交易天然序列化，Update 即為原子讀改寫。
type Store struct {
	db *bbolt.DB
}

// Open 開啟（必要時建立）bbolt 檔案並確保 bucket 存在。
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close 關閉資料庫檔案。
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return state.ErrNotFound
		}
		// bbolt 回傳的 slice 只在交易內有效
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
}

func (s *Store) Update(ctx context.Context, key string, fn state.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		cur := b.Get([]byte(key))
		var copied []byte
		if cur != nil {
			copied = append([]byte(nil), cur...)
		}
		next, err := fn(copied, cur != nil)
		if err != nil {
			return err
		}
		if next == nil {
			return b.Delete([]byte(key))
		}
		return b.Put([]byte(key), next)
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

// Ping 確認資料庫仍可讀取，供健康檢查使用。
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketName) == nil {
			return fmt.Errorf("bucket %s missing", bucketName)
		}
		return nil
	})
}
