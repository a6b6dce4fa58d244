package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"losers-alert/internal/application/state"

	goredis "github.com/redis/go-redis/v9"
)

// maxTxRetries 大於單一鍵上可能同時存在的寫入者數，每次失敗都代表另一個寫入者已提交。
const maxTxRetries = 32

// ErrTooManyConflicts 表示 WATCH 衝突重試次數用盡，呼叫端應視為寫入失敗。
var ErrTooManyConflicts = errors.New("too many concurrent writers")

// Store 以 Redis 保存鍵值，Update 使用 WATCH/MULTI 樂觀鎖並在衝突時重試。
type Store struct {
	client *goredis.Client
	prefix string
}

// Options 為連線設定。
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New 建立 Redis 存儲。
func New(opts Options) *Store {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,

		PoolSize:     10,
		MinIdleConns: 1,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})
	return &Store{client: client, prefix: opts.Prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, state.ErrNotFound
	}
	return v, err
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *Store) Update(ctx context.Context, key string, fn state.UpdateFunc) error {
	full := s.key(key)
	txf := func(tx *goredis.Tx) error {
		cur, err := tx.Get(ctx, full).Bytes()
		found := true
		if errors.Is(err, goredis.Nil) {
			found, cur = false, nil
		} else if err != nil {
			return err
		}
		next, err := fn(cur, found)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, full)
				return nil
			}
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.client.Watch(ctx, txf, full)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: %w", key, ErrTooManyConflicts)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Ping 供健康檢查使用。
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close 關閉連線池。
func (s *Store) Close() error {
	return s.client.Close()
}
