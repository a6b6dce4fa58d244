package memory

import (
	"context"
	"sync"

	"losers-alert/internal/application/state"
)

// Store 為記憶體版鍵值存儲，供測試與未設定持久化時使用；併發安全。
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore 建立新的記憶體 Store 實例。
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get 取得鍵值，回傳複本避免外部改寫內部資料。
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, state.ErrNotFound
	}
	return clone(v), nil
}

// Set 覆寫鍵值。
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(value)
	return nil
}

// Update 在寫鎖內完成讀改寫。
func (s *Store) Update(_ context.Context, key string, fn state.UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[key]
	next, err := fn(clone(cur), ok)
	if err != nil {
		return err
	}
	if next == nil {
		delete(s.data, key)
		return nil
	}
	s.data[key] = clone(next)
	return nil
}

// Delete 移除鍵；不存在時不視為錯誤。
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys 回傳目前所有鍵，主要用於測試檢查。
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	return out
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
