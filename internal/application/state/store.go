// Package state 定義各持久化狀態（門檻、通知紀錄、釘選/隱藏）共用的鍵值存儲介面。
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// ErrNotFound 表示鍵不存在。
var ErrNotFound = errors.New("state: key not found")

// UpdateFunc 接收目前值（found=false 時 cur 為 nil），回傳新值；回傳 nil 表示刪除該鍵。
type UpdateFunc func(cur []byte, found bool) ([]byte, error)

// Store 為可替換的鍵值存儲；Update 對同一鍵必須是原子的讀改寫。
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
}

// GetFloat 讀取數值鍵；不存在時回傳 ErrNotFound。
func GetFloat(ctx context.Context, s Store, key string) (float64, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

// SetFloat 寫入數值鍵。
func SetFloat(ctx context.Context, s Store, key string, v float64) error {
	return s.Set(ctx, key, []byte(strconv.FormatFloat(v, 'f', -1, 64)))
}

// GetSet 讀取字串集合；不存在時回傳空集合且無錯誤。
func GetSet(ctx context.Context, s Store, key string) (map[string]struct{}, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeSet(raw)
}

// UnionSet 將 members 併入集合（只增不減）。
func UnionSet(ctx context.Context, s Store, key string, members []string) error {
	if len(members) == 0 {
		return nil
	}
	return s.Update(ctx, key, func(cur []byte, found bool) ([]byte, error) {
		set, err := decodeOrEmpty(cur, found)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			set[m] = struct{}{}
		}
		return EncodeSet(set)
	})
}

// ToggleMember 若 member 存在則移除，否則加入；回傳切換後是否存在。
func ToggleMember(ctx context.Context, s Store, key, member string) (bool, error) {
	var present bool
	err := s.Update(ctx, key, func(cur []byte, found bool) ([]byte, error) {
		set, err := decodeOrEmpty(cur, found)
		if err != nil {
			return nil, err
		}
		if _, ok := set[member]; ok {
			delete(set, member)
			present = false
		} else {
			set[member] = struct{}{}
			present = true
		}
		return EncodeSet(set)
	})
	return present, err
}

// EncodeSet 以排序後的 JSON 字串陣列編碼集合。
func EncodeSet(set map[string]struct{}) ([]byte, error) {
	return json.Marshal(SortedMembers(set))
}

// DecodeSet 解析 EncodeSet 的輸出。
func DecodeSet(raw []byte) (map[string]struct{}, error) {
	var members []string
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, fmt.Errorf("decode set: %w", err)
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set, nil
}

// SortedMembers 回傳排序後的集合成員。
func SortedMembers(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func decodeOrEmpty(cur []byte, found bool) (map[string]struct{}, error) {
	if !found || len(cur) == 0 {
		return map[string]struct{}{}, nil
	}
	return DecodeSet(cur)
}
