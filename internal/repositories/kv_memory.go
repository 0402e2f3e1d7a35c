package repositories

import (
	"context"
	"sync"
)

// MemoryKVStore はプロセス内のマップに保存するKVStoreです。
// テストと STORAGE_BACKEND=memory で使います。
type MemoryKVStore struct {
	mu      sync.RWMutex
	data    map[string]string
	offline bool
}

// NewMemoryKVStore は新しいMemoryKVStoreを作成します。
func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{data: make(map[string]string)}
}

// SetOffline はストアの利用可否を切り替えます (障害の再現用)。
func (m *MemoryKVStore) SetOffline(offline bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offline = offline
}

func (m *MemoryKVStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.offline {
		return "", false, ErrStorageUnavailable
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKVStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offline {
		return ErrStorageUnavailable
	}
	m.data[key] = value
	return nil
}

func (m *MemoryKVStore) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.offline {
		return ErrStorageUnavailable
	}
	return nil
}

func (m *MemoryKVStore) Close() error { return nil }
