package storage

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in process and serves them under BaseURL.
type MemoryStore struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{BaseURL: strings.TrimRight(baseURL, "/"), objects: map[string][]byte{}}
}

func (m *MemoryStore) Upload(_ context.Context, key string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return m.BaseURL + "/" + key, nil
}

func (m *MemoryStore) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
