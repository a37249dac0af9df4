package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Memory is a map-backed store used in tests and as the zero-config fallback.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string, into any) error {
	m.mu.RLock()
	raw, ok := m.docs[key]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fmt.Errorf("decode document %s: %w", key, err)
	}
	return nil
}

func (m *Memory) Put(_ context.Context, key string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", key, err)
	}
	m.mu.Lock()
	m.docs[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.docs, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	pre := strings.TrimSuffix(prefix, "/") + "/"
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for key := range m.docs {
		if !strings.HasPrefix(key, pre) {
			continue
		}
		rest := strings.TrimPrefix(key, pre)
		if strings.Contains(rest, "/") {
			continue
		}
		ids = append(ids, rest)
	}
	return ids, nil
}

func (m *Memory) DeleteAll(_ context.Context, prefix string) error {
	pre := strings.TrimSuffix(prefix, "/") + "/"
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.docs {
		if strings.HasPrefix(key, pre) {
			delete(m.docs, key)
		}
	}
	return nil
}
