package store

import (
	"context"
	"sync"
)

// MemoryStore implements Store with a mutex-guarded map. Contents are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, user, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[normalizeUser(user)][key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, user, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := normalizeUser(user)
	if s.data[u] == nil {
		s.data[u] = make(map[string]string)
	}
	s.data[u][key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, user string, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prefs := s.data[normalizeUser(user)]
	for _, k := range keys {
		delete(prefs, k)
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }
