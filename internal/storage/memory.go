package storage

import (
	"context"
	"encoding/json"
	"log"
	"sync"
)

// Memory is the in-process backend. Dipakai di test dan untuk jalan lokal
// tanpa redis/postgres.
type Memory struct {
	ns string
	mu sync.Mutex
	m  map[string][]byte
	notifier
}

func NewMemory(namespace string) *Memory {
	return &Memory{ns: namespace, m: make(map[string][]byte)}
}

func (s *Memory) Load(_ context.Context, key string, out any) bool {
	s.mu.Lock()
	b, ok := s.m[namespaced(s.ns, key)]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		log.Printf("storage: corrupt value at %s, using fallback: %v", key, err)
		return false
	}
	return true
}

func (s *Memory) Save(_ context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("storage: save %s: %v", key, err)
		return
	}
	s.mu.Lock()
	s.m[namespaced(s.ns, key)] = b
	s.mu.Unlock()
	s.notify(key)
}

func (s *Memory) Delete(_ context.Context, key string) {
	s.mu.Lock()
	delete(s.m, namespaced(s.ns, key))
	s.mu.Unlock()
	s.notify(key)
}

func (s *Memory) Subscribe(fn func(key string)) func() { return s.subscribe(fn) }

func (s *Memory) Close() error { return nil }

// put is a test hook for seeding raw (possibly corrupt) values.
func (s *Memory) put(key string, raw []byte) {
	s.mu.Lock()
	s.m[namespaced(s.ns, key)] = raw
	s.mu.Unlock()
}
