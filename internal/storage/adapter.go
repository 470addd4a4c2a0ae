package storage

import (
	"context"
	"sync"
)

// Adapter is generic namespaced key/value persistence for JSON snapshots.
// Kontraknya sengaja "never throws": Load yang gagal berarti caller pakai
// fallback-nya sendiri, Save yang gagal cuma di-log; alur UI tidak boleh
// putus gara-gara storage.
type Adapter interface {
	// Load reads and JSON-decodes the value at key into out. Returns false
	// when the key is absent or the stored value is unreadable; out is left
	// untouched so the caller keeps its fallback.
	Load(ctx context.Context, key string, out any) bool

	// Save JSON-encodes v and writes it at key. On success every subscriber
	// is notified with the key; on failure a warning is logged and the prior
	// stored state stays as-is.
	Save(ctx context.Context, key string, v any)

	// Delete removes the key and notifies subscribers.
	Delete(ctx context.Context, key string)

	// Subscribe registers fn for change notifications. The returned func
	// unsubscribes.
	Subscribe(fn func(key string)) (unsubscribe func())

	Close() error
}

// notifier is the in-process change broadcast, padanan dari synthetic
// storage event di browser (event bawaan cuma cross-tab, sama seperti redis
// pub/sub yang dipakai untuk lintas instance).
type notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]func(key string)
}

func (n *notifier) subscribe(fn func(string)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(string))
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify(key string) {
	n.mu.Lock()
	fns := make([]func(string), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}

func namespaced(ns, key string) string { return ns + "/" + key }
