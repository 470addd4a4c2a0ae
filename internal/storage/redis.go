package storage

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis persists snapshots as TTL'd JSON strings and fans change
// notifications out lintas instance via pub/sub. Notifikasi lokal tetap
// lewat notifier (pesan pub/sub dari diri sendiri di-skip pakai origin id,
// biar subscriber tidak dobel).
type Redis struct {
	ns     string
	origin string
	rdb    *redis.Client
	ttl    time.Duration
	sub    *redis.PubSub
	cancel context.CancelFunc
	notifier
}

type changeMsg struct {
	Origin string `json:"origin"`
	Key    string `json:"key"`
}

func NewRedis(rdb *redis.Client, namespace string, ttl time.Duration) *Redis {
	s := &Redis{
		ns:     namespace,
		origin: uuid.NewString(),
		rdb:    rdb,
		ttl:    ttl,
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.sub = rdb.Subscribe(ctx, s.channel())
	go s.listen(ctx)
	return s
}

func (s *Redis) channel() string { return s.ns + "/changes" }

func (s *Redis) listen(ctx context.Context) {
	for {
		msg, err := s.sub.ReceiveMessage(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			// koneksi pub/sub putus; go-redis reconnect sendiri, kasih napas
			time.Sleep(500 * time.Millisecond)
			continue
		}
		var ch changeMsg
		if err := json.Unmarshal([]byte(msg.Payload), &ch); err != nil {
			continue
		}
		if ch.Origin == s.origin {
			continue // sudah dinotifikasi lokal saat Save
		}
		s.notify(ch.Key)
	}
}

func (s *Redis) Load(ctx context.Context, key string, out any) bool {
	b, err := s.rdb.Get(ctx, namespaced(s.ns, key)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("storage: load %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		log.Printf("storage: corrupt value at %s, using fallback: %v", key, err)
		return false
	}
	return true
}

func (s *Redis) Save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("storage: save %s: %v", key, err)
		return
	}
	if err := s.rdb.Set(ctx, namespaced(s.ns, key), b, s.ttl).Err(); err != nil {
		log.Printf("storage: save %s: %v", key, err)
		return // state lama di redis tetap utuh
	}
	s.notify(key)
	s.broadcast(ctx, key)
}

func (s *Redis) Delete(ctx context.Context, key string) {
	if err := s.rdb.Del(ctx, namespaced(s.ns, key)).Err(); err != nil {
		log.Printf("storage: delete %s: %v", key, err)
		return
	}
	s.notify(key)
	s.broadcast(ctx, key)
}

func (s *Redis) broadcast(ctx context.Context, key string) {
	b, _ := json.Marshal(changeMsg{Origin: s.origin, Key: key})
	if err := s.rdb.Publish(ctx, s.channel(), b).Err(); err != nil {
		log.Printf("storage: broadcast %s: %v", key, err)
	}
}

func (s *Redis) Subscribe(fn func(key string)) func() { return s.subscribe(fn) }

func (s *Redis) Close() error {
	s.cancel()
	return s.sub.Close()
}
