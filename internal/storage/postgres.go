package storage

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres persists snapshots in a single kv table:
//
//	CREATE TABLE cart_kv (
//	  k          TEXT PRIMARY KEY,
//	  v          JSONB NOT NULL,
//	  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// Notifikasi perubahan hanya in-process; fan-out lintas instance cuma ada di
// backend redis.
type Postgres struct {
	ns string
	db *pgxpool.Pool
	notifier
}

func NewPostgres(db *pgxpool.Pool, namespace string) *Postgres {
	return &Postgres{ns: namespace, db: db}
}

func (s *Postgres) Load(ctx context.Context, key string, out any) bool {
	var b []byte
	err := s.db.QueryRow(ctx, `SELECT v FROM cart_kv WHERE k=$1`, namespaced(s.ns, key)).Scan(&b)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
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

func (s *Postgres) Save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("storage: save %s: %v", key, err)
		return
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO cart_kv(k, v, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = now()
	`, namespaced(s.ns, key), b)
	if err != nil {
		log.Printf("storage: save %s: %v", key, err)
		return
	}
	s.notify(key)
}

func (s *Postgres) Delete(ctx context.Context, key string) {
	if _, err := s.db.Exec(ctx, `DELETE FROM cart_kv WHERE k=$1`, namespaced(s.ns, key)); err != nil {
		log.Printf("storage: delete %s: %v", key, err)
		return
	}
	s.notify(key)
}

func (s *Postgres) Subscribe(fn func(key string)) func() { return s.subscribe(fn) }

func (s *Postgres) Close() error { return nil }
