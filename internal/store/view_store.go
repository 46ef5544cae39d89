// Package store mirrors session views into Redis so any instance can serve a
// read of a session and clients can recover the last state after a reconnect.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dev-Dami/Weather-App/internal/session"
)

const keyPrefix = "weather:session:"

const writeTimeout = 2 * time.Second

type ViewStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewViewStore(rdb *redis.Client, ttl time.Duration) *ViewStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ViewStore{rdb: rdb, ttl: ttl}
}

// Connect opens a client and verifies the server answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func key(id string) string { return keyPrefix + id }

func (s *ViewStore) Save(ctx context.Context, v session.View) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}
	return s.rdb.Set(ctx, key(v.ID), b, s.ttl).Err()
}

// Load returns nil without error when the session is not mirrored.
func (s *ViewStore) Load(ctx context.Context, id string) (*session.View, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v session.View
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode view %s: %w", id, err)
	}
	return &v, nil
}

func (s *ViewStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, key(id)).Err()
}

// Publish implements session.Listener. Closed sessions are removed from the
// mirror; every other event overwrites the stored view.
func (s *ViewStore) Publish(ev session.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	if ev.Type == session.EventClosed {
		err = s.Delete(ctx, ev.Session)
	} else {
		err = s.Save(ctx, ev.View)
	}
	if err != nil {
		slog.Warn("session mirror write failed", "session", ev.Session, "type", ev.Type, "error", err)
	}
}
