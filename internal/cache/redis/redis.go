// Package redis implementa cache.Cache sobre go-redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	rdb "github.com/redis/go-redis/v9"

	"github.com/crowdspark/crowdspark-api/internal/cache"
)

type Cache struct {
	c      *rdb.Client
	prefix string
}

// New abre la conexión y la verifica con un ping.
func New(ctx context.Context, addr string, db int, prefix string) (*Cache, error) {
	client := rdb.NewClient(&rdb.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Cache{c: client, prefix: prefix}, nil
}

func (r *Cache) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.c.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, rdb.Nil) {
			return nil, cache.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get: %w", err)
	}
	return b, nil
}

func (r *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.c.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

func (r *Cache) Delete(ctx context.Context, key string) error {
	if err := r.c.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis: del: %w", err)
	}
	return nil
}

// Client expone el cliente subyacente (lo comparte el rate limiter).
func (r *Cache) Client() *rdb.Client { return r.c }

// Close cierra la conexión.
func (r *Cache) Close() error { return r.c.Close() }
