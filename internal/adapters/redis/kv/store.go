// Package kv provides a Redis-backed kv.Store, for guard posts whose terminals share
// a Redis instance instead of local disk.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatepass-registry/gatepass/internal/ports/out/kv"
)

const defaultPrefix = "gatepass:"

// Store implements kv.Store and kv.Batcher on Redis strings.
type Store struct {
	client *redis.Client
	prefix string
}

// NewStore parses redisURL, connects and pings the server.
func NewStore(ctx context.Context, redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewStoreWithClient(client, defaultPrefix), nil
}

// NewStoreWithClient wraps an existing client. Keys are namespaced with prefix.
func NewStoreWithClient(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Namespaced returns a store sharing s's connection whose keys live under ns.
func (s *Store) Namespaced(ns string) *Store {
	if ns == "" {
		return s
	}
	return &Store{client: s.client, prefix: s.prefix + ns + ":"}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Apply runs all ops inside MULTI/EXEC.
func (s *Store) Apply(ctx context.Context, ops []kv.Op) error {
	for _, op := range ops {
		if op.Key == "" || (op.Kind != kv.OpSet && op.Kind != kv.OpDelete) {
			return kv.ErrInvalidOp
		}
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			switch op.Kind {
			case kv.OpSet:
				pipe.Set(ctx, s.key(op.Key), op.Value, 0)
			case kv.OpDelete:
				pipe.Del(ctx, s.key(op.Key))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis batch: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
