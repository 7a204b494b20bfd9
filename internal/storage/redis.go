package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores slots as plain string keys without expiry.
type RedisSlot struct {
	rdb *redis.Client
}

// NewRedisSlot connects to addr and checks the server answers PING.
func NewRedisSlot(ctx context.Context, addr, password string, db int) (*RedisSlot, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return &RedisSlot{rdb: rdb}, nil
}

// NewRedisSlotWithClient wraps an existing client.
func NewRedisSlotWithClient(rdb *redis.Client) *RedisSlot {
	return &RedisSlot{rdb: rdb}
}

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *RedisSlot) Set(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *RedisSlot) Close() error {
	return s.rdb.Close()
}
