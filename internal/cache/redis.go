package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const slotKey = "guesstimate:memo"

// Redis keeps the slot in a single Redis key so several processes share it.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to addr. A zero ttl keeps the slot until it is replaced.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Load(ctx context.Context, key string) (*Entry, error) {
	data, err := r.client.Get(ctx, slotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memo: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode memo: %w", err)
	}
	if entry.Key != key {
		return nil, nil
	}
	return &entry, nil
}

func (r *Redis) Save(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode memo: %w", err)
	}
	return r.client.Set(ctx, slotKey, data, r.ttl).Err()
}

func (r *Redis) Reset(ctx context.Context) error {
	return r.client.Del(ctx, slotKey).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
