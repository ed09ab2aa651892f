package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/marketplace-client/pkg/redis"
)

// RedisKV is the subset of *redis.Client the store needs.
type RedisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DeviceKey(deviceID, key string) string
	Close() error
}

// Redis namespaces entries per device so one instance can serve many kiosks.
type Redis struct {
	client   RedisKV
	deviceID string
	ttl      time.Duration
}

func NewRedis(client RedisKV, deviceID string, ttl time.Duration) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, errors.New("device id is required")
	}
	return &Redis{client: client, deviceID: deviceID, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.client.DeviceKey(r.deviceID, key))
	if errors.Is(err, redis.ErrNil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.client.DeviceKey(r.deviceID, key), value, r.ttl); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, 0, len(keys))
	for _, key := range keys {
		namespaced = append(namespaced, r.client.DeviceKey(r.deviceID, key))
	}
	if err := r.client.Del(ctx, namespaced...); err != nil {
		return fmt.Errorf("deleting %v: %w", keys, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
