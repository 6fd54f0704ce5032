// Package rediscache is an optional read-through cache for device
// consumption history.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	telemetry "energy-dashboard/internal/telemetry/domain"
)

const (
	historyKeyPrefix = "device:history:"

	// DefaultTTL keeps cached history short-lived; the feed appends
	// every few minutes.
	DefaultTTL = 2 * time.Minute
)

// Cache stores per-device history in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(addr, password string, db int, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		return nil, errors.New("rediscache: empty addr")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("rediscache: connect: %w", err)
	}
	return &Cache{client: client, ttl: ttl}, nil
}

// GetHistory returns the cached samples and whether the key was
// present.
func (c *Cache) GetHistory(ctx context.Context, deviceID int64) ([]telemetry.ConsumptionSample, bool) {
	data, err := c.client.Get(ctx, historyKey(deviceID)).Bytes()
	if err != nil {
		return nil, false
	}
	var samples []telemetry.ConsumptionSample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, false
	}
	return samples, true
}

// PutHistory caches the samples with the configured TTL. Failures are
// swallowed; the cache is best effort.
func (c *Cache) PutHistory(ctx context.Context, deviceID int64, samples []telemetry.ConsumptionSample) {
	data, err := json.Marshal(samples)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, historyKey(deviceID), data, c.ttl).Err()
}

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func historyKey(deviceID int64) string {
	return fmt.Sprintf("%s%d", historyKeyPrefix, deviceID)
}
