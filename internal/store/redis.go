package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tracknet/tracker-hub/internal/models"
)

// lastLocationTTL bounds staleness of cached fixes; expired entries fall
// back to the database on read.
const lastLocationTTL = 5 * time.Minute

// LastLocationCache keeps the latest fix per device in Redis so the
// dashboard read path avoids a database round trip per poll.
type LastLocationCache struct {
	client *redis.Client
}

// NewLastLocationCache connects to Redis and verifies it with a ping.
func NewLastLocationCache(ctx context.Context, addr, password string, db int) (*LastLocationCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &LastLocationCache{client: client}, nil
}

// Close releases the Redis client.
func (c *LastLocationCache) Close() error {
	return c.client.Close()
}

// Ping verifies Redis connectivity, used by the readiness probe.
func (c *LastLocationCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SetLastLocation stores the fix as the device's latest known position.
func (c *LastLocationCache) SetLastLocation(ctx context.Context, fix models.LocationFix) error {
	payload, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("failed to marshal fix: %w", err)
	}

	key := lastLocationKey(fix.DeviceID)
	if err := c.client.Set(ctx, key, payload, lastLocationTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

// GetLastLocation returns the cached fix for a device, or nil on a cache
// miss.
func (c *LastLocationCache) GetLastLocation(ctx context.Context, deviceID string) (*models.LocationFix, error) {
	payload, err := c.client.Get(ctx, lastLocationKey(deviceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var fix models.LocationFix
	if err := json.Unmarshal(payload, &fix); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached fix: %w", err)
	}
	return &fix, nil
}

func lastLocationKey(deviceID string) string {
	return fmt.Sprintf("device:%s:last_location", deviceID)
}
