package cache

import (
	"context"
	"fmt"
	"strconv"

	redisv9 "github.com/redis/go-redis/v9"
)

const settingsVersionKey = "assistant:settings:version"

// SettingsCache tracks the current assistant settings version so clients can
// poll for changes without hitting the database on every request.
type SettingsCache struct {
	client *redisv9.Client
}

func NewSettingsCache(client *redisv9.Client) *SettingsCache {
	return &SettingsCache{client: client}
}

func (c *SettingsCache) SetVersion(ctx context.Context, version int64) error {
	if err := c.client.Set(ctx, settingsVersionKey, version, 0).Err(); err != nil {
		return fmt.Errorf("redis set settings version failed: %w", err)
	}
	return nil
}

// GetVersion returns the published version, or 0 when none has been set.
func (c *SettingsCache) GetVersion(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, settingsVersionKey).Result()
	if err == redisv9.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get settings version failed: %w", err)
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse settings version failed: %w", err)
	}
	return version, nil
}
