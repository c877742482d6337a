// Package redis owns the connection backing the history and settings-version
// caches.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Per-command timeouts stay short; the history layer falls back to mysql
// when a cache read times out.
const (
	dialTimeout    = 3 * time.Second
	commandTimeout = 2 * time.Second
	pingTimeout    = 3 * time.Second

	minIdleConns = 2
)

// New connects and verifies the server answers before any cache is built on
// top of it.
func New(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  dialTimeout,
		ReadTimeout:  commandTimeout,
		WriteTimeout: commandTimeout,
		MinIdleConns: minIdleConns,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s failed: %w", addr, err)
	}

	return client, nil
}
