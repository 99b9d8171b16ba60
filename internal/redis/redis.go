// Package redis caches loaded task collections in Redis so repeated CLI
// invocations do not refetch the whole workspace from the remote store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Jayphen/taskboard/internal/types"
	"github.com/redis/go-redis/v9"
)

const (
	// TasksKeyPrefix is the Redis key prefix for cached task collections.
	TasksKeyPrefix = "taskboard:tasks:"
	// DefaultRedisURL is the default Redis connection URL.
	DefaultRedisURL = "redis://localhost:6379"
	// DefaultTTL bounds how stale a cached collection may get.
	DefaultTTL = 5 * time.Minute

	allWorkspaces = "_all"
)

// Client wraps a Redis client with task cache operations.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to url (DefaultRedisURL when empty) and pings it.
func NewClient(url string) (*Client, error) {
	if url == "" {
		url = DefaultRedisURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// TasksKey returns the cache key for a workspace.
func TasksKey(workspaceID string) string {
	if workspaceID == "" {
		workspaceID = allWorkspaces
	}
	return TasksKeyPrefix + workspaceID
}

// GetTasks returns the cached collection for a workspace. The bool is false
// on a miss. Entries that fail to decode are deleted and reported as a miss.
func (c *Client) GetTasks(ctx context.Context, workspaceID string) ([]types.Task, bool, error) {
	key := TasksKey(workspaceID)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var tasks []types.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false, nil
	}
	return tasks, true, nil
}

// SetTasks stores a collection for a workspace. A ttl of 0 keeps it forever.
func (c *Client) SetTasks(ctx context.Context, workspaceID string, tasks []types.Task, ttl time.Duration) error {
	if tasks == nil {
		tasks = []types.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, TasksKey(workspaceID), data, ttl).Err()
}

// Invalidate drops the cached collection for a workspace, and the
// all-workspace listing which also contains it.
func (c *Client) Invalidate(ctx context.Context, workspaceID string) error {
	keys := []string{TasksKey(workspaceID)}
	if workspaceID != "" {
		keys = append(keys, TasksKey(""))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// InvalidateAll drops every cached collection.
func (c *Client) InvalidateAll(ctx context.Context) (int, error) {
	keys, err := c.scanKeys(ctx, TasksKeyPrefix+"*")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := c.rdb.Del(ctx, keys...).Result()
	return int(n), err
}

// CachedWorkspaces lists the workspaces that currently have a cache entry.
func (c *Client) CachedWorkspaces(ctx context.Context) ([]string, error) {
	keys, err := c.scanKeys(ctx, TasksKeyPrefix+"*")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k[len(TasksKeyPrefix):])
	}
	return out, nil
}

// scanKeys scans for all keys matching a pattern.
func (c *Client) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		var batch []string
		var err error
		batch, cursor, err = c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return keys, err
		}

		keys = append(keys, batch...)

		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// IsAvailable checks if Redis is reachable at url.
func IsAvailable(url string) bool {
	client, err := NewClient(url)
	if err != nil {
		return false
	}
	defer client.Close()
	return true
}
