package tasksource

import (
	"context"
	"time"

	"github.com/Jayphen/taskboard/internal/logging"
	"github.com/Jayphen/taskboard/internal/redis"
	"github.com/Jayphen/taskboard/internal/types"
)

// CachedStore wraps a Store with the Redis collection cache. ListTasks reads
// through the cache; every successful mutation evicts the workspace listing.
// Cache failures are logged and never fail the call.
type CachedStore struct {
	base  Store
	cache *redis.Client
	ttl   time.Duration
	log   *logging.Logger
}

// NewCachedStore wraps base. A ttl of 0 disables writes to the cache.
func NewCachedStore(base Store, cache *redis.Client, ttl time.Duration, log *logging.Logger) *CachedStore {
	if base == nil {
		panic("tasksource.NewCachedStore: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if log == nil {
		log = logging.Nop()
	}
	return &CachedStore{base: base, cache: cache, ttl: ttl, log: log}
}

// Info reports the backing store's metadata with Cached set.
func (c *CachedStore) Info() SourceInfo {
	info := c.base.Info()
	info.Cached = c.cache != nil
	return info
}

// ListTasks serves the workspace listing from Redis when present.
func (c *CachedStore) ListTasks(ctx context.Context, workspaceID string) ([]types.Task, error) {
	if c.cache != nil {
		tasks, ok, err := c.cache.GetTasks(ctx, workspaceID)
		if err != nil {
			c.log.WithWorkspace(workspaceID).WithError(err).Warn("task cache read failed")
		} else if ok {
			c.log.WithWorkspace(workspaceID).Debug("task cache hit")
			return tasks, nil
		}
	}

	tasks, err := c.base.ListTasks(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && c.ttl > 0 {
		if err := c.cache.SetTasks(ctx, workspaceID, tasks, c.ttl); err != nil {
			c.log.WithWorkspace(workspaceID).WithError(err).Warn("task cache write failed")
		}
	}
	return tasks, nil
}

// GetTask always goes to the backing store.
func (c *CachedStore) GetTask(ctx context.Context, id string) (types.Task, error) {
	return c.base.GetTask(ctx, id)
}

// CreateTask creates through the backing store and evicts the workspace.
func (c *CachedStore) CreateTask(ctx context.Context, draft types.Task) (types.Task, error) {
	t, err := c.base.CreateTask(ctx, draft)
	if err != nil {
		return types.Task{}, err
	}
	c.evict(ctx, t.WorkspaceID)
	return t, nil
}

// UpdateTask updates through the backing store and evicts the workspace.
func (c *CachedStore) UpdateTask(ctx context.Context, id string, update types.TaskUpdate) (types.Task, error) {
	t, err := c.base.UpdateTask(ctx, id, update)
	if err != nil {
		return types.Task{}, err
	}
	c.evict(ctx, t.WorkspaceID)
	return t, nil
}

// DeleteTask deletes through the backing store. The owning workspace is not
// known after deletion, so every cached listing is dropped.
func (c *CachedStore) DeleteTask(ctx context.Context, id string) error {
	if err := c.base.DeleteTask(ctx, id); err != nil {
		return err
	}
	if c.cache == nil {
		return nil
	}
	if _, err := c.cache.InvalidateAll(ctx); err != nil {
		c.log.WithTask(id).WithError(err).Warn("task cache eviction failed")
	}
	return nil
}

// Close closes the backing store and the cache connection.
func (c *CachedStore) Close() error {
	err := c.base.Close()
	if c.cache != nil {
		if cerr := c.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (c *CachedStore) evict(ctx context.Context, workspaceID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, workspaceID); err != nil {
		c.log.WithWorkspace(workspaceID).WithError(err).Warn("task cache eviction failed")
	}
}
