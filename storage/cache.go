package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"planflow-api/domain"
)

type backend interface {
	ListTasks(ctx context.Context, userID string) ([]domain.Task, error)
	ListCategories(ctx context.Context, userID string) ([]domain.Category, error)
	InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error
	InsertCategories(ctx context.Context, userID string, cats []domain.Category) error
	UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) error
	UpdateCategory(ctx context.Context, userID, id string, patch domain.CategoryPatch) error
	DeleteTask(ctx context.Context, userID, id string) error
	DeleteCategory(ctx context.Context, userID, id string) error
	UpsertCategories(ctx context.Context, userID string, cats []domain.Category) error
	PublishEvents(ctx context.Context, userID string, events []domain.Event) error
}

// Cache wraps a Storage instance with Redis-backed caching for the read
// operations. Every write evicts the user's cached board so the next load
// comes from the tables.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	return &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
}

func (c *Cache) ListTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	if tasks, ok := loadCached[[]domain.Task](ctx, c, tasksCacheKey(userID)); ok {
		return tasks, nil
	}

	tasks, err := c.base.ListTasks(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, tasksCacheKey(userID), tasks)
	return tasks, nil
}

func (c *Cache) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	if cats, ok := loadCached[[]domain.Category](ctx, c, categoriesCacheKey(userID)); ok {
		return cats, nil
	}

	cats, err := c.base.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.store(ctx, categoriesCacheKey(userID), cats)
	return cats, nil
}

func (c *Cache) InsertTasks(ctx context.Context, userID string, tasks []domain.Task) error {
	return c.write(ctx, userID, func() error { return c.base.InsertTasks(ctx, userID, tasks) })
}

func (c *Cache) InsertCategories(ctx context.Context, userID string, cats []domain.Category) error {
	return c.write(ctx, userID, func() error { return c.base.InsertCategories(ctx, userID, cats) })
}

func (c *Cache) UpdateTask(ctx context.Context, userID, id string, patch domain.TaskPatch) error {
	return c.write(ctx, userID, func() error { return c.base.UpdateTask(ctx, userID, id, patch) })
}

func (c *Cache) UpdateCategory(ctx context.Context, userID, id string, patch domain.CategoryPatch) error {
	return c.write(ctx, userID, func() error { return c.base.UpdateCategory(ctx, userID, id, patch) })
}

func (c *Cache) DeleteTask(ctx context.Context, userID, id string) error {
	return c.write(ctx, userID, func() error { return c.base.DeleteTask(ctx, userID, id) })
}

func (c *Cache) DeleteCategory(ctx context.Context, userID, id string) error {
	return c.write(ctx, userID, func() error { return c.base.DeleteCategory(ctx, userID, id) })
}

func (c *Cache) UpsertCategories(ctx context.Context, userID string, cats []domain.Category) error {
	return c.write(ctx, userID, func() error { return c.base.UpsertCategories(ctx, userID, cats) })
}

func (c *Cache) PublishEvents(ctx context.Context, userID string, events []domain.Event) error {
	return c.base.PublishEvents(ctx, userID, events)
}

func (c *Cache) write(ctx context.Context, userID string, op func() error) error {
	if err := op(); err != nil {
		return err
	}
	c.evict(ctx, userID)
	return nil
}

func loadCached[T any](ctx context.Context, c *Cache, key string) (T, bool) {
	var zero T
	if c.redis == nil {
		return zero, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return zero, false
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return zero, false
	}
	return out, true
}

func (c *Cache) store(ctx context.Context, key string, value any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(userID), categoriesCacheKey(userID)).Result()
}

func tasksCacheKey(userID string) string {
	return "tasks:" + userID
}

func categoriesCacheKey(userID string) string {
	return "categories:" + userID
}
