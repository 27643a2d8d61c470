package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"boardsync/domain"
)

type backend interface {
	ListTasks(ctx context.Context, owner string) ([]domain.Task, error)
	CreateTask(ctx context.Context, owner string, n domain.NewTask) (domain.Task, error)
	UpdateTask(ctx context.Context, owner, id string, upd domain.TaskUpdate) error
	DeleteTask(ctx context.Context, owner, id string) error
}

// Cache wraps a task store with Redis-backed caching for list reads. Every
// write evicts the owner's cached list so the reload after a mutation always
// observes the store.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching store wrapper using the provided Redis client
// and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	if tasks, ok := c.loadFromCache(ctx, owner); ok {
		return tasks, nil
	}
	tasks, err := c.base.ListTasks(ctx, owner)
	if err != nil {
		return nil, err
	}
	c.store(ctx, owner, tasks)
	return tasks, nil
}

func (c *Cache) CreateTask(ctx context.Context, owner string, n domain.NewTask) (domain.Task, error) {
	task, err := c.base.CreateTask(ctx, owner, n)
	if err != nil {
		return domain.Task{}, err
	}
	c.evict(ctx, owner)
	return task, nil
}

func (c *Cache) UpdateTask(ctx context.Context, owner, id string, upd domain.TaskUpdate) error {
	if err := c.base.UpdateTask(ctx, owner, id, upd); err != nil {
		return err
	}
	c.evict(ctx, owner)
	return nil
}

func (c *Cache) DeleteTask(ctx context.Context, owner, id string) error {
	if err := c.base.DeleteTask(ctx, owner, id); err != nil {
		return err
	}
	c.evict(ctx, owner)
	return nil
}

func (c *Cache) loadFromCache(ctx context.Context, owner string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(owner)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(owner)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) store(ctx context.Context, owner string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(owner), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, owner string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(owner)).Result()
}

func tasksCacheKey(owner string) string {
	return "tasks:" + owner
}
