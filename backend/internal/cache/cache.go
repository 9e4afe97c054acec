// Package cache keeps category and forum rows in redis between requests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/logger"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "forum:"
	scanBatch     = 100
)

// Records is a redis-backed record cache. Every failure is logged and
// treated as a miss, so redis being down only costs extra queries.
type Records struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Log.Info("redis connected", "component", "cache", "addr", cfg.Addr)
	return client, nil
}

// New keeps records under prefix+"record:" so Flush leaves the other users
// of the client alone. An empty prefix falls back to "forum:".
func New(client *redis.Client, prefix string, ttl time.Duration) *Records {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Records{client: client, prefix: prefix + "record:", ttl: ttl}
}

func (c *Records) categoryKey(id domain.CategoryId) string {
	return c.prefix + "category:" + strconv.FormatInt(id, 10)
}

func (c *Records) forumKey(id domain.ForumId) string {
	return c.prefix + "forum:" + strconv.FormatInt(id, 10)
}

func (c *Records) Category(ctx context.Context, id domain.CategoryId) (domain.Category, bool) {
	var category domain.Category
	ok := c.get(ctx, c.categoryKey(id), &category)
	return category, ok
}

func (c *Records) SetCategory(ctx context.Context, category domain.Category) {
	c.set(ctx, c.categoryKey(category.Id), category)
}

func (c *Records) InvalidateCategory(ctx context.Context, id domain.CategoryId) {
	c.del(ctx, c.categoryKey(id))
}

func (c *Records) Forum(ctx context.Context, id domain.ForumId) (domain.Forum, bool) {
	var forum domain.Forum
	ok := c.get(ctx, c.forumKey(id), &forum)
	return forum, ok
}

func (c *Records) SetForum(ctx context.Context, forum domain.Forum) {
	c.set(ctx, c.forumKey(forum.Id), forum)
}

func (c *Records) InvalidateForum(ctx context.Context, id domain.ForumId) {
	c.del(ctx, c.forumKey(id))
}

// Flush drops every cached record.
func (c *Records) Flush(ctx context.Context) {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", scanBatch).Result()
		if err != nil {
			logger.Log.Warn("cache scan failed", "component", "cache", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				logger.Log.Warn("cache bulk delete failed", "component", "cache", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	logger.Log.Debug("cache flushed", "component", "cache", "deleted", deleted)
}

func (c *Records) get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		logger.Log.Warn("cache get failed", "component", "cache", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logger.Log.Warn("cache entry is corrupt", "component", "cache", "key", key, "error", err)
		c.del(ctx, key)
		return false
	}
	return true
}

func (c *Records) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Log.Warn("cache encode failed", "component", "cache", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		logger.Log.Warn("cache set failed", "component", "cache", "key", key, "error", err)
	}
}

func (c *Records) del(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.Log.Warn("cache delete failed", "component", "cache", "key", key, "error", err)
	}
}
