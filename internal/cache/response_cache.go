package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "recipeshare/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyFeed   = "api:feed:"
	keyRecipe = "api:recipe:"
)

// ResponseCache caches public REST backend reads (feed pages, recipes) in Redis.
type ResponseCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResponseCache returns a new ResponseCache.
func NewResponseCache(rdb *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{rdb: rdb, ttl: ttl}
}

// FeedKey is the cache key of one feed page.
func FeedKey(page int) string { return keyFeed + strconv.Itoa(page) }

// RecipeKey is the cache key of a recipe as seen by viewerID (0 for anonymous).
func RecipeKey(recipeID, viewerID int64) string {
	return keyRecipe + strconv.FormatInt(recipeID, 10) + ":" + strconv.FormatInt(viewerID, 10)
}

// GetFeed returns a cached feed page or nil if miss.
func (c *ResponseCache) GetFeed(ctx context.Context, page int) (*dom.Feed, error) {
	var f dom.Feed
	ok, err := c.get(ctx, FeedKey(page), &f)
	if err != nil || !ok {
		return nil, err
	}
	return &f, nil
}

// SetFeed stores a feed page in cache.
func (c *ResponseCache) SetFeed(ctx context.Context, page int, f dom.Feed) error {
	return c.set(ctx, FeedKey(page), f)
}

// GetRecipe returns a cached recipe or nil if miss.
func (c *ResponseCache) GetRecipe(ctx context.Context, recipeID, viewerID int64) (*dom.Recipe, error) {
	var r dom.Recipe
	ok, err := c.get(ctx, RecipeKey(recipeID, viewerID), &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// SetRecipe stores a recipe in cache.
func (c *ResponseCache) SetRecipe(ctx context.Context, recipeID, viewerID int64, r dom.Recipe) error {
	return c.set(ctx, RecipeKey(recipeID, viewerID), r)
}

// InvalidateRecipe removes the recipe for every viewer.
func (c *ResponseCache) InvalidateRecipe(ctx context.Context, recipeID int64) error {
	return c.deletePattern(ctx, keyRecipe+strconv.FormatInt(recipeID, 10)+":*")
}

// InvalidateFeed removes all cached feed pages.
func (c *ResponseCache) InvalidateFeed(ctx context.Context) error {
	return c.deletePattern(ctx, keyFeed+"*")
}

func (c *ResponseCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *ResponseCache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

func (c *ResponseCache) deletePattern(ctx context.Context, pattern string) error {
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
