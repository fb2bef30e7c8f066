package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const renderCacheTTL = 15 * time.Minute

// RenderCache giữ HTML đã render theo slug trong Redis. Client nil thì
// mọi thao tác là no-op (chạy không cần Redis).
type RenderCache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRenderCache(rdb *redis.Client, logger *slog.Logger) *RenderCache {
	return &RenderCache{rdb: rdb, logger: logger}
}

func cacheKey(slug string) string {
	return "render:" + slug
}

func (c *RenderCache) Get(ctx context.Context, slug string) (string, bool) {
	if c.rdb == nil || slug == "" {
		return "", false
	}
	html, err := c.rdb.Get(ctx, cacheKey(slug)).Result()
	if err != nil {
		return "", false
	}
	return html, true
}

func (c *RenderCache) Set(ctx context.Context, slug, html string) {
	if c.rdb == nil || slug == "" {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(slug), html, renderCacheTTL).Err(); err != nil {
		c.logger.Warn("render cache set failed", slog.String("slug", slug), slog.String("error", err.Error()))
	}
}

// Invalidate xoá cache của các slug sau khi save/delete.
func (c *RenderCache) Invalidate(ctx context.Context, slugs ...string) {
	if c.rdb == nil {
		return
	}
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		if s != "" {
			keys = append(keys, cacheKey(s))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("render cache invalidate failed", slog.String("error", err.Error()))
	}
}
