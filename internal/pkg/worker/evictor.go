package worker

import (
	"context"

	"blog_api/pkg/cache"
)

// CacheEvictor 异步按模式清理缓存
type CacheEvictor struct {
	pool     *Pool
	cache    cache.CacheService
	patterns []string
}

func NewCacheEvictor(pool *Pool, c cache.CacheService, patterns ...string) *CacheEvictor {
	return &CacheEvictor{pool: pool, cache: c, patterns: patterns}
}

// Invalidate 提交清理任务，reason 仅用于日志
func (e *CacheEvictor) Invalidate(reason string) {
	e.pool.Submit(Task{
		Name: "evict:" + reason,
		Run: func(ctx context.Context) error {
			for _, pattern := range e.patterns {
				if err := e.cache.InvalidatePattern(ctx, pattern); err != nil {
					return err
				}
			}
			return nil
		},
	})
}
