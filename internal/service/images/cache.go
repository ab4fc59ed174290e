package images

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/pkg/cache"
)

// Store 缓存存储，*cache.RedisCache 实现了它
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type cachedImage struct {
	URL *string `json:"url"`
}

// CachedResolver 给 Resolver 加一层缓存
// 命中和没有结果都会缓存（没有结果使用较短的 TTL）；上游出错不缓存；缓存故障只记日志
type CachedResolver struct {
	inner    Lookuper
	store    Store
	provider string
	ttl      time.Duration
	missTTL  time.Duration
}

// NewCachedResolver 创建带缓存的检索器
func NewCachedResolver(inner Lookuper, store Store, provider string, ttl, missTTL time.Duration) *CachedResolver {
	if ttl <= 0 {
		ttl = cache.ImageCacheTTL
	}
	if missTTL <= 0 {
		missTTL = cache.ImageMissTTL
	}
	return &CachedResolver{
		inner:    inner,
		store:    store,
		provider: provider,
		ttl:      ttl,
		missTTL:  missTTL,
	}
}

// ResolveImage 先查缓存，再查上游
func (r *CachedResolver) ResolveImage(ctx context.Context, keyword string) *string {
	if strings.TrimSpace(keyword) == "" {
		return nil
	}
	key := cache.ImageCacheKey(r.provider, keyword)

	var hit cachedImage
	if err := r.store.Get(ctx, key, &hit); err == nil {
		log.Debug().Str("keyword", keyword).Bool("found", hit.URL != nil).Msg("image cache hit")
		return hit.URL
	}

	u, err := r.inner.Lookup(ctx, keyword)
	if err != nil {
		log.Warn().Err(err).Str("keyword", keyword).Msg("image search failed")
		return nil
	}

	ttl := r.ttl
	if u == nil {
		ttl = r.missTTL
	}
	if err := r.store.Set(ctx, key, cachedImage{URL: u}, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("image cache write failed")
	}
	return u
}
