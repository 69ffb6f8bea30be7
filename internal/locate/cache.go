package locate

import (
	"context"
	"time"

	"coord-api/internal/metrics"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// 文档注释：定位结果两级缓存
// 背景：同一访客 IP 在短时间内重复定位，进程内 TinyLFU 承接热点，Redis 在多实例间共享。
// 约束：rc 为空时仅使用本地缓存；并发的同键未命中只回源一次（cache.Once）。
type fixCache struct {
	c   *cache.Cache
	ttl time.Duration
}

func newFixCache(rc *redis.Client, size int, ttl time.Duration) *fixCache {
	opts := &cache.Options{LocalCache: cache.NewTinyLFU(size, ttl)}
	if rc != nil {
		opts.Redis = rc
	}
	return &fixCache{c: cache.New(opts), ttl: ttl}
}

func (fc *fixCache) once(ctx context.Context, ip string, load func() (Fix, error)) (Fix, error) {
	var out Fix
	missed := false
	err := fc.c.Once(&cache.Item{
		Ctx:   ctx,
		Key:   "coord:locate:" + ip,
		Value: &out,
		TTL:   fc.ttl,
		Do: func(*cache.Item) (any, error) {
			missed = true
			return load()
		},
	})
	if missed {
		metrics.RedisMissesTotal.Inc()
	} else if err == nil {
		metrics.RedisHitsTotal.Inc()
	}
	return out, err
}
