package api

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	visitorBloomBits = 1 << 20
	visitorBloomK    = 4
	visitorBloomTTL  = 48 * time.Hour
)

// 文档注释：计算布隆过滤器位置
// 参数：data 为参与哈希的字节序列，m 为位图大小，k 为哈希次数（控制误判率与写入开销）。
// 背景：FNV64a 加索引前缀生成 k 个位置，用于 GetBit/SetBit。
func bloomPositions(data []byte, m uint32, k int) []int64 {
	pos := make([]int64, k)
	for i := 0; i < k; i++ {
		h := fnv.New64a()
		_, _ = h.Write([]byte{byte(i)})
		_, _ = h.Write(data)
		pos[i] = int64(h.Sum64() % uint64(m))
	}
	return pos
}

// 文档注释：检查并写入布隆过滤器位图
// 返回：true 表示首次见到（已写入位图）；false 表示已存在。
// 异常：Redis 交互错误时返回 error；rc 为 nil 时视为首次见到。
func bloomCheckAndSet(ctx context.Context, rc *redis.Client, key string, positions []int64, ttl time.Duration) (bool, error) {
	if rc == nil {
		return true, nil
	}
	pipe := rc.Pipeline()
	cmds := make([]*redis.IntCmd, len(positions))
	for i, p := range positions {
		cmds[i] = pipe.GetBit(ctx, key, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	seen := true
	for _, c := range cmds {
		if c.Val() == 0 {
			seen = false
			break
		}
	}
	if seen {
		return false, nil
	}
	pipe = rc.TxPipeline()
	for _, p := range positions {
		pipe.SetBit(ctx, key, p, 1)
	}
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return true, err
}

// 文档注释：当日新访客判定
// 背景：按自然日分桶（key 含日期），访客统计只需近似去重，误判仅导致少计。
// 约束：未配置 Redis 或 Redis 异常时不计为新访客，避免重复累加。
func newVisitorToday(ctx context.Context, rc *redis.Client, ip string, now time.Time) bool {
	if rc == nil || ip == "" {
		return false
	}
	key := "coord:visitors:" + now.Format("20060102")
	first, err := bloomCheckAndSet(ctx, rc, key, bloomPositions([]byte(ip), visitorBloomBits, visitorBloomK), visitorBloomTTL)
	if err != nil {
		return false
	}
	return first
}
