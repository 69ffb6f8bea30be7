package locate

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"coord-api/internal/logger"
	"coord-api/internal/metrics"
	"coord-api/internal/utils"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// 文档注释：来源健康状态
type status struct {
	healthy bool
	last    time.Time
}

type entry struct {
	src Source
	st  status
}

// 文档注释：定位管理器
// 背景：负责来源注册、心跳与健康筛选，并发查询健康来源后按 weight/10·confidence 择优。
// 约束：心跳周期默认 10s；心跳失败的来源不参与查询直到恢复；同分时保留注册顺序靠前者。
type Manager struct {
	mu         sync.RWMutex
	entries    []*entry
	hbInterval time.Duration
	timeout    time.Duration
	cache      *fixCache
}

// NewManager 创建管理器；rc 可为空（仅本地缓存）
func NewManager(rc *redis.Client) *Manager {
	ttl := time.Duration(utils.EnvInt("LOCATE_CACHE_TTL_S", 600)) * time.Second
	return &Manager{
		hbInterval: time.Duration(utils.EnvInt("LOCATE_HEARTBEAT_S", 10)) * time.Second,
		timeout:    time.Duration(utils.EnvInt("LOCATE_TIMEOUT_MS", 1500)) * time.Millisecond,
		cache:      newFixCache(rc, utils.EnvInt("LOCATE_CACHE_SIZE", 10000), ttl),
	}
}

// Register 注册来源，默认健康
func (m *Manager) Register(s Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, &entry{src: s, st: status{healthy: true, last: time.Now()}})
	logger.L().Info("locate_source_registered", "name", s.Name(), "weight", s.Weight())
}

// Healthy 返回当前健康来源（注册顺序）
func (m *Manager) Healthy() []Source {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Source
	for _, e := range m.entries {
		if e.st.healthy {
			out = append(out, e.src)
		}
	}
	return out
}

// Start 启动心跳循环，ctx 取消时停止
func (m *Manager) Start(ctx context.Context) {
	t := time.NewTicker(m.hbInterval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.heartbeat(ctx)
			}
		}
	}()
}

func (m *Manager) heartbeat(ctx context.Context) {
	m.mu.RLock()
	es := append([]*entry(nil), m.entries...)
	m.mu.RUnlock()
	results := make([]error, len(es))
	for i, e := range es {
		results[i] = e.src.Heartbeat(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for i, e := range es {
		name := e.src.Name()
		if err := results[i]; err != nil {
			e.st = status{healthy: false, last: now}
			logger.L().Debug("locate_heartbeat_fail", "name", name, "err", err)
			metrics.SourceHeartbeatTotal.WithLabelValues(name, "fail").Inc()
			continue
		}
		e.st = status{healthy: true, last: now}
		metrics.SourceHeartbeatTotal.WithLabelValues(name, "ok").Inc()
	}
}

// 文档注释：定位 IP
// 背景：先查缓存，未命中时并发查询全部健康来源；单个来源失败只记录不影响整体。
// 返回：最高分的 Fix（坐标仍为来源声明的坐标系）；无来源命中时返回 ErrNotFound。
func (m *Manager) Locate(ctx context.Context, ip string) (Fix, error) {
	if net.ParseIP(ip) == nil {
		return Fix{}, ErrBadIP
	}
	return m.cache.once(ctx, ip, func() (Fix, error) { return m.query(ctx, ip) })
}

func (m *Manager) query(ctx context.Context, ip string) (Fix, error) {
	srcs := m.Healthy()
	logger.L().Debug("locate_begin", "ip", ip, "healthy", len(srcs))
	fixes := make([]*Fix, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range srcs {
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, m.timeout)
			defer cancel()
			name := s.Name()
			t0 := time.Now()
			metrics.SourceRequestsTotal.WithLabelValues(name).Inc()
			f, err := s.Locate(qctx, ip)
			metrics.SourceDurationMs.WithLabelValues(name).Observe(float64(time.Since(t0).Milliseconds()))
			if err != nil {
				metrics.SourceFailTotal.WithLabelValues(name).Inc()
				if !errors.Is(err, ErrNotFound) {
					logger.L().Warn("locate_source_error", "name", name, "ip", ip, "err", err)
				}
				return nil
			}
			metrics.SourceSuccessTotal.WithLabelValues(name).Inc()
			f.Source = name
			fixes[i] = &f
			return nil
		})
	}
	_ = g.Wait()
	best, bestScore := -1, -1.0
	for i, f := range fixes {
		if f == nil {
			continue
		}
		sc := srcs[i].Weight() / 10 * f.Confidence
		logger.L().Debug("locate_weighted", "name", f.Source, "score", sc, "system", f.System.String())
		if sc > bestScore {
			best, bestScore = i, sc
		}
	}
	if best < 0 {
		return Fix{}, ErrNotFound
	}
	logger.L().Debug("locate_end", "ip", ip, "source", fixes[best].Source, "score", bestScore)
	return *fixes[best], nil
}
