package ingest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"coord-api/internal/logger"
	"coord-api/internal/metrics"
	"coord-api/internal/revgeo"

	"github.com/robfig/cron/v3"
)

// Reloader：重新加载反地理快照并热替换到编排器
type Reloader struct {
	Dir          string
	CentroidsURL string
	HTTP         *http.Client
	Target       interface{ Swap(*revgeo.Snapshot) }
}

// 文档注释：执行一次重载
// 背景：配置了 CentroidsURL 时先拉取质心；拉取失败仍使用本地已有文件继续加载。
// 约束：快照加载失败时保留旧快照，不做替换。
func (r *Reloader) Reload(ctx context.Context) error {
	if r.CentroidsURL != "" {
		hc := r.HTTP
		if hc == nil {
			hc = &http.Client{Timeout: 60 * time.Second}
		}
		if _, err := FetchCentroids(ctx, hc, r.CentroidsURL, r.Dir); err != nil {
			logger.L().Warn("ingest_centroids_error", "err", err)
		}
	}
	snap, err := revgeo.LoadSnapshot(r.Dir)
	if err != nil {
		metrics.SnapshotReloadTotal.WithLabelValues("fail").Inc()
		return fmt.Errorf("reload snapshot: %w", err)
	}
	r.Target.Swap(snap)
	metrics.SnapshotReloadTotal.WithLabelValues("ok").Inc()
	logger.L().Info("revgeo_snapshot_reloaded", "units", len(snap.Units), "centroids", len(snap.Centroids))
	return nil
}

// 文档注释：按 cron 表达式在指定时区调度重载
// 背景：默认每周一 3:00（Asia/Shanghai）跟随上游更新节奏；错误由日志记录，任务继续调度。
// 约束：表达式为标准 5 段格式；时区加载失败回退 UTC；返回的 Cron 由调用方在退出时 Stop。
func StartReloadCron(spec, tz string, r *Reloader) (*cron.Cron, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.L().Warn("ingest_tz_fallback", "tz", tz, "err", err)
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := r.Reload(ctx); err != nil {
			logger.L().Error("revgeo_reload_error", "err", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("cron spec %q: %w", spec, err)
	}
	c.Start()
	logger.L().Info("revgeo_reload_scheduled", "spec", spec, "tz", loc.String())
	return c, nil
}
