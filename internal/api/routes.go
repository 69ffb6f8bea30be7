// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"coord-api/internal/locate"
	"coord-api/internal/metrics"
	"coord-api/internal/revgeo"
	"coord-api/internal/store"
	"coord-api/internal/version"
	"coord-api/pkg/coordtransform"

	"github.com/redis/go-redis/v9"
)

// StatsStore：统计写入与读取（*store.Store 实现）
type StatsStore interface {
	IncrStats(ctx context.Context, from, to string, n int, newVisitor bool) error
	GetTotals(ctx context.Context) (*store.Totals, error)
	RecordVerify(ctx context.Context, v store.VerifySample) error
}

// Locator：IP 定位（*locate.Manager 实现）
type Locator interface {
	Locate(ctx context.Context, ip string) (locate.Fix, error)
}

// ReverseGeocoder：反地理查询（*revgeo.Orchestrator 实现）
type ReverseGeocoder interface {
	Query(p coordtransform.GeoPoint, sys coordtransform.System) revgeo.Result
}

// RemoteConverter：外部坐标转换对照（*amap.Client 实现）
type RemoteConverter interface {
	Convert(ctx context.Context, p coordtransform.GeoPoint, from coordtransform.System) (coordtransform.GeoPoint, error)
}

// 文档注释：路由依赖
// 背景：除换算本身外其余依赖均可缺省；缺省时对应接口返回 503，换算不受影响。
type Deps struct {
	Stats    StatsStore
	Redis    *redis.Client
	Locator  Locator
	RevGeo   ReverseGeocoder
	AMap     RemoteConverter
	BatchMax int
}

type server struct {
	Deps
	now func() time.Time
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 /api 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	if d.BatchMax <= 0 {
		d.BatchMax = 1000
	}
	s := &server{Deps: d, now: time.Now}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /convert", timed("convert", s.handleConvert))
	mux.HandleFunc("POST /convert/batch", timed("convert_batch", s.handleBatch))
	mux.HandleFunc("GET /locate", timed("locate", s.handleLocate))
	mux.HandleFunc("GET /reverse_geo", timed("reverse_geo", s.handleReverseGeo))
	mux.HandleFunc("GET /verify", timed("verify", s.handleVerify))
	mux.HandleFunc("GET /stats", timed("stats", s.handleStats))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "commit": version.Commit})
	})
	return mux
}

func timed(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t0 := time.Now()
		h(w, r)
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(time.Since(t0).Milliseconds()))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
