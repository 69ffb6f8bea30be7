package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var msBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000}

var (
	ConversionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_conversions_total",
		Help: "Total converted points by source and target system",
	}, []string{"from", "to"})
	PassthroughTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coordapi_out_of_china_total",
		Help: "Total points outside the obfuscation region (WGS84/GCJ-02 identity)",
	})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordapi_request_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: msBuckets,
	}, []string{"route"})
	BatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coordapi_batch_points",
		Help:    "Number of points per batch conversion request",
		Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coordapi_redis_hits_total",
		Help: "Total locate cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coordapi_redis_misses_total",
		Help: "Total locate cache misses",
	})
	AMapRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_amap_requests_total",
		Help: "Total amap REST requests",
	}, []string{"api"})
	AMapSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_amap_success_total",
		Help: "Total amap REST successes",
	}, []string{"api"})
	AMapFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_amap_fail_total",
		Help: "Total amap REST failures",
	}, []string{"api"})
	AMapDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordapi_amap_duration_ms",
		Help:    "AMap REST call duration in milliseconds",
		Buckets: msBuckets,
	}, []string{"api"})
	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_locate_source_requests_total",
		Help: "Total locate source queries",
	}, []string{"source"})
	SourceSuccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_locate_source_success_total",
		Help: "Total locate source queries returning a fix",
	}, []string{"source"})
	SourceFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_locate_source_fail_total",
		Help: "Total locate source queries without a fix",
	}, []string{"source"})
	SourceDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coordapi_locate_source_duration_ms",
		Help:    "Locate source query duration in milliseconds",
		Buckets: msBuckets,
	}, []string{"source"})
	SourceHeartbeatTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_locate_source_heartbeat_total",
		Help: "Locate source heartbeat count by status",
	}, []string{"source", "status"})
	ReverseGeoRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coordapi_reverse_geo_requests_total",
		Help: "Total reverse geocoding queries",
	})
	SnapshotReloadTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coordapi_revgeo_snapshot_reload_total",
		Help: "Reverse geocoding snapshot reloads by status",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(
		ConversionsTotal,
		PassthroughTotal,
		RequestDurationMs,
		BatchSize,
		RedisHitsTotal,
		RedisMissesTotal,
		AMapRequestsTotal,
		AMapSuccessTotal,
		AMapFailTotal,
		AMapDurationMs,
		SourceRequestsTotal,
		SourceSuccessTotal,
		SourceFailTotal,
		SourceDurationMs,
		SourceHeartbeatTotal,
		ReverseGeoRequestsTotal,
		SnapshotReloadTotal,
	)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
