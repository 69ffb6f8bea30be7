package revgeo

import (
	"strings"
	"sync/atomic"
	"time"

	"coord-api/internal/metrics"
	"coord-api/internal/utils"
	"coord-api/pkg/coordtransform"
)

// Options：编排器参数
type Options struct {
	CacheSize   int
	CacheTTL    time.Duration
	MaxRadiusKm float64
}

// OptionsFromEnv 读取 REVERSE_GEO_CACHE_SIZE / REVERSE_GEO_CACHE_TTL_S / REVERSE_GEO_KDTREE_RADIUS_KM
func OptionsFromEnv() Options {
	return Options{
		CacheSize:   utils.EnvInt("REVERSE_GEO_CACHE_SIZE", 4096),
		CacheTTL:    time.Duration(utils.EnvInt("REVERSE_GEO_CACHE_TTL_S", 3600)) * time.Second,
		MaxRadiusKm: utils.EnvFloat("REVERSE_GEO_KDTREE_RADIUS_KM", 50),
	}
}

// index：由快照派生的只读索引，整体原子替换
type index struct {
	snap   *Snapshot
	kd     *kdNode
	byCity map[string]Centroid
}

// 文档注释：查询编排器（包围盒候选 → PIP 命中 → 最近邻兜底）
// 背景：统一调度多索引以实现城市级反地理；输出近似标记与置信度，供定位融合使用。
// 约束：快照可在运行期通过 Swap 热替换；替换时清空缓存，避免旧快照结果残留。
type Orchestrator struct {
	idx   atomic.Pointer[index]
	cache atomic.Pointer[LRU[Result]]
	opts  Options
}

func NewOrchestrator(snap *Snapshot, opts Options) *Orchestrator {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 4096
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	if opts.MaxRadiusKm <= 0 {
		opts.MaxRadiusKm = 50
	}
	o := &Orchestrator{opts: opts}
	o.Swap(snap)
	return o
}

// Swap 以新快照重建索引
func (o *Orchestrator) Swap(snap *Snapshot) {
	if snap == nil {
		snap = &Snapshot{}
	}
	ix := &index{snap: snap, byCity: make(map[string]Centroid, len(snap.Centroids))}
	if len(snap.Centroids) > 0 {
		ix.kd = buildKD(append([]Centroid(nil), snap.Centroids...), 0)
	}
	for _, c := range snap.Centroids {
		k := cityKey(c.City)
		if _, dup := ix.byCity[k]; k != "" && !dup {
			ix.byCity[k] = c
		}
	}
	o.idx.Store(ix)
	o.cache.Store(NewLRU[Result](o.opts.CacheSize, o.opts.CacheTTL))
}

// Snapshot 返回当前生效的快照
func (o *Orchestrator) Snapshot() *Snapshot { return o.idx.Load().snap }

// 文档注释：反地理查询
// 背景：国内地图坐标（GCJ-02/BD-09）先换算回 WGS84 再与全球边界数据比对。
// 返回：命中行政区与置信度；Approx 表示非 PIP 精确命中（最近邻或未命中）。
func (o *Orchestrator) Query(p coordtransform.GeoPoint, sys coordtransform.System) Result {
	metrics.ReverseGeoRequestsTotal.Inc()
	pt := coordtransform.Convert(p, sys, coordtransform.WGS84)
	cache := o.cache.Load()
	key := encodeGeohash(pt.Lat, pt.Lng, 6)
	if r, ok := cache.Get(key); ok {
		r.Point = pt
		return r
	}
	ix := o.idx.Load()
	for _, u := range ix.snap.Units {
		for _, poly := range u.Polys {
			if !poly.BBox.contains(pt) || !pointInPoly(pt, poly) {
				continue
			}
			r := Result{Unit: u, Confidence: unitConfidence(u), Point: pt}
			cache.Set(key, r)
			return r
		}
	}
	if ix.kd != nil {
		c, km := nearest(ix.kd, pt)
		if km <= o.opts.MaxRadiusKm {
			conf := 0.6
			if km > 30 {
				conf = 0.5
			}
			r := Result{
				Unit:       AdminUnit{Country: c.Country, Region: c.Region, Province: c.Province, City: c.City},
				Confidence: conf,
				Approx:     true,
				Point:      pt,
			}
			cache.Set(key, r)
			return r
		}
	}
	// 海上或远离城市：返回空行政区，由调用方决定兜底
	return Result{Approx: true, Point: pt}
}

func unitConfidence(u AdminUnit) float64 {
	switch {
	case u.City != "":
		return 0.9
	case u.Province != "":
		return 0.8
	default:
		return 0.7
	}
}

// CentroidByCity 按城市名取质心（WGS84）；忽略大小写与“市”后缀
func (o *Orchestrator) CentroidByCity(name string) (Centroid, bool) {
	k := cityKey(name)
	if k == "" {
		return Centroid{}, false
	}
	c, ok := o.idx.Load().byCity[k]
	return c, ok
}

func cityKey(name string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "市"))
}
