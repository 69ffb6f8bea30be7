package locate

import (
	"context"
	"errors"
	"strings"

	"coord-api/internal/amap"
	"coord-api/internal/geoip"
	"coord-api/internal/localdb"
	"coord-api/internal/revgeo"
	"coord-api/pkg/coordtransform"
)

// 文档注释：MaxMind GeoIP2 来源（WGS84）
// 约束：置信度随精度半径下降；无城市名时视为省级结果。
type GeoIPSource struct {
	db interface {
		Lookup(ip string) (geoip.Record, bool, error)
	}
	weight float64
}

func NewGeoIPSource(db interface {
	Lookup(ip string) (geoip.Record, bool, error)
}) *GeoIPSource {
	return &GeoIPSource{db: db, weight: readWeight("LOCATE_WEIGHT_GEOIP", 7)}
}

func (s *GeoIPSource) Name() string                        { return "geoip" }
func (s *GeoIPSource) Weight() float64                     { return s.weight }
func (s *GeoIPSource) Heartbeat(ctx context.Context) error { return nil }

func (s *GeoIPSource) Locate(ctx context.Context, ip string) (Fix, error) {
	rec, ok, err := s.db.Lookup(ip)
	if err != nil {
		return Fix{}, err
	}
	if !ok {
		return Fix{}, ErrNotFound
	}
	conf := 0.8
	switch {
	case rec.City == "":
		conf = 0.5
	case rec.AccuracyKm > 100:
		conf = 0.6
	}
	return Fix{
		Point:      rec.Point,
		System:     coordtransform.WGS84,
		Confidence: conf,
		Country:    rec.Country,
		Province:   rec.Province,
		City:       rec.City,
	}, nil
}

// 文档注释：离线库来源（ip2region、IPIP 等，城市名 → 质心表，WGS84）
// 背景：离线库只给出行政区名称，坐标取自反地理快照中的城市质心。
// 约束：城市缺失或质心表未收录时视为未命中；权重读取 LOCATE_WEIGHT_<NAME>。
type RegionSource struct {
	name string
	db   interface {
		Lookup(ip string) (localdb.Region, bool)
	}
	centroids interface {
		CentroidByCity(name string) (revgeo.Centroid, bool)
	}
	weight float64
}

func NewRegionSource(name string, db interface {
	Lookup(ip string) (localdb.Region, bool)
}, centroids interface {
	CentroidByCity(name string) (revgeo.Centroid, bool)
}) *RegionSource {
	return &RegionSource{
		name:      name,
		db:        db,
		centroids: centroids,
		weight:    readWeight("LOCATE_WEIGHT_"+strings.ToUpper(name), 5),
	}
}

func (s *RegionSource) Name() string                        { return s.name }
func (s *RegionSource) Weight() float64                     { return s.weight }
func (s *RegionSource) Heartbeat(ctx context.Context) error { return nil }

func (s *RegionSource) Locate(ctx context.Context, ip string) (Fix, error) {
	r, ok := s.db.Lookup(ip)
	if !ok || r.City == "" {
		return Fix{}, ErrNotFound
	}
	c, ok := s.centroids.CentroidByCity(r.City)
	if !ok {
		return Fix{}, ErrNotFound
	}
	return Fix{
		Point:      c.Point(),
		System:     coordtransform.WGS84,
		Confidence: 0.6,
		Country:    r.Country,
		Province:   r.Province,
		City:       r.City,
	}, nil
}

// 文档注释：高德 IP 定位来源（矩形中心，GCJ-02）
// 约束：未配置 Key 时心跳失败，管理器自动剔除；仅国内 IPv4 有结果。
type AMapSource struct {
	c interface {
		QueryIP(ctx context.Context, ip string) (*amap.IPResult, error)
	}
	hasKey bool
	weight float64
}

func NewAMapSource(c *amap.Client) *AMapSource {
	return &AMapSource{c: c, hasKey: c != nil && c.Key != "", weight: readWeight("LOCATE_WEIGHT_AMAP", 6)}
}

func (s *AMapSource) Name() string    { return "amap" }
func (s *AMapSource) Weight() float64 { return s.weight }

func (s *AMapSource) Heartbeat(ctx context.Context) error {
	if !s.hasKey {
		return amap.ErrMissingKey
	}
	return nil
}

func (s *AMapSource) Locate(ctx context.Context, ip string) (Fix, error) {
	if !s.hasKey {
		return Fix{}, ErrNotFound
	}
	res, err := s.c.QueryIP(ctx, ip)
	if err != nil {
		if errors.Is(err, amap.ErrStatus) {
			return Fix{}, ErrNotFound
		}
		return Fix{}, err
	}
	if !res.HasCenter {
		return Fix{}, ErrNotFound
	}
	conf := 0.7
	if res.City == "" {
		conf = 0.5
	}
	return Fix{
		Point:      res.Center,
		System:     coordtransform.GCJ02,
		Confidence: conf,
		Country:    "中国",
		Province:   res.Province,
		City:       res.City,
	}, nil
}
