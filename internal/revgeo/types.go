package revgeo

import (
	"coord-api/pkg/coordtransform"
	"time"
)

// 文档注释：行政区与空间索引的最小数据结构
// 背景：统一承载国/省/市等层级的元数据与几何；保持轻量以便常驻内存与快速判定。
// 约束：几何仅支持 GeoJSON 的 Polygon/MultiPolygon；坐标一律为 WGS84；第一环为外环，其余为洞。
type AdminUnit struct {
	Country  string    `json:"country"`
	Region   string    `json:"region,omitempty"`
	Province string    `json:"province"`
	City     string    `json:"city"`
	Polys    []Polygon `json:"-"`
}

// Polygon：按 GeoJSON 约定的环集合
type Polygon struct {
	Rings [][]coordtransform.GeoPoint
	BBox  BBox
}

// BBox：经纬度包围盒
type BBox struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// 质心表项（用于 KD-Tree 最近邻兜底与按城市名取坐标）
type Centroid struct {
	Lng      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Country  string  `json:"country"`
	Region   string  `json:"region"`
	Province string  `json:"province"`
	City     string  `json:"city"`
}

func (c Centroid) Point() coordtransform.GeoPoint { return coordtransform.NewGeoPoint(c.Lng, c.Lat) }

// 加载结果快照：只读引用，供查询期共享
type Snapshot struct {
	Units     []AdminUnit
	Centroids []Centroid
	BuiltAt   time.Time
}

// Result：一次反地理查询的结果；Point 为换算到 WGS84 后实际参与判定的坐标
type Result struct {
	Unit       AdminUnit
	Confidence float64
	Approx     bool
	Point      coordtransform.GeoPoint
}
