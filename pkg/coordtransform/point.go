// 包 coordtransform：WGS84 / GCJ-02 / BD-09 三套坐标系之间的闭式换算，纯函数、无状态、可并发调用
package coordtransform

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// 文档注释：经纬度点（度）
// 背景：作为换算的输入与输出载体；值语义传递，所有换算均返回新值而不修改入参。
// 约束：不校验范围，NaN/Inf 原样参与运算并透传。
type GeoPoint struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// NewGeoPoint：按经度、纬度顺序构造点
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Lng: lng, Lat: lat}
}

// String：以 "lng,lat" 输出，保留 6 位小数（约 0.1 米）
func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat)
}

var errBadPoint = errors.New("bad point")

// 文档注释：解析 "lng,lat" 文本
// 背景：供批处理与 HTTP 参数复用；允许两侧空白。
// 返回：非法格式或数值返回错误，错误信息携带原始文本。
func ParseGeoPoint(s string) (GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return GeoPoint{}, fmt.Errorf("%w: %q", errBadPoint, s)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: %q", errBadPoint, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: %q", errBadPoint, s)
	}
	return GeoPoint{Lng: lng, Lat: lat}, nil
}
