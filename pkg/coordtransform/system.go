package coordtransform

import (
	"errors"
	"fmt"
	"strings"
)

// System：坐标系标识
type System int

const (
	WGS84 System = iota
	GCJ02
	BD09
)

// ErrUnknownSystem：无法识别的坐标系名称
var ErrUnknownSystem = errors.New("unknown coordinate system")

func (s System) String() string {
	switch s {
	case WGS84:
		return "wgs84"
	case GCJ02:
		return "gcj02"
	case BD09:
		return "bd09"
	}
	return fmt.Sprintf("System(%d)", int(s))
}

// MarshalText 以小写名称序列化，JSON 中输出 "gcj02" 等
func (s System) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *System) UnmarshalText(b []byte) error {
	v, err := ParseSystem(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// 文档注释：解析坐标系名称（大小写不敏感）
// 背景：对外接口与配置中常见多种写法，如 "GCJ-02"、"amap"、"baidu"，统一归一到三种枚举。
func ParseSystem(s string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wgs84", "wgs-84", "gps":
		return WGS84, nil
	case "gcj02", "gcj-02", "amap", "gaode", "mars":
		return GCJ02, nil
	case "bd09", "bd-09", "baidu":
		return BD09, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSystem, s)
}

// 文档注释：任意两种坐标系之间换算
// 背景：WGS84 与 BD-09 之间没有直接公式，统一经 GCJ-02 中转；同一坐标系直接返回。
// 约束：from/to 非法时原样返回输入（枚举值由 ParseSystem 保证合法）。
func Convert(p GeoPoint, from, to System) GeoPoint {
	if from == to {
		return p
	}
	var g GeoPoint
	switch from {
	case WGS84:
		g = WGS84ToGCJ02(p)
	case GCJ02:
		g = p
	case BD09:
		g = BD09ToGCJ02(p)
	default:
		return p
	}
	switch to {
	case WGS84:
		return GCJ02ToWGS84(g)
	case GCJ02:
		return g
	case BD09:
		return GCJ02ToBD09(g)
	}
	return p
}
