package coordtransform

import "math"

// WGS84ToGCJ02：GPS 坐标转高德/腾讯等使用的火星坐标；区域外原样返回
func WGS84ToGCJ02(p GeoPoint) GeoPoint {
	if OutOfChina(p) {
		return p
	}
	return delta(p)
}

// 文档注释：GCJ-02 转 WGS84（单步近似）
// 背景：将正向偏移在输入点处求值后对称扣除，避免迭代求解；区域内误差约 1e-5 度量级。
// 约束：区域外原样返回；需要更高精度时使用 GCJ02ToWGS84Exact。
func GCJ02ToWGS84(p GeoPoint) GeoPoint {
	if OutOfChina(p) {
		return p
	}
	t := delta(p)
	return GeoPoint{Lng: p.Lng*2 - t.Lng, Lat: p.Lat*2 - t.Lat}
}

// 文档注释：火星坐标 (GCJ-02) 转百度坐标 (BD-09)
// 约束：不做区域判定，对任意有限输入都计算闭式结果。
func GCJ02ToBD09(p GeoPoint) GeoPoint {
	z := math.Sqrt(p.Lng*p.Lng+p.Lat*p.Lat) + 0.00002*math.Sin(p.Lat*xPi)
	theta := math.Atan2(p.Lat, p.Lng) + 0.000003*math.Cos(p.Lng*xPi)
	return GeoPoint{Lng: z*math.Cos(theta) + 0.0065, Lat: z*math.Sin(theta) + 0.006}
}

// BD09ToGCJ02：百度坐标转火星坐标，GCJ02ToBD09 的近似逆
func BD09ToGCJ02(p GeoPoint) GeoPoint {
	x := p.Lng - 0.0065
	y := p.Lat - 0.006
	z := math.Sqrt(x*x+y*y) - 0.00002*math.Sin(y*xPi)
	theta := math.Atan2(y, x) - 0.000003*math.Cos(x*xPi)
	return GeoPoint{Lng: z * math.Cos(theta), Lat: z * math.Sin(theta)}
}

// WGS84ToBD09：经 GCJ-02 中转
func WGS84ToBD09(p GeoPoint) GeoPoint {
	return GCJ02ToBD09(WGS84ToGCJ02(p))
}

// BD09ToWGS84：经 GCJ-02 中转
func BD09ToWGS84(p GeoPoint) GeoPoint {
	return GCJ02ToWGS84(BD09ToGCJ02(p))
}

const (
	exactThreshold = 1e-9
	exactMaxIter   = 30
)

// 文档注释：GCJ-02 转 WGS84（迭代精确版）
// 背景：以单步近似为初值，反复用正向换算的残差修正，直到残差小于 1e-9 度或达到迭代上限。
// 约束：区域外原样返回；迭代中途落到区域外时停止并返回当前估计。
func GCJ02ToWGS84Exact(p GeoPoint) GeoPoint {
	if OutOfChina(p) {
		return p
	}
	w := GCJ02ToWGS84(p)
	for i := 0; i < exactMaxIter; i++ {
		if OutOfChina(w) {
			break
		}
		g := delta(w)
		dLng := p.Lng - g.Lng
		dLat := p.Lat - g.Lat
		if math.Abs(dLng) < exactThreshold && math.Abs(dLat) < exactThreshold {
			break
		}
		w = GeoPoint{Lng: w.Lng + dLng, Lat: w.Lat + dLat}
	}
	return w
}
