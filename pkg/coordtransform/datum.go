package coordtransform

import "math"

// 以变量而非常量声明：Go 对常量表达式做精确求值，会让 a*(1-ee) 与 xPi 的末位
// 和按双精度逐步舍入的参考实现不一致。
var (
	pi  = math.Pi
	xPi = pi * 3000.0 / 180.0
	// 克拉索夫斯基椭球长半轴（米）
	a = 6378245.0
	// 第一偏心率平方
	ee = 0.00669342162296594323
)

// 文档注释：GCJ-02 与 WGS84 之间的偏移计算
// 背景：对经验偏移级数施加一阶椭球修正，得到加偏后的坐标；正向直接使用结果，反向用 2p - delta(p) 近似。
// 约束：不做区域判定，由调用方负责。
func delta(p GeoPoint) GeoPoint {
	dLat := transformLat(p.Lng-105.0, p.Lat-35.0)
	dLng := transformLng(p.Lng-105.0, p.Lat-35.0)
	radLat := p.Lat / 180.0 * pi
	magic := math.Sin(radLat)
	magic = 1 - ee*magic*magic
	sqrtMagic := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((a * (1 - ee)) / (magic * sqrtMagic) * pi)
	dLng = (dLng * 180.0) / (a / sqrtMagic * math.Cos(radLat) * pi)
	return GeoPoint{Lng: p.Lng + dLng, Lat: p.Lat + dLat}
}
