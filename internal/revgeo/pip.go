package revgeo

import "coord-api/pkg/coordtransform"

// 文档注释：点入多边形判定（Even-Odd）
// 约束：射线算法在边界临界值时易受数值误差影响，分母加 1e-12 避免水平边除零。
func pointInPoly(pt coordtransform.GeoPoint, poly Polygon) bool {
	if len(poly.Rings) == 0 || !pointInRing(pt, poly.Rings[0]) {
		return false
	}
	for _, hole := range poly.Rings[1:] {
		if pointInRing(pt, hole) {
			return false
		}
	}
	return true
}

func pointInRing(pt coordtransform.GeoPoint, ring []coordtransform.GeoPoint) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > pt.Lat) != (b.Lat > pt.Lat) &&
			pt.Lng < (b.Lng-a.Lng)*(pt.Lat-a.Lat)/(b.Lat-a.Lat+1e-12)+a.Lng {
			inside = !inside
		}
	}
	return inside
}

func (b BBox) contains(pt coordtransform.GeoPoint) bool {
	return pt.Lng >= b.MinLng && pt.Lng <= b.MaxLng && pt.Lat >= b.MinLat && pt.Lat <= b.MaxLat
}

func computeBBox(rings [][]coordtransform.GeoPoint) BBox {
	b := BBox{MinLng: 180, MinLat: 90, MaxLng: -180, MaxLat: -90}
	for _, r := range rings {
		for _, pt := range r {
			b.MinLng = min(b.MinLng, pt.Lng)
			b.MinLat = min(b.MinLat, pt.Lat)
			b.MaxLng = max(b.MaxLng, pt.Lng)
			b.MaxLat = max(b.MaxLat, pt.Lat)
		}
	}
	return b
}
