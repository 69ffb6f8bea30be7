package coordtransform

import "math"

const earthRadiusM = 6371000.0

// Distance：两点球面距离（Haversine），单位米；用于度量一次换算移动了多远
func Distance(p1, p2 GeoPoint) float64 {
	dLat := (p2.Lat - p1.Lat) * math.Pi / 180
	dLng := (p2.Lng - p1.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(p1.Lat*math.Pi/180)*math.Cos(p2.Lat*math.Pi/180)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
