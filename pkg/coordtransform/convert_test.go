package coordtransform

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutOfChina(t *testing.T) {
	tests := []struct {
		name string
		p    GeoPoint
		want bool
	}{
		{"beijing", NewGeoPoint(116.404, 39.915), false},
		{"west edge inclusive", NewGeoPoint(72.004, 30.0), false},
		{"east edge inclusive", NewGeoPoint(137.8347, 30.0), false},
		{"south edge inclusive", NewGeoPoint(100.0, 0.8293), false},
		{"north edge inclusive", NewGeoPoint(100.0, 55.8271), false},
		{"west of box", NewGeoPoint(72.0039, 30.0), true},
		{"east of box", NewGeoPoint(137.8348, 30.0), true},
		{"south of box", NewGeoPoint(100.0, 0.8292), true},
		{"north of box", NewGeoPoint(100.0, 55.8272), true},
		{"new york", NewGeoPoint(-74.0060, 40.7128), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OutOfChina(tt.p))
		})
	}
}

func TestTransformSeriesAtOrigin(t *testing.T) {
	// 所有正弦项在 0 处为 0，只剩常数项
	assert.Equal(t, -100.0, transformLat(0, 0))
	assert.Equal(t, 300.0, transformLng(0, 0))
	assert.InDelta(t, 155.9242854460707, transformLat(11.404, 4.915), 1e-9)
	assert.InDelta(t, 533.9113943617212, transformLng(11.404, 4.915), 1e-9)
}

func TestWGS84ToGCJ02Beijing(t *testing.T) {
	p := NewGeoPoint(116.404, 39.915)
	got := WGS84ToGCJ02(p)
	assert.InDelta(t, 116.41024449916938, got.Lng, 1e-9)
	assert.InDelta(t, 39.91640428150164, got.Lat, 1e-9)
	// 北京一带东移约 0.006 度、北移约 0.0014 度
	assert.Greater(t, got.Lng-p.Lng, 0.005)
	assert.Greater(t, got.Lat-p.Lat, 0.001)
	assert.InDelta(t, 555.0, Distance(p, got), 1.0)
}

func TestWGS84GCJ02RoundTrip(t *testing.T) {
	// 单步反解误差随位置变化，容差取各点实测误差的约 1.5 倍
	cases := []struct {
		p   GeoPoint
		tol float64
	}{
		{NewGeoPoint(116.404, 39.915), 3e-6},
		{NewGeoPoint(121.4737, 31.2304), 2.2e-5},
		{NewGeoPoint(113.2644, 23.1291), 6e-6},
		{NewGeoPoint(104.0665, 30.5723), 6.5e-6},
		{NewGeoPoint(72.004, 30.0), 1.8e-5},
	}
	for _, c := range cases {
		p := c.p
		g := WGS84ToGCJ02(p)
		require.False(t, OutOfChina(g), "point %v", p)
		assert.Greater(t, Distance(p, g), 100.0, "forward shift too small for %v", p)
		back := GCJ02ToWGS84(g)
		assert.InDelta(t, p.Lng, back.Lng, c.tol, "lng %v", p)
		assert.InDelta(t, p.Lat, back.Lat, c.tol, "lat %v", p)
	}
}

func TestGCJ02ToWGS84Single(t *testing.T) {
	got := GCJ02ToWGS84(NewGeoPoint(116.404, 39.915))
	assert.InDelta(t, 116.39775550083061, got.Lng, 1e-9)
	assert.InDelta(t, 39.91359571849836, got.Lat, 1e-9)
}

func TestIdentityOutsideChina(t *testing.T) {
	points := []GeoPoint{
		NewGeoPoint(-74.0060, 40.7128),
		NewGeoPoint(2.3522, 48.8566),
		NewGeoPoint(72.0039, 30.0),
		NewGeoPoint(100.0, 55.8272),
		NewGeoPoint(100.0, -10.0),
		NewGeoPoint(140.0, 35.0),
	}
	for _, p := range points {
		assert.Equal(t, p, WGS84ToGCJ02(p))
		assert.Equal(t, p, GCJ02ToWGS84(p))
		assert.Equal(t, p, GCJ02ToWGS84Exact(p))
	}
}

func TestBD09Beijing(t *testing.T) {
	g := WGS84ToGCJ02(NewGeoPoint(116.404, 39.915))
	b := GCJ02ToBD09(g)
	assert.InDelta(t, 116.41662724378733, b.Lng, 1e-9)
	assert.InDelta(t, 39.922699552216216, b.Lat, 1e-9)
	assert.Equal(t, b, WGS84ToBD09(NewGeoPoint(116.404, 39.915)))
}

func TestBD09RoundTrip(t *testing.T) {
	points := []GeoPoint{
		NewGeoPoint(116.41024449916938, 39.91640428150164),
		NewGeoPoint(121.47822305927693, 31.22845773757727),
		NewGeoPoint(113.26972959210308, 23.126423339922844),
		// 区域外同样计算，BD-09 这一对没有区域判定
		NewGeoPoint(-74.0060, 40.7128),
		NewGeoPoint(151.2093, -33.8688),
	}
	for _, p := range points {
		back := BD09ToGCJ02(GCJ02ToBD09(p))
		assert.InDelta(t, p.Lng, back.Lng, 5e-6, "lng %v", p)
		assert.InDelta(t, p.Lat, back.Lat, 5e-6, "lat %v", p)
	}
}

func TestBD09NoRegionGate(t *testing.T) {
	p := NewGeoPoint(-74.0060, 40.7128)
	b := GCJ02ToBD09(p)
	assert.NotEqual(t, p, b)
	assert.InDelta(t, -73.99949194136175, b.Lng, 1e-9)
	assert.InDelta(t, 40.71885569682683, b.Lat, 1e-9)

	origin := GCJ02ToBD09(NewGeoPoint(0, 0))
	assert.InDelta(t, 0.0065, origin.Lng, 1e-12)
	assert.InDelta(t, 0.006, origin.Lat, 1e-12)
}

func TestGCJ02ToWGS84Exact(t *testing.T) {
	for _, p := range []GeoPoint{NewGeoPoint(116.404, 39.915), NewGeoPoint(121.4737, 31.2304)} {
		got := GCJ02ToWGS84Exact(WGS84ToGCJ02(p))
		assert.InDelta(t, p.Lng, got.Lng, 1e-8)
		assert.InDelta(t, p.Lat, got.Lat, 1e-8)
	}
}

func TestNaNPassesThrough(t *testing.T) {
	got := WGS84ToGCJ02(NewGeoPoint(math.NaN(), 30))
	assert.True(t, math.IsNaN(got.Lng))
	assert.True(t, math.IsNaN(got.Lat))

	inf := GCJ02ToBD09(NewGeoPoint(math.Inf(1), 0))
	assert.True(t, math.IsNaN(inf.Lng) || math.IsInf(inf.Lng, 0))
}

func TestConversionsDoNotMutateInput(t *testing.T) {
	p := NewGeoPoint(116.404, 39.915)
	_ = WGS84ToGCJ02(p)
	_ = GCJ02ToWGS84(p)
	_ = GCJ02ToBD09(p)
	_ = BD09ToGCJ02(p)
	assert.Equal(t, GeoPoint{Lng: 116.404, Lat: 39.915}, p)
}
