package revgeo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"coord-api/pkg/coordtransform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(minLng, minLat, maxLng, maxLat float64) []coordtransform.GeoPoint {
	return []coordtransform.GeoPoint{
		{Lng: minLng, Lat: minLat}, {Lng: maxLng, Lat: minLat},
		{Lng: maxLng, Lat: maxLat}, {Lng: minLng, Lat: maxLat},
		{Lng: minLng, Lat: minLat},
	}
}

func TestEncodeGeohash(t *testing.T) {
	assert.Equal(t, "wx4g0ec1", encodeGeohash(39.92324, 116.3906, 8))
	assert.Equal(t, "u4pruydqqvj", encodeGeohash(57.64911, 10.40744, 11))
}

func TestPointInPolyWithHole(t *testing.T) {
	rings := [][]coordtransform.GeoPoint{square(0, 0, 10, 10), square(4, 4, 6, 6)}
	poly := Polygon{Rings: rings, BBox: computeBBox(rings)}
	assert.True(t, pointInPoly(coordtransform.NewGeoPoint(2, 2), poly))
	assert.False(t, pointInPoly(coordtransform.NewGeoPoint(5, 5), poly))
	assert.False(t, pointInPoly(coordtransform.NewGeoPoint(11, 5), poly))
	assert.Equal(t, BBox{MinLng: 0, MinLat: 0, MaxLng: 10, MaxLat: 10}, poly.BBox)
}

func TestNearestMatchesLinearScan(t *testing.T) {
	var cs []Centroid
	for i := 0; i < 40; i++ {
		cs = append(cs, Centroid{Lng: 100 + float64(i%8)*2.5, Lat: 20 + float64(i/8)*3.1, City: string(rune('A' + i))})
	}
	root := buildKD(append([]Centroid(nil), cs...), 0)
	for _, q := range []coordtransform.GeoPoint{{Lng: 104.2, Lat: 26.0}, {Lng: 99, Lat: 19}, {Lng: 117.6, Lat: 32.5}} {
		got, km := nearest(root, q)
		want, wantKm := cs[0], coordtransform.Distance(q, cs[0].Point())/1000
		for _, c := range cs[1:] {
			if d := coordtransform.Distance(q, c.Point()) / 1000; d < wantKm {
				want, wantKm = c, d
			}
		}
		assert.Equal(t, want.City, got.City)
		assert.InDelta(t, wantKm, km, 1e-9)
	}
}

func TestLRUEvictionAndTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewLRU[int](2, time.Minute)
	c.now = func() time.Time { return now }
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)
	_, ok := c.Get("b")
	assert.False(t, ok, "least recently used entry evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	now = now.Add(2 * time.Minute)
	_, ok = c.Get("c")
	assert.False(t, ok, "expired entry")
	assert.Equal(t, 1, c.Len())
}

const testBoundaries = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"country":"中国","province":"北京市","city":"北京市"},
  "geometry":{"type":"Polygon","coordinates":[[[116.3,39.8],[116.5,39.8],[116.5,40.0],[116.3,40.0],[116.3,39.8]]]}},
 {"type":"Feature","properties":{"country":"中国","province":"海南省"},
  "geometry":{"type":"MultiPolygon","coordinates":[[[[110,19],[111,19],[111,20],[110,20],[110,19]]]]}}
]}`

const testCentroids = `[
 {"lon":121.4737,"lat":31.2304,"country":"中国","province":"上海市","city":"上海市"},
 {"lon":113.9304,"lat":22.5333,"country":"中国","province":"广东省","city":"深圳"}
]`

func writeSnapshotDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "admin.geojson"), []byte(testBoundaries), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "city_centroids.json"), []byte(testCentroids), 0o644))
	return dir
}

func TestLoadSnapshot(t *testing.T) {
	snap, err := LoadSnapshot(writeSnapshotDir(t))
	require.NoError(t, err)
	require.Len(t, snap.Units, 2)
	assert.Equal(t, "北京市", snap.Units[0].City)
	require.Len(t, snap.Units[1].Polys, 1)
	assert.Len(t, snap.Units[1].Polys[0].Rings[0], 5)
	assert.Len(t, snap.Centroids, 2)
	assert.False(t, snap.BuiltAt.IsZero())
}

func TestLoadSnapshotMissingDirIsEmpty(t *testing.T) {
	snap, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, snap.Units)
	assert.Empty(t, snap.Centroids)
}

func TestLoadSnapshotRejectsBrokenGeoJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.geojson"), []byte(`{"type":`), 0o644))
	_, err := LoadSnapshot(dir)
	assert.ErrorIs(t, err, ErrBadGeoJSON)
}

func TestOrchestratorQuery(t *testing.T) {
	snap, err := LoadSnapshot(writeSnapshotDir(t))
	require.NoError(t, err)
	o := NewOrchestrator(snap, Options{})

	// 北京的 GCJ-02 坐标先换算回 WGS84 再命中多边形
	r := o.Query(coordtransform.NewGeoPoint(116.41024449916938, 39.91640428150164), coordtransform.GCJ02)
	assert.Equal(t, "北京市", r.Unit.City)
	assert.False(t, r.Approx)
	assert.Equal(t, 0.9, r.Confidence)
	assert.InDelta(t, 116.404, r.Point.Lng, 5e-5)
	assert.InDelta(t, 39.915, r.Point.Lat, 5e-5)

	r = o.Query(coordtransform.NewGeoPoint(110.5, 19.5), coordtransform.WGS84)
	assert.Equal(t, "海南省", r.Unit.Province)
	assert.Equal(t, 0.8, r.Confidence)

	r = o.Query(coordtransform.NewGeoPoint(121.50, 31.25), coordtransform.WGS84)
	assert.True(t, r.Approx)
	assert.Equal(t, "上海市", r.Unit.City)
	assert.Equal(t, 0.6, r.Confidence)

	// 缓存命中返回相同结果
	again := o.Query(coordtransform.NewGeoPoint(121.50, 31.25), coordtransform.WGS84)
	assert.Equal(t, r, again)

	r = o.Query(coordtransform.NewGeoPoint(-30, 0), coordtransform.WGS84)
	assert.True(t, r.Approx)
	assert.Equal(t, AdminUnit{}, r.Unit)
}

func TestCachedResultSharesSnapshotPolygons(t *testing.T) {
	snap, err := LoadSnapshot(writeSnapshotDir(t))
	require.NoError(t, err)
	o := NewOrchestrator(snap, Options{})
	p := coordtransform.NewGeoPoint(110.5, 19.5)

	first := o.Query(p, coordtransform.WGS84)
	require.NotEmpty(t, first.Unit.Polys)
	hit := o.Query(p, coordtransform.WGS84)
	require.NotEmpty(t, hit.Unit.Polys)
	assert.Same(t, &first.Unit.Polys[0], &hit.Unit.Polys[0])

	var inSnap *Polygon
	for i := range snap.Units {
		if snap.Units[i].Province == hit.Unit.Province && len(snap.Units[i].Polys) > 0 {
			inSnap = &snap.Units[i].Polys[0]
		}
	}
	require.NotNil(t, inSnap)
	assert.Same(t, inSnap, &hit.Unit.Polys[0])
}

func TestCentroidByCityAndSwap(t *testing.T) {
	snap, err := LoadSnapshot(writeSnapshotDir(t))
	require.NoError(t, err)
	o := NewOrchestrator(snap, Options{})
	c, ok := o.CentroidByCity("深圳市")
	require.True(t, ok)
	assert.Equal(t, 113.9304, c.Lng)
	_, ok = o.CentroidByCity("")
	assert.False(t, ok)

	o.Swap(nil)
	_, ok = o.CentroidByCity("上海")
	assert.False(t, ok)
	assert.Empty(t, o.Snapshot().Units)
}
