package amap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"coord-api/pkg/coordtransform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient("k", srv.Client())
	c.BaseURL = srv.URL
	return c
}

func TestQueryIP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/ip", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		assert.Equal(t, "114.247.50.2", r.URL.Query().Get("ip"))
		_, _ = w.Write([]byte(`{"status":"1","info":"OK","infocode":"10000","province":"北京市","city":"北京市","adcode":"110000","rectangle":"116.0119343,39.66127144;116.7829835,40.2164962"}`))
	})
	r, err := c.QueryIP(context.Background(), "114.247.50.2")
	require.NoError(t, err)
	assert.Equal(t, "北京市", r.Province)
	assert.Equal(t, "110000", r.Adcode)
	require.True(t, r.HasCenter)
	assert.InDelta(t, 116.3974589, r.Center.Lng, 1e-7)
	assert.InDelta(t, 39.93888382, r.Center.Lat, 1e-7)
}

func TestQueryIPEmptyArrays(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"1","info":"OK","infocode":"10000","province":[],"city":[],"adcode":[],"rectangle":[]}`))
	})
	r, err := c.QueryIP(context.Background(), "8.8.8.8")
	require.NoError(t, err)
	assert.Empty(t, r.Province)
	assert.Empty(t, r.City)
	assert.False(t, r.HasCenter)
}

func TestQueryIPErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"0","info":"INVALID_USER_KEY","infocode":"10001"}`))
	})
	_, err := c.QueryIP(context.Background(), "1.1.1.1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
	assert.Contains(t, err.Error(), "INVALID_USER_KEY")
}

func TestMissingKey(t *testing.T) {
	c := NewClient("", nil)
	_, err := c.QueryIP(context.Background(), "1.1.1.1")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestConvert(t *testing.T) {
	var gotSys string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/assistant/coordinate/convert", r.URL.Path)
		assert.Equal(t, "116.404000,39.915000", r.URL.Query().Get("locations"))
		gotSys = r.URL.Query().Get("coordsys")
		_, _ = w.Write([]byte(`{"status":"1","info":"ok","infocode":"10000","locations":"116.410244,39.916404"}`))
	})
	p := coordtransform.NewGeoPoint(116.404, 39.915)
	out, err := c.Convert(context.Background(), p, coordtransform.WGS84)
	require.NoError(t, err)
	assert.Equal(t, "gps", gotSys)
	assert.InDelta(t, 116.410244, out.Lng, 1e-9)
	assert.InDelta(t, 39.916404, out.Lat, 1e-9)

	_, err = c.Convert(context.Background(), p, coordtransform.BD09)
	require.NoError(t, err)
	assert.Equal(t, "baidu", gotSys)

	same, err := c.Convert(context.Background(), p, coordtransform.GCJ02)
	require.NoError(t, err)
	assert.Equal(t, p, same)
}

func TestConvertHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err := c.Convert(context.Background(), coordtransform.NewGeoPoint(116, 39), coordtransform.WGS84)
	assert.Error(t, err)
}

func TestRectangleCenter(t *testing.T) {
	_, ok := rectangleCenter("")
	assert.False(t, ok)
	_, ok = rectangleCenter("1,2")
	assert.False(t, ok)
	c, ok := rectangleCenter("1,2;3,4")
	assert.True(t, ok)
	assert.Equal(t, coordtransform.NewGeoPoint(2, 3), c)
}
