package amap

import (
	"context"
	"coord-api/internal/logger"
	"coord-api/internal/metrics"
	"coord-api/pkg/coordtransform"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://restapi.amap.com"

var (
	// ErrMissingKey：未配置 Web 服务密钥
	ErrMissingKey = errors.New("amap: missing key")
	// ErrStatus：接口返回 status != "1"
	ErrStatus = errors.New("amap: error status")
)

// 文档注释：高德 Web 服务客户端
// 背景：高德全部接口以 GCJ-02 作为坐标系；IP 定位返回的矩形与坐标转换接口的结果均为 GCJ-02。
// 约束：BaseURL 可替换以便测试；HTTP 为空时使用 5s 超时的默认客户端。
type Client struct {
	Key     string
	BaseURL string
	HTTP    *http.Client
}

func NewClient(key string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{Key: key, BaseURL: defaultBaseURL, HTTP: hc}
}

// 文档注释：高德 IP 定位结果
// 背景：仅保留省/市/编码与矩形；Center 为矩形中心（GCJ-02），矩形缺失时 HasCenter 为 false。
type IPResult struct {
	Province  string
	City      string
	Adcode    string
	Rectangle string
	Center    coordtransform.GeoPoint
	HasCenter bool
}

// get：发起 GET 并返回解析后的 JSON；status!="1" 时返回 ErrStatus 并携带 info/infocode
func (c *Client) get(ctx context.Context, api, path string, q url.Values) (gjson.Result, error) {
	if c.Key == "" {
		return gjson.Result{}, ErrMissingKey
	}
	q.Set("key", c.Key)
	u := strings.TrimRight(c.BaseURL, "/") + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	t0 := time.Now()
	metrics.AMapRequestsTotal.WithLabelValues(api).Inc()
	defer func() { metrics.AMapDurationMs.WithLabelValues(api).Observe(float64(time.Since(t0).Milliseconds())) }()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		logger.L().Error("amap_http_error", "api", api, "err", err)
		metrics.AMapFailTotal.WithLabelValues(api).Inc()
		return gjson.Result{}, fmt.Errorf("amap %s: %w", api, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		metrics.AMapFailTotal.WithLabelValues(api).Inc()
		return gjson.Result{}, fmt.Errorf("amap %s read: %w", api, err)
	}
	if resp.StatusCode != http.StatusOK || !gjson.ValidBytes(body) {
		metrics.AMapFailTotal.WithLabelValues(api).Inc()
		return gjson.Result{}, fmt.Errorf("amap %s: http %d", api, resp.StatusCode)
	}
	r := gjson.ParseBytes(body)
	logger.L().Debug("amap_resp", "api", api, "status", r.Get("status").String(), "infocode", r.Get("infocode").String(), "duration_ms", time.Since(t0).Milliseconds())
	if r.Get("status").String() != "1" {
		metrics.AMapFailTotal.WithLabelValues(api).Inc()
		return r, fmt.Errorf("%w: %s (%s)", ErrStatus, r.Get("info").String(), r.Get("infocode").String())
	}
	metrics.AMapSuccessTotal.WithLabelValues(api).Inc()
	return r, nil
}

// 文档注释：查询单个 IP 的定位信息（REST v3/ip）
// 参数：ip 为空时由高德按请求来源定位，不推荐在服务端使用。
// 约束：仅支持国内 IPv4；未知字段高德会返回 [] 而非空串，统一归一为空串。
func (c *Client) QueryIP(ctx context.Context, ip string) (*IPResult, error) {
	q := url.Values{}
	if ip != "" {
		q.Set("ip", ip)
	}
	r, err := c.get(ctx, "ip", "/v3/ip", q)
	if err != nil {
		return nil, err
	}
	out := &IPResult{
		Province:  str(r.Get("province")),
		City:      str(r.Get("city")),
		Adcode:    str(r.Get("adcode")),
		Rectangle: str(r.Get("rectangle")),
	}
	if center, ok := rectangleCenter(out.Rectangle); ok {
		out.Center = center
		out.HasCenter = true
	}
	return out, nil
}

// 文档注释：调用高德坐标转换接口（v3/assistant/coordinate/convert）
// 背景：作为本地公式的外部对照；高德只支持转入 GCJ-02，故 from 为 GCJ-02 时直接返回输入。
func (c *Client) Convert(ctx context.Context, p coordtransform.GeoPoint, from coordtransform.System) (coordtransform.GeoPoint, error) {
	var coordsys string
	switch from {
	case coordtransform.GCJ02:
		return p, nil
	case coordtransform.WGS84:
		coordsys = "gps"
	case coordtransform.BD09:
		coordsys = "baidu"
	default:
		return p, coordtransform.ErrUnknownSystem
	}
	q := url.Values{}
	q.Set("locations", fmt.Sprintf("%.6f,%.6f", p.Lng, p.Lat))
	q.Set("coordsys", coordsys)
	r, err := c.get(ctx, "convert", "/v3/assistant/coordinate/convert", q)
	if err != nil {
		return p, err
	}
	first, _, _ := strings.Cut(str(r.Get("locations")), ";")
	out, err := coordtransform.ParseGeoPoint(first)
	if err != nil {
		return p, fmt.Errorf("amap convert: %w", err)
	}
	return out, nil
}

func str(v gjson.Result) string {
	if v.IsArray() || v.IsObject() {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// rectangleCenter：解析 "lng1,lat1;lng2,lat2" 并返回中心点
func rectangleCenter(rect string) (coordtransform.GeoPoint, bool) {
	a, b, ok := strings.Cut(rect, ";")
	if !ok {
		return coordtransform.GeoPoint{}, false
	}
	p1, err1 := coordtransform.ParseGeoPoint(a)
	p2, err2 := coordtransform.ParseGeoPoint(b)
	if err1 != nil || err2 != nil {
		return coordtransform.GeoPoint{}, false
	}
	return coordtransform.NewGeoPoint((p1.Lng+p2.Lng)/2, (p1.Lat+p2.Lat)/2), true
}
