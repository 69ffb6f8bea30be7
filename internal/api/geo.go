package api

import (
	"errors"
	"net/http"

	"coord-api/internal/amap"
	"coord-api/internal/locate"
	"coord-api/internal/logger"
	"coord-api/internal/store"
	"coord-api/pkg/coordtransform"
)

type locateResponse struct {
	IP           string                  `json:"ip"`
	Source       string                  `json:"source"`
	System       coordtransform.System   `json:"system"`
	Point        coordtransform.GeoPoint `json:"point"`
	NativeSystem coordtransform.System   `json:"native_system"`
	NativePoint  coordtransform.GeoPoint `json:"native_point"`
	Confidence   float64                 `json:"confidence"`
	Country      string                  `json:"country,omitempty"`
	Province     string                  `json:"province,omitempty"`
	City         string                  `json:"city,omitempty"`
}

// 文档注释：IP 定位 GET /locate?ip=&sys=
// 背景：ip 缺省为访问者 IP；结果从来源坐标系换算到 sys（缺省 wgs84）。
func (s *server) handleLocate(w http.ResponseWriter, r *http.Request) {
	if s.Locator == nil {
		writeError(w, http.StatusServiceUnavailable, "locate disabled")
		return
	}
	sys, err := querySystem(r, "sys", "wgs84")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ip := getClientIP(r)
	f, err := s.Locator.Locate(r.Context(), ip)
	switch {
	case errors.Is(err, locate.ErrBadIP):
		writeError(w, http.StatusBadRequest, "invalid ip")
		return
	case errors.Is(err, locate.ErrNotFound):
		writeError(w, http.StatusNotFound, "not located")
		return
	case err != nil:
		logger.L().Error("locate_error", "ip", ip, "err", err)
		writeError(w, http.StatusBadGateway, "locate failed")
		return
	}
	writeJSON(w, http.StatusOK, locateResponse{
		IP:           ip,
		Source:       f.Source,
		System:       sys,
		Point:        f.In(sys),
		NativeSystem: f.System,
		NativePoint:  f.Point,
		Confidence:   f.Confidence,
		Country:      f.Country,
		Province:     f.Province,
		City:         f.City,
	})
}

type reverseGeoResponse struct {
	Input      coordtransform.GeoPoint `json:"input"`
	System     coordtransform.System   `json:"system"`
	WGS84      coordtransform.GeoPoint `json:"wgs84"`
	Country    string                  `json:"country"`
	Region     string                  `json:"region"`
	Province   string                  `json:"province"`
	City       string                  `json:"city"`
	Confidence float64                 `json:"confidence"`
	Approx     bool                    `json:"approx"`
}

// 文档注释：反地理 GET /reverse_geo?lng=&lat=&sys=
func (s *server) handleReverseGeo(w http.ResponseWriter, r *http.Request) {
	if s.RevGeo == nil {
		writeError(w, http.StatusServiceUnavailable, "reverse geocoding disabled")
		return
	}
	p, sys, err := queryPoint(r.URL.Query(), "sys", "wgs84")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := s.RevGeo.Query(p, sys)
	writeJSON(w, http.StatusOK, reverseGeoResponse{
		Input:      p,
		System:     sys,
		WGS84:      res.Point,
		Country:    res.Unit.Country,
		Region:     res.Unit.Region,
		Province:   res.Unit.Province,
		City:       res.Unit.City,
		Confidence: res.Confidence,
		Approx:     res.Approx,
	})
}

type verifyResponse struct {
	Input coordtransform.GeoPoint `json:"input"`
	From  coordtransform.System   `json:"from"`
	Local coordtransform.GeoPoint `json:"local"`
	AMap  coordtransform.GeoPoint `json:"amap"`
	DiffM float64                 `json:"diff_m"`
}

// 文档注释：与高德坐标转换接口对照 GET /verify?lng=&lat=&from=
// 背景：本地公式换算到 GCJ-02 后与高德结果比较距离；样本写库供离线分析。
// 约束：未配置密钥返回 503；上游失败返回 502。
func (s *server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.AMap == nil {
		writeError(w, http.StatusServiceUnavailable, "amap key not configured")
		return
	}
	p, from, err := queryPoint(r.URL.Query(), "from", "wgs84")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	local := coordtransform.Convert(p, from, coordtransform.GCJ02)
	remote, err := s.AMap.Convert(r.Context(), p, from)
	if errors.Is(err, amap.ErrMissingKey) {
		writeError(w, http.StatusServiceUnavailable, "amap key not configured")
		return
	}
	if err != nil {
		logger.L().Warn("verify_amap_error", "err", err)
		writeError(w, http.StatusBadGateway, "amap: "+err.Error())
		return
	}
	diff := coordtransform.Distance(local, remote)
	if s.Stats != nil {
		sample := store.VerifySample{
			Source: from.String(), Lng: p.Lng, Lat: p.Lat,
			LocalLng: local.Lng, LocalLat: local.Lat,
			AMapLng: remote.Lng, AMapLat: remote.Lat,
			DiffM: diff,
		}
		if err := s.Stats.RecordVerify(r.Context(), sample); err != nil {
			logger.L().Warn("verify_record_error", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, verifyResponse{Input: p, From: from, Local: local, AMap: remote, DiffM: diff})
}
