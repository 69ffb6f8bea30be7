package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"coord-api/internal/logger"
	"coord-api/internal/metrics"
	"coord-api/pkg/coordtransform"
)

type convertResponse struct {
	From       coordtransform.System   `json:"from"`
	To         coordtransform.System   `json:"to"`
	Input      coordtransform.GeoPoint `json:"input"`
	Output     coordtransform.GeoPoint `json:"output"`
	OutOfChina bool                    `json:"out_of_china"`
	OffsetM    float64                 `json:"offset_m"`
}

type batchResponse struct {
	From   coordtransform.System     `json:"from"`
	To     coordtransform.System     `json:"to"`
	Points []coordtransform.GeoPoint `json:"points"`
}

// 文档注释：单点换算 GET /convert?lng=&lat=&from=&to=
// 约束：from 缺省 wgs84，to 缺省 gcj02；经纬度须为有限值且在合法范围内。
func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	p, from, err := queryPoint(r.URL.Query(), "from", "wgs84")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := querySystem(r, "to", "gcj02")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := s.convert(p, from, to)
	s.record(r, from, to, 1)
	writeJSON(w, http.StatusOK, convertResponse{
		From:       from,
		To:         to,
		Input:      p,
		Output:     out,
		OutOfChina: coordtransform.OutOfChina(p),
		OffsetM:    coordtransform.Distance(p, out),
	})
}

// 文档注释：批量换算 POST /convert/batch
// 背景：请求体 {from,to,points:[{lng,lat}]}，结果与输入同序。
// 约束：点数 1..BatchMax；请求体上限 8MB；任一点非法则整体 400。
func (s *server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 8<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, describeValidation(err))
		return
	}
	if len(req.Points) > s.BatchMax {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("too many points: %d > %d", len(req.Points), s.BatchMax))
		return
	}
	from, _ := coordtransform.ParseSystem(req.From)
	to, _ := coordtransform.ParseSystem(req.To)
	out := make([]coordtransform.GeoPoint, len(req.Points))
	for i, p := range req.Points {
		out[i] = s.convert(p.point(), from, to)
	}
	metrics.BatchSize.Observe(float64(len(out)))
	s.record(r, from, to, len(out))
	logger.L().Debug("convert_batch_done", "from", from.String(), "to", to.String(), "n", len(out))
	writeJSON(w, http.StatusOK, batchResponse{From: from, To: to, Points: out})
}

func (s *server) convert(p coordtransform.GeoPoint, from, to coordtransform.System) coordtransform.GeoPoint {
	metrics.ConversionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	if passthrough(p, from, to) {
		metrics.PassthroughTotal.Inc()
	}
	return coordtransform.Convert(p, from, to)
}

// passthrough：WGS84⇄GCJ-02 且点在区域外时原样返回；BD-09 无区域判断，不计入
func passthrough(p coordtransform.GeoPoint, from, to coordtransform.System) bool {
	gated := (from == coordtransform.WGS84 && to == coordtransform.GCJ02) ||
		(from == coordtransform.GCJ02 && to == coordtransform.WGS84)
	return gated && coordtransform.OutOfChina(p)
}

// 文档注释：记录换算统计
// 背景：统计失败只记日志，不影响换算结果返回。
func (s *server) record(r *http.Request, from, to coordtransform.System, n int) {
	if s.Stats == nil {
		return
	}
	ctx := context.WithoutCancel(r.Context())
	visitor := newVisitorToday(ctx, s.Redis, getVisitorIP(r), s.now())
	if err := s.Stats.IncrStats(ctx, from.String(), to.String(), n, visitor); err != nil {
		logger.L().Warn("stats_incr_error", "err", err)
	}
}

// 文档注释：统计查询 GET /stats
func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "stats disabled")
		return
	}
	t, err := s.Stats.GetTotals(r.Context())
	if err != nil {
		logger.L().Error("stats_read_error", "err", err)
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, t)
}
