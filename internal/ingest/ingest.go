// 包 ingest：离线数据通道，拉取城市质心并定期重载反地理快照
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"coord-api/internal/logger"
	"coord-api/internal/revgeo"
)

// 文档注释：拉取上游城市质心并原子写入 city_centroids.json
// 背景：上游按行提供 "country|province|city|lng|lat"（WGS84），与 ip2region 源同样以竖线分隔。
// 约束：非法行跳过并计数；写入先落临时文件再 rename，避免重载时读到半截文件；零有效行视为失败。
func FetchCentroids(ctx context.Context, hc *http.Client, srcURL, dir string) (int, error) {
	logger.L().Info("ingest_centroids_start", "src", srcURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("centroids: http %d", resp.StatusCode)
	}

	var out []revgeo.Centroid
	skipped := 0
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, ok := parseCentroidLine(line)
		if !ok {
			skipped++
			continue
		}
		out = append(out, c)
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, fmt.Errorf("centroids: no valid rows (skipped %d)", skipped)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	dst := filepath.Join(dir, "city_centroids.json")
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return 0, err
	}
	logger.L().Info("ingest_centroids_done", "count", len(out), "skipped", skipped)
	return len(out), nil
}

func parseCentroidLine(line string) (revgeo.Centroid, bool) {
	parts := strings.Split(line, "|")
	if len(parts) < 5 {
		return revgeo.Centroid{}, false
	}
	lng, err1 := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	lat, err2 := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
	if err1 != nil || err2 != nil || !(lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90) {
		return revgeo.Centroid{}, false
	}
	city := strings.TrimSpace(parts[2])
	if city == "" {
		return revgeo.Centroid{}, false
	}
	return revgeo.Centroid{
		Lng:      lng,
		Lat:      lat,
		Country:  strings.TrimSpace(parts[0]),
		Province: strings.TrimSpace(parts[1]),
		City:     city,
	}, true
}
