package revgeo

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"coord-api/pkg/coordtransform"

	"github.com/tidwall/gjson"
)

var ErrBadGeoJSON = errors.New("invalid geojson")

// 文档注释：从数据目录加载边界与质心快照
// 背景：支持 Natural Earth/geoBoundaries/自建城市质心的 GeoJSON/JSON 文件；构建轻量快照用于查询。
// 约束：约定文件名：boundaries.json（要素数组）或 *.geojson（FeatureCollection/Feature），city_centroids.json（质心）；
// 目录缺失或文件缺失时返回空快照，仅在文件存在但内容非法时报错。
func LoadSnapshot(dir string) (*Snapshot, error) {
	snap := &Snapshot{BuiltAt: time.Now()}
	if b, err := os.ReadFile(filepath.Join(dir, "city_centroids.json")); err == nil {
		if err := json.Unmarshal(b, &snap.Centroids); err != nil {
			return nil, fmt.Errorf("city_centroids.json: %w", err)
		}
	}
	if b, err := os.ReadFile(filepath.Join(dir, "boundaries.json")); err == nil {
		if !gjson.ValidBytes(b) {
			return nil, fmt.Errorf("boundaries.json: %w", ErrBadGeoJSON)
		}
		gjson.ParseBytes(b).ForEach(func(_, v gjson.Result) bool {
			snap.Units = append(snap.Units, unitFrom(v, v.Get("geometry")))
			return true
		})
		return snap, nil
	}
	entries, _ := os.ReadDir(dir)
	names := make([]string, 0, len(entries))
	for _, ent := range entries {
		if !ent.IsDir() && strings.HasSuffix(strings.ToLower(ent.Name()), ".geojson") {
			names = append(names, ent.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(b) {
			return nil, fmt.Errorf("%s: %w", name, ErrBadGeoJSON)
		}
		snap.Units = append(snap.Units, unitsFromGeoJSON(gjson.ParseBytes(b))...)
	}
	return snap, nil
}

func unitsFromGeoJSON(gj gjson.Result) []AdminUnit {
	switch strings.ToLower(gj.Get("type").String()) {
	case "featurecollection":
		var out []AdminUnit
		gj.Get("features").ForEach(func(_, f gjson.Result) bool {
			out = append(out, unitFrom(f.Get("properties"), f.Get("geometry")))
			return true
		})
		return out
	case "feature":
		return []AdminUnit{unitFrom(gj.Get("properties"), gj.Get("geometry"))}
	}
	return nil
}

func unitFrom(props, geom gjson.Result) AdminUnit {
	u := AdminUnit{
		Country:  props.Get("country").String(),
		Region:   props.Get("region").String(),
		Province: props.Get("province").String(),
		City:     props.Get("city").String(),
	}
	coords := geom.Get("coordinates")
	switch strings.ToLower(geom.Get("type").String()) {
	case "polygon":
		u.Polys = append(u.Polys, polygonFrom(coords))
	case "multipolygon":
		coords.ForEach(func(_, part gjson.Result) bool {
			u.Polys = append(u.Polys, polygonFrom(part))
			return true
		})
	}
	return u
}

func polygonFrom(rings gjson.Result) Polygon {
	var poly Polygon
	rings.ForEach(func(_, ring gjson.Result) bool {
		var rr []coordtransform.GeoPoint
		ring.ForEach(func(_, pos gjson.Result) bool {
			if xy := pos.Array(); len(xy) >= 2 {
				rr = append(rr, coordtransform.NewGeoPoint(xy[0].Float(), xy[1].Float()))
			}
			return true
		})
		poly.Rings = append(poly.Rings, rr)
		return true
	})
	poly.BBox = computeBBox(poly.Rings)
	return poly
}
