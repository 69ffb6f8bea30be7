// 包 geoip：MaxMind GeoLite2/GeoIP2 City 库读取，产出 WGS84 坐标
package geoip

import (
	"coord-api/pkg/coordtransform"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

var ErrBadIP = errors.New("geoip: bad ip")

// Record：一次命中的定位结果，坐标系为 WGS84
type Record struct {
	Point      coordtransform.GeoPoint
	AccuracyKm uint16
	Country    string
	Province   string
	City       string
}

// 文档注释：City 库读取器
// 背景：mmdb 以内存映射方式打开，读取线程安全；lang 指定名称语言，缺失时回退英文。
type Reader struct {
	db   *geoip2.Reader
	lang string
}

func Open(path, lang string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb %s: %w", path, err)
	}
	if lang == "" {
		lang = "zh-CN"
	}
	return &Reader{db: db, lang: lang}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// Metadata：库元信息，用于启动日志
func (r *Reader) Metadata() maxminddb.Metadata { return r.db.Metadata() }

// 文档注释：按 IP 查询
// 返回：未收录或坐标缺失（经纬度同为 0）时 ok=false；IP 非法返回 ErrBadIP。
func (r *Reader) Lookup(ip string) (Record, bool, error) {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return Record{}, false, ErrBadIP
	}
	c, err := r.db.City(parsed)
	if err != nil {
		return Record{}, false, fmt.Errorf("mmdb city: %w", err)
	}
	if c.Location.Latitude == 0 && c.Location.Longitude == 0 {
		return Record{}, false, nil
	}
	rec := Record{
		Point:      coordtransform.NewGeoPoint(c.Location.Longitude, c.Location.Latitude),
		AccuracyKm: c.Location.AccuracyRadius,
		Country:    pickName(c.Country.Names, r.lang),
		City:       pickName(c.City.Names, r.lang),
	}
	if len(c.Subdivisions) > 0 {
		rec.Province = pickName(c.Subdivisions[0].Names, r.lang)
	}
	return rec, true, nil
}

// pickName：优先指定语言，其次英文，最后按键名排序取第一个以保证稳定
func pickName(names map[string]string, lang string) string {
	if v := names[lang]; v != "" {
		return v
	}
	if v := names["en"]; v != "" {
		return v
	}
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if names[k] != "" {
			return names[k]
		}
	}
	return ""
}

// Describe：将库元信息格式化为单行，便于日志检索
func Describe(m maxminddb.Metadata) string {
	built := time.Unix(int64(m.BuildEpoch), 0).UTC().Format("2006-01-02")
	return fmt.Sprintf("%s v%d.%d ipv%d built=%s nodes=%d langs=%s",
		m.DatabaseType, m.BinaryFormatMajorVersion, m.BinaryFormatMinorVersion, m.IPVersion, built, m.NodeCount, strings.Join(m.Languages, "/"))
}
