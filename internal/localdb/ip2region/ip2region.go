// 包 ip2region：基于 ip2region xdb 的离线区域查询，仅产出行政区名称，不含坐标
package ip2region

import (
	"fmt"
	"strings"

	"coord-api/internal/localdb"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
)

// 文档注释：ip2region 查询器
// 背景：v4/v6 库按需加载，任一路径为空则跳过对应协议族；查询时先 v4 后 v6。
// 约束：NewWithFileOnly 每次查询读文件，适合低频兜底；高频场景应改为整库载入内存。
type Searcher struct {
	v4 *xdb.Searcher
	v6 *xdb.Searcher
}

func Open(v4Path, v6Path string) (*Searcher, error) {
	s := &Searcher{}
	var err error
	if v4Path != "" {
		if s.v4, err = xdb.NewWithFileOnly(xdb.IPv4, v4Path); err != nil {
			return nil, fmt.Errorf("open ip2region v4: %w", err)
		}
	}
	if v6Path != "" {
		if s.v6, err = xdb.NewWithFileOnly(xdb.IPv6, v6Path); err != nil {
			s.Close()
			return nil, fmt.Errorf("open ip2region v6: %w", err)
		}
	}
	return s, nil
}

func (s *Searcher) Close() {
	if s.v4 != nil {
		s.v4.Close()
	}
	if s.v6 != nil {
		s.v6.Close()
	}
}

// Lookup：命中且城市或省份非空时返回 true
func (s *Searcher) Lookup(ip string) (localdb.Region, bool) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return localdb.Region{}, false
	}
	for _, x := range []*xdb.Searcher{s.v4, s.v6} {
		if x == nil {
			continue
		}
		if raw, err := x.SearchByStr(ip); err == nil && raw != "" {
			r := ParseRegion(raw)
			if r.City != "" || r.Province != "" {
				return r, true
			}
		}
	}
	return localdb.Region{}, false
}

// ParseRegion：拆分 "国家|区域|省份|城市|ISP"；"0"/"unknown" 归一为空串
func ParseRegion(s string) localdb.Region {
	parts := strings.Split(s, "|")
	field := func(i int) string {
		if i >= len(parts) {
			return ""
		}
		v := strings.TrimSpace(parts[i])
		if v == "0" || strings.EqualFold(v, "unknown") {
			return ""
		}
		return v
	}
	return localdb.Region{Country: field(0), Region: field(1), Province: field(2), City: field(3), ISP: field(4)}
}
