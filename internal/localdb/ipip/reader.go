// 包 ipip：读取 IPIP.net IPDB 文件（二叉前缀树 + 叶子文本），提供 IPv4 行政区查询
package ipip

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"coord-api/internal/localdb"
)

var (
	ErrBadFile = errors.New("bad ipdb file")
	errResolve = errors.New("ipdb leaf out of range")
)

// Meta：文件头部 JSON 元信息
type Meta struct {
	Build     int64          `json:"build"`
	IPVersion uint16         `json:"ip_version"`
	Languages map[string]int `json:"languages"`
	NodeCount int            `json:"node_count"`
	TotalSize int            `json:"total_size"`
	Fields    []string       `json:"fields"`
}

// 文档注释：IPDB 读取器
// 背景：文件布局为 uint32(BE) 元信息长度 + 元信息 JSON + 数据段；数据段前部为 8 字节节点（左右指针各 4 字节），
// 其后为 "uint16 长度 + 制表符分隔文本" 的叶子。IPv4 根位于 ::ffff:0:0/96 前缀处。
// 约束：整文件载入内存，只读，可并发查询；只支持 IPv4。
type Reader struct {
	meta     Meta
	data     []byte
	v4offset int
	langOff  int
}

// Open 打开 IPDB；lang 不存在时取偏移最小的语言
func Open(path, lang string) (*Reader, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(body) < 4 {
		return nil, fmt.Errorf("%w: size %d", ErrBadFile, len(body))
	}
	mlen := int(binary.BigEndian.Uint32(body[0:4]))
	if len(body) < 4+mlen {
		return nil, fmt.Errorf("%w: meta length", ErrBadFile)
	}
	var m Meta
	if err := json.Unmarshal(body[4:4+mlen], &m); err != nil {
		return nil, fmt.Errorf("%w: meta: %v", ErrBadFile, err)
	}
	if len(m.Languages) == 0 || len(m.Fields) == 0 {
		return nil, fmt.Errorf("%w: meta fields", ErrBadFile)
	}
	if len(body) != 4+mlen+m.TotalSize {
		return nil, fmt.Errorf("%w: total size", ErrBadFile)
	}
	r := &Reader{meta: m, data: body[4+mlen:], langOff: langOffset(m, lang)}
	node := 0
	for i := 0; i < 96 && node < m.NodeCount; i++ {
		bit := 0
		if i >= 80 {
			bit = 1
		}
		node = r.readNode(node, bit)
	}
	r.v4offset = node
	return r, nil
}

// Meta 返回文件元信息
func (r *Reader) Meta() Meta { return r.meta }

func langOffset(m Meta, lang string) int {
	if off, ok := m.Languages[lang]; ok {
		return off
	}
	first := -1
	for _, v := range m.Languages {
		if first < 0 || v < first {
			first = v
		}
	}
	return max(first, 0)
}

// readNode：越界时返回原节点，调用方以深度控制循环
func (r *Reader) readNode(node, index int) int {
	off := node*8 + index*4
	if off+4 > len(r.data) {
		return node
	}
	return int(binary.BigEndian.Uint32(r.data[off : off+4]))
}

func (r *Reader) resolve(node int) ([]byte, error) {
	resolved := node - r.meta.NodeCount + r.meta.NodeCount*8
	if resolved+2 > len(r.data) {
		return nil, errResolve
	}
	size := int(binary.BigEndian.Uint16(r.data[resolved : resolved+2]))
	if resolved+2+size > len(r.data) {
		return nil, errResolve
	}
	return r.data[resolved+2 : resolved+2+size], nil
}

// 文档注释：按 IPv4 查询行政区
// 背景：IPIP 的 region_name 在国内数据中即省份，统一填入 Province。
// 返回：非 IPv4、未命中或城市与省份均为空时 ok=false。
func (r *Reader) Lookup(ip string) (localdb.Region, bool) {
	p := net.ParseIP(strings.TrimSpace(ip))
	if p == nil || p.To4() == nil {
		return localdb.Region{}, false
	}
	v := p.To4()
	node := r.v4offset
	for i := 0; i < 32 && node <= r.meta.NodeCount; i++ {
		node = r.readNode(node, int((v[i/8]>>uint(7-i%8))&1))
	}
	if node <= r.meta.NodeCount {
		return localdb.Region{}, false
	}
	raw, err := r.resolve(node)
	if err != nil {
		return localdb.Region{}, false
	}
	parts := strings.Split(string(raw), "\t")
	end := min(r.langOff+len(r.meta.Fields), len(parts))
	if r.langOff >= end {
		return localdb.Region{}, false
	}
	seg := parts[r.langOff:end]
	var out localdb.Region
	for i, f := range r.meta.Fields[:len(seg)] {
		switch f {
		case "country_name":
			out.Country = seg[i]
		case "region_name", "province_name":
			out.Province = seg[i]
		case "city_name":
			out.City = seg[i]
		case "isp_domain":
			out.ISP = seg[i]
		}
	}
	if out.City == "" && out.Province == "" {
		return localdb.Region{}, false
	}
	return out, true
}
