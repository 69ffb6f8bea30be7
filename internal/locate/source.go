// 包 locate：多数据源 IP 定位（按来源坐标系携带结果，由调用方换算）
package locate

import (
	"context"
	"errors"

	"coord-api/internal/utils"
	"coord-api/pkg/coordtransform"
)

var (
	ErrNotFound = errors.New("location not found")
	ErrBadIP    = errors.New("invalid ip")
)

// 文档注释：数据源接口（统一契约）
// 背景：各定位来源以同构接口注册，管理器并发查询并按权重与置信度择优。
// 约束：Locate 无结果时返回 ErrNotFound；Fix.System 必须如实声明坐标所属坐标系；Weight 取值 0..10。
type Source interface {
	Name() string
	Locate(ctx context.Context, ip string) (Fix, error)
	Weight() float64
	Heartbeat(ctx context.Context) error
}

// Fix：单个来源给出的定位结果
type Fix struct {
	Point      coordtransform.GeoPoint `json:"point"`
	System     coordtransform.System   `json:"system"`
	Confidence float64                 `json:"confidence"`
	Country    string                  `json:"country,omitempty"`
	Province   string                  `json:"province,omitempty"`
	City       string                  `json:"city,omitempty"`
	Source     string                  `json:"source"`
}

// In 返回换算到目标坐标系后的坐标
func (f Fix) In(sys coordtransform.System) coordtransform.GeoPoint {
	return coordtransform.Convert(f.Point, f.System, sys)
}

// readWeight 读取 LOCATE_WEIGHT_<SOURCE>，截断到 0..10
func readWeight(env string, def float64) float64 {
	return min(max(utils.EnvFloat(env, def), 0), 10)
}
