package revgeo

import (
	"math"

	"coord-api/pkg/coordtransform"
)

// 文档注释：KD-Tree 最近邻（二维经纬）
// 背景：在 PIP 未命中时提供城市级兜底；限制最大半径避免海上或偏远地点误归属。
// 约束：按经度/纬度交替分割；仅支持最近一个点查询。
type kdNode struct {
	c  Centroid
	ax int // 0:lng,1:lat
	l  *kdNode
	r  *kdNode
}

func buildKD(cs []Centroid, depth int) *kdNode {
	if len(cs) == 0 {
		return nil
	}
	ax := depth % 2
	mid := len(cs) / 2
	selectNth(cs, mid, ax)
	return &kdNode{
		c:  cs[mid],
		ax: ax,
		l:  buildKD(cs[:mid], depth+1),
		r:  buildKD(cs[mid+1:], depth+1),
	}
}

// 原地第 n 小元素选择（quickselect）
func selectNth(a []Centroid, n, ax int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi, (lo+hi)/2, ax)
		switch {
		case p == n:
			return
		case n < p:
			hi = p - 1
		default:
			lo = p + 1
		}
	}
}

func partition(a []Centroid, lo, hi, pivot, ax int) int {
	pv := axisValue(a[pivot], ax)
	a[pivot], a[hi] = a[hi], a[pivot]
	i := lo
	for j := lo; j < hi; j++ {
		if axisValue(a[j], ax) < pv {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}

func axisValue(c Centroid, ax int) float64 {
	if ax == 0 {
		return c.Lng
	}
	return c.Lat
}

// nearest 返回最近质心与距离（千米）
func nearest(root *kdNode, pt coordtransform.GeoPoint) (Centroid, float64) {
	var best Centroid
	bestKm := math.MaxFloat64
	var walk func(n *kdNode)
	walk = func(n *kdNode) {
		if n == nil {
			return
		}
		if d := coordtransform.Distance(pt, n.c.Point()) / 1000; d < bestKm {
			bestKm, best = d, n.c
		}
		key := pt.Lng
		if n.ax == 1 {
			key = pt.Lat
		}
		split := axisValue(n.c, n.ax)
		first, second := n.l, n.r
		if key > split {
			first, second = n.r, n.l
		}
		walk(first)
		// 到分割平面的球面距离是另一侧所有点的下界
		if planeKm(pt, n.ax, split) <= bestKm {
			walk(second)
		}
	}
	walk(root)
	return best, bestKm
}

// planeKm：查询点到分割线（纬线按经向弧长，经线按到子午圈的大圆距离）的下界距离
func planeKm(pt coordtransform.GeoPoint, ax int, split float64) float64 {
	const earthKm = 6371.0
	if ax == 1 {
		return math.Abs(pt.Lat-split) * math.Pi / 180 * earthKm
	}
	dl := math.Abs(pt.Lng-split) * math.Pi / 180
	if dl >= math.Pi/2 {
		return 0
	}
	return earthKm * math.Asin(math.Cos(pt.Lat*math.Pi/180)*math.Sin(dl))
}
