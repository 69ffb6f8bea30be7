package coordtransform

// 文档注释：判定点是否位于偏移区域（中国大陆近似包围盒）之外
// 背景：GCJ-02 仅在区域内加偏；区域外 WGS84 与 GCJ-02 视为同一坐标。
// 约束：四个边界值必须与历史实现逐位一致，边界本身属于区域内（严格小于/大于才算区域外）。
func OutOfChina(p GeoPoint) bool {
	return p.Lng < 72.004 || p.Lng > 137.8347 || p.Lat < 0.8293 || p.Lat > 55.8271
}
