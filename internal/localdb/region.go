// 包 localdb：离线 IP 库的公共结构；具体格式由子包（ip2region、ipip）实现，只产出行政区名称
package localdb

// Region：离线库命中后的行政区字段，未知值统一为空串
type Region struct {
	Country  string
	Region   string
	Province string
	City     string
	ISP      string
}
