package revgeo

import "strings"

// 文档注释：轻量 geohash 编码（base32）
// 背景：仅用于 LRU 缓存键；精度 6 字符约 1.2km，与行政区粒度匹配。
const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

func encodeGeohash(lat, lng float64, precision int) string {
	latLo, latHi := -90.0, 90.0
	lngLo, lngHi := -180.0, 180.0
	var sb strings.Builder
	sb.Grow(precision)
	bit, ch := 0, 0
	even := true
	for sb.Len() < precision {
		if even {
			mid := (lngLo + lngHi) / 2
			if lng >= mid {
				ch |= 1 << (4 - bit)
				lngLo = mid
			} else {
				lngHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
			continue
		}
		sb.WriteByte(geohashAlphabet[ch])
		bit, ch = 0, 0
	}
	return sb.String()
}
