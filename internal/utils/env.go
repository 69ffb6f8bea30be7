// 包 utils：环境变量读取工具，集中处理默认值与解析失败回退
package utils

import (
	"math"
	"os"
	"strconv"
	"strings"
)

// EnvString：读取字符串，空值回退默认
func EnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt：读取正整数，缺失、非法或非正时回退默认
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// EnvFloat：读取有限浮点数，NaN/Inf 视为非法
func EnvFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

// EnvBool：识别 true/1/yes 与 false/0/no（大小写不敏感、忽略首尾空白），其余回退默认
func EnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}
