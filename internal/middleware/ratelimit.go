// 包 middleware：入口级 HTTP 中间件
package middleware

import (
	"net/http"
	"time"

	"coord-api/internal/logger"
	"coord-api/internal/utils"

	"golang.org/x/time/rate"
)

// 文档注释：令牌桶限流（每秒）
// 背景：在流量峰值时对入口限速，避免批量换算与定位上游被压垮；按环境变量开关与速率配置。
// 约束：不做排队，超限直接返回 429；桶容量等于每秒速率，令牌按时间连续补充。
type TokenBucket struct {
	lim *rate.Limiter
	now func() time.Time
}

// NewTokenBucket 创建每秒 qps 个令牌、容量 qps 的桶；qps<=0 时按 1 处理
func NewTokenBucket(qps int) *TokenBucket {
	qps = max(qps, 1)
	return &TokenBucket{lim: rate.NewLimiter(rate.Limit(qps), qps), now: time.Now}
}

func (tb *TokenBucket) Allow() bool { return tb.lim.AllowN(tb.now(), 1) }

// RateLimit 包装限流；超限时返回 429 JSON 错误
func RateLimit(tb *TokenBucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tb.Allow() {
				w.Header().Set("content-type", "application/json; charset=utf-8")
				w.Header().Set("retry-after", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limited"}` + "\n"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Wrap 按 RATE_LIMIT_ENABLED / RATE_LIMIT_QPS（默认 200）装配限流，未开启时原样返回
func Wrap(next http.Handler) http.Handler {
	if !utils.EnvBool("RATE_LIMIT_ENABLED", false) {
		return next
	}
	qps := utils.EnvInt("RATE_LIMIT_QPS", 200)
	logger.L().Info("rate_limit_enabled", "qps", qps)
	return RateLimit(NewTokenBucket(qps))(next)
}
