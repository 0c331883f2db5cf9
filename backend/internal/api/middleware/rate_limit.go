package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"staffhub/backend/pkg/redis"
	"staffhub/backend/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件，按客户端 IP 计数（用于登录）
// rdb 为 nil 时降级放行（与 JWTAuth 策略一致）
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return rateLimit(rdb, limit, window, func(c *gin.Context) string { return c.ClientIP() })
}

// RateLimitByPrincipal 按已认证主体计数（用于打卡），必须挂在 JWTAuth 之后
func RateLimitByPrincipal(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return rateLimit(rdb, limit, window, func(c *gin.Context) string {
		if id := c.GetString("user_id"); id != "" {
			return id
		}
		return c.ClientIP()
	})
}

func rateLimit(rdb *redis.Client, limit int, window time.Duration, subject func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", subject(c), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			// Redis 出错时降级放行
			c.Next()
			return
		}

		if !allowed {
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
