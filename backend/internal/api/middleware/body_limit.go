package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"staffhub/backend/pkg/response"
)

// BodyLimit 请求体大小限制。
// 默认 defaultMax；uploads 以 "METHOD 路由模板" 为键（如 "POST /api/v1/requests"），
// 为携带 base64 图片的路由放宽上限。声明的 Content-Length 超限时直接拒绝，
// 分块上传则在读取超限时由 MaxBytesReader 截断，见 IsBodyTooLarge。
func BodyLimit(defaultMax int64, uploads map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultMax
		if n, ok := uploads[c.Request.Method+" "+c.FullPath()]; ok {
			limit = n
		}

		if c.Request.ContentLength > limit {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()
	}
}

// IsBodyTooLarge 绑定失败是否因为请求体超出 BodyLimit
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
