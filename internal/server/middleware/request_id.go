package middleware

import (
	"github.com/gin-gonic/gin"

	"adreel/internal/pkg/id"
	"adreel/internal/pkg/logger"
)

// RequestIDHeader 请求ID头
const RequestIDHeader = "X-Request-ID"

// RequestID 请求ID中间件
// 沿用客户端传入的 X-Request-ID，否则生成新的；同时把带 request_id 的 logger 注入 context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = id.New()
		}
		c.Set("request_id", rid)
		c.Header(RequestIDHeader, rid)

		l := logger.ForRequest(rid)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()
	}
}
