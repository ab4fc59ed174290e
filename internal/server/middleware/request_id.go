package middleware

import (
	"github.com/gin-gonic/gin"

	"ytfactory/internal/pkg/ctxutil"
	"ytfactory/internal/pkg/id"
)

const RequestIDHeader = "X-Request-ID"

// RequestID 沿用调用方传入的请求 ID，没有或不合法时生成新的
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if !id.IsValid(rid) {
			rid = id.New()
		}
		c.Set("request_id", rid)
		c.Header(RequestIDHeader, rid)
		c.Request = c.Request.WithContext(ctxutil.WithRequestID(c.Request.Context(), rid))
		c.Next()
	}
}
