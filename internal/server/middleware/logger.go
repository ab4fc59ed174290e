package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Logger 请求日志中间件；skip 中的路径只在出错时记录
func Logger(skip ...string) gin.HandlerFunc {
	quiet := make(map[string]bool, len(skip))
	for _, p := range skip {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		if quiet[path] && status < 400 {
			return
		}

		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString("request_id")).
			Str("subject", c.GetString("subject")).
			Int("body_size", c.Writer.Size()).
			Msg("HTTP request")
	}
}
