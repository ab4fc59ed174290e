package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ytfactory/internal/pkg/ctxutil"
	httpx "ytfactory/internal/pkg/http"
	"ytfactory/internal/pkg/jwt"
)

const (
	CodeUnauthorized = 40101
	CodeTokenInvalid = 40102
	CodeTokenExpired = 40103
)

// Auth JWT 认证中间件
// 从 Authorization header 中提取 Bearer token，验证后把 subject 注入 context
func Auth(jwtUtil *jwt.JWT) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpx.NewErrorResponse(CodeUnauthorized, "unauthorized"))
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpx.NewErrorResponse(CodeUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := jwtUtil.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			code := CodeTokenInvalid
			if errors.Is(err, jwt.ErrExpiredToken) {
				code = CodeTokenExpired
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpx.NewErrorResponse(code, "token is invalid or expired"))
			return
		}

		c.Set("subject", claims.Subject)
		c.Request = c.Request.WithContext(ctxutil.WithSubject(c.Request.Context(), claims.Subject))
		c.Next()
	}
}
