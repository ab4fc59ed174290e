package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"

	"ytfactory/internal/pkg/ctxutil"
	"ytfactory/internal/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		subject, _ := ctxutil.Subject(c.Request.Context())
		c.String(http.StatusOK, subject+"|"+ctxutil.RequestID(c.Request.Context()))
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	Convey("Auth", t, func() {
		j := jwt.NewJWT("secret", time.Hour)
		r := newEngine(Auth(j))

		Convey("缺少 header", func() {
			So(do(r, http.MethodGet, "/ping", nil).Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("格式错误", func() {
			w := do(r, http.MethodGet, "/ping", map[string]string{"Authorization": "Token abc"})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("无效 token", func() {
			w := do(r, http.MethodGet, "/ping", map[string]string{"Authorization": "Bearer abc"})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(w.Body.String(), ShouldContainSubstring, "40102")
		})

		Convey("有效 token 注入 subject", func() {
			token, _ := j.GenerateToken("ci-bot")
			w := do(r, http.MethodGet, "/ping", map[string]string{"Authorization": "Bearer " + token})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldStartWith, "ci-bot|")
		})
	})
}

func TestRequestID(t *testing.T) {
	Convey("RequestID", t, func() {
		r := newEngine(RequestID())

		Convey("生成新的 ID", func() {
			w := do(r, http.MethodGet, "/ping", nil)
			So(w.Header().Get(RequestIDHeader), ShouldNotBeEmpty)
			So(w.Body.String(), ShouldEndWith, w.Header().Get(RequestIDHeader))
		})

		Convey("沿用合法的 ID", func() {
			rid := "0b7c7a4e-8d43-4a4b-9f1e-2c1f8f6f5a10"
			w := do(r, http.MethodGet, "/ping", map[string]string{RequestIDHeader: rid})
			So(w.Header().Get(RequestIDHeader), ShouldEqual, rid)
		})

		Convey("不合法的 ID 被替换", func() {
			w := do(r, http.MethodGet, "/ping", map[string]string{RequestIDHeader: "<script>"})
			So(w.Header().Get(RequestIDHeader), ShouldNotEqual, "<script>")
		})
	})
}

func TestCORSAndRecovery(t *testing.T) {
	Convey("CORS / Recovery", t, func() {
		r := newEngine(Recovery(), CORS())

		Convey("预检请求直接返回", func() {
			w := do(r, http.MethodOptions, "/ping", nil)
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})

		Convey("panic 返回 500 envelope", func() {
			w := do(r, http.MethodGet, "/panic", nil)
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "50000")
		})
	})
}
