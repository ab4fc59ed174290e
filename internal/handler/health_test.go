package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/smartystreets/goconvey/convey"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	Convey("HealthHandler", t, func() {
		serve := func(h *HealthHandler, path string) *httptest.ResponseRecorder {
			r := gin.New()
			r.GET("/health", h.Health)
			r.GET("/ready", h.Ready)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			return w
		}

		Convey("health 总是 ok", func() {
			So(serve(NewHealthHandler(nil), "/health").Code, ShouldEqual, http.StatusOK)
		})

		Convey("依赖全部可用", func() {
			h := NewHealthHandler(map[string]Pinger{
				"mongo": pingFunc(func(context.Context) error { return nil }),
			})
			w := serve(h, "/ready")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"mongo":"ok"`)
		})

		Convey("依赖不可用", func() {
			h := NewHealthHandler(map[string]Pinger{
				"mongo": pingFunc(func(context.Context) error { return nil }),
				"redis": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
			})
			w := serve(h, "/ready")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "connection refused")
		})
	})
}
