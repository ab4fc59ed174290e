package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"ytfactory/internal/config"
	"ytfactory/internal/model/job"
	"ytfactory/internal/pkg/jwt"
	jobRepo "ytfactory/internal/repository/job"
)

type emptyRepo struct{}

func (emptyRepo) Create(context.Context, *job.Job) error { return nil }
func (emptyRepo) Save(context.Context, *job.Job) error   { return nil }
func (emptyRepo) FindByID(context.Context, string, string) (*job.Job, error) {
	return nil, jobRepo.ErrNotFound
}
func (emptyRepo) List(context.Context, string, int64, int64, string) ([]*job.Job, int64, error) {
	return []*job.Job{}, 0, nil
}

type staticFactory struct{}

func (staticFactory) ValidateInput(string, float64) error { return nil }
func (staticFactory) NewJob(topic string, minutes float64) *job.Job {
	return &job.Job{ID: "coffee-1", Topic: topic, Minutes: minutes, Status: job.StatusQueued}
}

type acceptQueue struct{}

func (acceptQueue) Submit(*job.Job) error { return nil }

func get(s *Server, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestServerRoutes(t *testing.T) {
	Convey("Server 路由", t, func() {
		cfg := &config.Config{Server: config.ServerConfig{Mode: "test"}}
		opts := Options{Jobs: emptyRepo{}, Factory: staticFactory{}, Queue: acceptQueue{}}

		Convey("health 不需要鉴权", func() {
			cfg.Auth.JWTSecret = "secret"
			s := New(cfg, opts)
			w := get(s, "/health", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("X-Request-ID"), ShouldNotBeEmpty)
		})

		Convey("配置密钥后任务接口需要 token", func() {
			cfg.Auth.JWTSecret = "secret"
			s := New(cfg, opts)
			So(get(s, "/api/v1/jobs", "").Code, ShouldEqual, http.StatusUnauthorized)

			token, err := jwt.NewJWT("secret", time.Hour).GenerateToken("ci-bot")
			So(err, ShouldBeNil)
			So(get(s, "/api/v1/jobs", token).Code, ShouldEqual, http.StatusOK)
		})

		Convey("未配置密钥时直接可用", func() {
			s := New(cfg, opts)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{"topic":"Coffee","minutes":1}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.Engine().ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusAccepted)
		})

		Convey("没有任务仓库时不注册任务接口", func() {
			s := New(cfg, Options{})
			So(get(s, "/api/v1/jobs", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}
