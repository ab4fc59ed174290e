package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"ytfactory/internal/config"
	"ytfactory/internal/handler"
	jobHandler "ytfactory/internal/handler/job"
	"ytfactory/internal/pkg/jwt"
	jobRepo "ytfactory/internal/repository/job"
	"ytfactory/internal/server/middleware"
)

const shutdownTimeout = 15 * time.Second

// Options 服务器依赖
// Jobs 为 nil 时（没有 MongoDB）任务接口不注册
type Options struct {
	Jobs    jobRepo.JobRepository
	Factory jobHandler.JobFactory
	Queue   jobHandler.Submitter
	Pingers map[string]handler.Pinger
}

// Server HTTP 服务器
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	opts   Options
}

// New 创建服务器实例
func New(cfg *config.Config, opts Options) *Server {
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &Server{
		cfg:    cfg,
		engine: gin.New(),
		opts:   opts,
	}
	srv.setupRoutes()
	return srv
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger("/health", "/ready"))
	s.engine.Use(middleware.CORS())

	healthHandler := handler.NewHealthHandler(s.opts.Pingers)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	if s.cfg.Auth.JWTSecret != "" {
		v1.Use(middleware.Auth(jwt.NewJWT(s.cfg.Auth.JWTSecret, s.cfg.Auth.TokenExpiry)))
	} else {
		log.Warn().Msg("auth.jwt_secret not configured, API is not authenticated")
	}

	if s.opts.Jobs == nil || s.opts.Factory == nil || s.opts.Queue == nil {
		log.Warn().Msg("MongoDB not configured, job endpoints disabled")
		return
	}

	jobHdl := jobHandler.NewHandler(s.opts.Jobs, s.opts.Factory, s.opts.Queue)
	v1.POST("/jobs", jobHdl.CreateJob)
	v1.GET("/jobs", jobHdl.ListJobs)
	v1.GET("/jobs/:id", jobHdl.GetJob)
}

// Run 启动服务器，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
