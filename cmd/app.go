package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/cache"
	"ytfactory/internal/pkg/errkind"
	"ytfactory/internal/pkg/ffmpeg"
	"ytfactory/internal/pkg/llm"
	"ytfactory/internal/pkg/mongodb"
	"ytfactory/internal/pkg/pexels"
	"ytfactory/internal/pkg/remotion"
	"ytfactory/internal/pkg/speech"
	"ytfactory/internal/pkg/storagefactory"
	"ytfactory/internal/pkg/youtube"
	jobRepo "ytfactory/internal/repository/job"
	"ytfactory/internal/service/images"
	"ytfactory/internal/service/pipeline"
	"ytfactory/internal/service/render"
	"ytfactory/internal/service/script"
)

const connectTimeout = 10 * time.Second

// app 命令运行时组装出的组件
type app struct {
	cfg      *config.Config
	ffmpeg   *ffmpeg.Client
	renderer *render.Orchestrator
	driver   *pipeline.Driver
	mongo    *mongodb.Client
	redis    *cache.RedisCache
	jobs     *jobRepo.Repo
	closers  []func()
}

// appOptions 控制可选组件的组装
type appOptions struct {
	// track 连接 MongoDB 记录任务（需要 mongo.uri）
	track bool
}

// newRenderApp 只组装渲染所需的组件
func newRenderApp(cfg *config.Config) *app {
	ff := ffmpeg.NewClient(cfg.Render.FFmpegPath, cfg.Render.FFprobePath)
	rc := remotion.NewClient(cfg.Render.NpxPath, cfg.Render.RemotionRoot, cfg.Render.EntryPoint)
	return &app{
		cfg:      cfg,
		ffmpeg:   ff,
		renderer: render.NewOrchestrator(rc, ff, &cfg.Render, cfg.Pipeline.PublicDir),
	}
}

// newApp 组装完整流水线
func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	a := newRenderApp(cfg)
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	provider, err := llm.New(ctx, &cfg.AI)
	switch {
	case errors.Is(err, errkind.ErrMissingCredentials):
		log.Warn().Err(err).Msg("language model disabled, script generation will fail")
		provider = nil
	case err != nil:
		return nil, fmt.Errorf("failed to create language model: %w", err)
	}
	if c, isCloser := provider.(io.Closer); isCloser {
		a.closers = append(a.closers, func() { _ = c.Close() })
	}

	voice, err := speech.NewFromConfig(&cfg.Speech, a.ffmpeg, cfg.Render.TempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech provider: %w", err)
	}

	resolver, err := a.imageResolver(ctx)
	if err != nil {
		return nil, err
	}

	store, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	deps := pipeline.Dependencies{
		Generator: script.NewGenerator(provider, script.NewKeywordExtractor()).WithTimeout(cfg.AI.Timeout),
		Speech:    voice,
		Images:    resolver,
		Renderer:  a.renderer,
		Storage:   store,
		Prober:    a.ffmpeg,
	}

	if cfg.Upload.Enabled {
		uploader, err := youtube.NewUploader(ctx, &cfg.Upload)
		if err != nil {
			return nil, fmt.Errorf("failed to create youtube uploader: %w", err)
		}
		deps.Uploader = uploader
	}

	if opts.track {
		if err := a.openMongo(ctx); err != nil {
			return nil, err
		}
		if a.jobs != nil {
			deps.Tracker = a.jobs
		}
	}

	a.driver = pipeline.NewDriver(cfg, deps)
	ok = true
	return a, nil
}

// imageResolver pexels 检索，配置了 redis 时套一层缓存
func (a *app) imageResolver(ctx context.Context) (images.Resolver, error) {
	cfg := a.cfg

	var searcher images.Searcher
	client, err := pexels.NewClient(cfg.Images.APIKey, cfg.Images.BaseURL, cfg.Images.Timeout)
	switch {
	case errors.Is(err, errkind.ErrMissingCredentials):
		log.Warn().Msg("pexels api key not set, slides will have no images")
	case err != nil:
		return nil, fmt.Errorf("failed to create pexels client: %w", err)
	default:
		searcher = client
	}

	pexelsResolver := images.NewPexelsResolver(searcher, cfg.Images.Size)
	if !cfg.Images.CacheEnable || cfg.Redis.Addr == "" || searcher == nil {
		return pexelsResolver, nil
	}

	rc, err := cache.NewRedisCache(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		_ = rc.Close()
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, image cache disabled")
		return pexelsResolver, nil
	}

	a.redis = rc
	a.closers = append(a.closers, func() { _ = rc.Close() })
	log.Info().Str("addr", cfg.Redis.Addr).Msg("image cache enabled")

	return images.NewCachedResolver(pexelsResolver, rc, cfg.Images.Provider, cfg.Images.CacheTTL, cfg.Images.MissTTL), nil
}

// openMongo 连接 MongoDB 并建索引，uri 为空时跳过
func (a *app) openMongo(ctx context.Context) error {
	if a.cfg.Mongo.URI == "" {
		log.Info().Msg("mongo.uri not set, jobs are not persisted")
		return nil
	}

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongodb.New(connCtx, &a.cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect mongodb: %w", err)
	}
	a.closers = append(a.closers, func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		_ = client.Close(closeCtx)
	})

	if err := mongodb.EnsureIndexes(connCtx, client.Database()); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	a.mongo = client
	a.jobs = jobRepo.NewRepo(client.Database())
	return nil
}

// Close 按打开的逆序释放资源
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
