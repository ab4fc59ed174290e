// Package pipeline 串行执行一次 topic → 视频 的全部阶段
package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ytfactory/internal/config"
	"ytfactory/internal/model/job"
	"ytfactory/internal/model/video"
	"ytfactory/internal/pkg/errkind"
	"ytfactory/internal/pkg/id"
	"ytfactory/internal/pkg/logger"
	"ytfactory/internal/pkg/remotion"
	"ytfactory/internal/pkg/speech"
	"ytfactory/internal/pkg/storage"
	"ytfactory/internal/pkg/youtube"
	"ytfactory/internal/service/images"
	"ytfactory/internal/service/render"
	"ytfactory/internal/service/script"
	"ytfactory/internal/service/timeline"
)

// ScriptGenerator 生成脚本，*script.Generator 实现了它
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, topic string, sentenceCount int) ([]video.ScriptSentence, error)
}

// Renderer 渲染时间线文件，*render.Orchestrator 实现了它
type Renderer interface {
	RenderVideo(ctx context.Context, timelinePath string, opts render.Options) (string, error)
}

// VideoUploader 上传成片，*youtube.Uploader 实现了它
type VideoUploader interface {
	Upload(ctx context.Context, videoPath string, meta *youtube.Metadata) (string, error)
}

// DurationProber 探测音频时长，*ffmpeg.Client 实现了它
type DurationProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Tracker 记录任务进度，*jobrepo.Repo 实现了它
type Tracker interface {
	Save(ctx context.Context, j *job.Job) error
}

// Dependencies 各阶段使用的组件
// Storage / Uploader / Prober / Tracker 可以为 nil，对应步骤会被跳过
type Dependencies struct {
	Generator ScriptGenerator
	Speech    speech.Provider
	Images    images.Resolver
	Throttle  *images.Throttle
	Renderer  Renderer
	Storage   storage.Storage
	Uploader  VideoUploader
	Prober    DurationProber
	Tracker   Tracker
}

// Result 一次运行的产物
type Result struct {
	JobID        string
	AudioPath    string
	TimelinePath string
	VideoPath    string
	VideoURL     string
	YouTubeID    string
	Warnings     []string
}

// Driver 流水线驱动
type Driver struct {
	deps   Dependencies
	cfg    *config.Config
	preset remotion.Preset
	now    func() time.Time
}

// NewDriver 创建流水线驱动
func NewDriver(cfg *config.Config, deps Dependencies) *Driver {
	if deps.Throttle == nil {
		deps.Throttle = images.NewThrottle(cfg.Pipeline.ImageDelay)
	}
	preset, err := remotion.ParsePreset(cfg.Render.Preset)
	if err != nil {
		preset = remotion.PresetProduction
	}
	return &Driver{
		deps:   deps,
		cfg:    cfg,
		preset: preset,
		now:    time.Now,
	}
}

// NewJob 为主题创建一条待运行的任务
func (d *Driver) NewJob(topic string, minutes float64) *job.Job {
	now := d.now()
	return &job.Job{
		ID:        id.JobID(topic, now),
		Topic:     strings.TrimSpace(topic),
		Minutes:   minutes,
		Status:    job.StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateInput 校验主题和时长
func (d *Driver) ValidateInput(topic string, minutes float64) error {
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("%w: topic is empty", errkind.ErrInvalidInput)
	}
	if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return fmt.Errorf("%w: length must be a positive number of minutes", errkind.ErrInvalidInput)
	}
	if limit := d.cfg.Pipeline.MaxMinutes; limit > 0 && minutes > limit {
		return fmt.Errorf("%w: length %.1f exceeds the limit of %.1f minutes", errkind.ErrInvalidInput, minutes, limit)
	}
	return nil
}

// Run 为主题生成视频
func (d *Driver) Run(ctx context.Context, topic string, minutes float64) (*Result, error) {
	if err := d.ValidateInput(topic, minutes); err != nil {
		return nil, err
	}
	return d.RunJob(ctx, d.NewJob(topic, minutes))
}

// RunJob 执行已创建的任务
// 任一阶段失败立即返回 *errkind.StageError，之后的阶段不再执行
func (d *Driver) RunJob(ctx context.Context, j *job.Job) (*Result, error) {
	if err := d.ValidateInput(j.Topic, j.Minutes); err != nil {
		d.finish(ctx, j, err)
		return nil, err
	}

	start := d.now()
	j.Status = job.StatusRunning
	d.track(ctx, j)

	log.Info().
		Str("job_id", j.ID).
		Str("topic", j.Topic).
		Float64("minutes", j.Minutes).
		Msg("pipeline started")

	res, err := d.run(ctx, j)
	d.finish(ctx, j, err)
	if err != nil {
		log.Error().Err(err).Str("job_id", j.ID).Str("stage", errkind.StageOf(err)).Msg("pipeline failed")
		return nil, err
	}

	log.Info().
		Str("job_id", j.ID).
		Str("video", res.VideoPath).
		Dur("elapsed", d.now().Sub(start)).
		Msg("pipeline finished")
	return res, nil
}

func (d *Driver) run(ctx context.Context, j *job.Job) (*Result, error) {
	res := &Result{JobID: j.ID}
	var (
		sentences []video.ScriptSentence
		items     []video.SentenceImage
		tl        *video.Timeline
		audioURL  string
	)

	err := d.stage(ctx, j, job.StageScript, func(l zerolog.Logger) error {
		n := script.SentenceCount(j.Minutes, d.cfg.Pipeline.SentencesPerMinute)
		var err error
		sentences, err = d.deps.Generator.GenerateScript(ctx, j.Topic, n)
		if err != nil {
			return err
		}
		l.Info().Int("sentences", len(sentences)).Msg("script ready")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.stage(ctx, j, job.StageSpeech, func(l zerolog.Logger) error {
		audioURL = "audio/" + j.ID + ".mp3"
		res.AudioPath = filepath.Join(d.cfg.Pipeline.PublicDir, filepath.FromSlash(audioURL))
		if err := d.deps.Speech.Synthesize(ctx, script.Narration(sentences), res.AudioPath); err != nil {
			return err
		}
		l.Info().Str("provider", d.deps.Speech.Name()).Str("audio", res.AudioPath).Msg("narration ready")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.stage(ctx, j, job.StageImages, func(l zerolog.Logger) error {
		var (
			found int
			err   error
		)
		items, found, err = d.resolveImages(ctx, sentences)
		if err != nil {
			return err
		}
		l.Info().Int("found", found).Int("total", len(items)).Msg("images resolved")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.stage(ctx, j, job.StageTimeline, func(l zerolog.Logger) error {
		tl = timeline.Build(j.ID, items, timeline.Options{
			Topic:       j.Topic,
			Composition: d.cfg.Render.Composition,
			FPS:         d.cfg.Render.FPS,
			Width:       d.cfg.Render.Width,
			Height:      d.cfg.Render.Height,
			AudioURL:    &audioURL,
		})

		report := timeline.CheckQuality(tl, d.cfg.Pipeline.FontSize)
		res.Warnings = append(res.Warnings, report.Warnings...)
		if w := d.checkAudioLength(ctx, res.AudioPath, tl); w != "" {
			res.Warnings = append(res.Warnings, w)
		}
		for _, w := range res.Warnings {
			l.Warn().Str("check", "quality").Msg(w)
		}
		j.Warnings = res.Warnings
		if !report.Passed {
			return fmt.Errorf("%w: %s", errkind.ErrInvalidTimeline, strings.Join(report.Errors, "; "))
		}
		l.Info().
			Int("subtitles", len(tl.Subtitles)).
			Int("frames", tl.DurationInFrames).
			Msg("timeline built")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.stage(ctx, j, job.StagePersist, func(l zerolog.Logger) error {
		res.TimelinePath = filepath.Join(d.cfg.Pipeline.DataDir, j.ID+".json")
		if err := WriteJSONAtomic(res.TimelinePath, tl); err != nil {
			return err
		}
		j.TimelinePath = res.TimelinePath
		l.Info().Str("path", res.TimelinePath).Msg("timeline saved")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = d.stage(ctx, j, job.StageRender, func(l zerolog.Logger) error {
		var err error
		res.VideoPath, err = d.deps.Renderer.RenderVideo(ctx, res.TimelinePath, render.Options{Preset: d.preset})
		if err != nil {
			return err
		}
		j.VideoPath = res.VideoPath
		return nil
	})
	if err != nil {
		return nil, err
	}

	if d.deps.Storage != nil {
		err = d.stage(ctx, j, job.StagePublish, func(l zerolog.Logger) error {
			var err error
			res.VideoURL, err = storage.UploadFile(ctx, d.deps.Storage, storage.JobKey(j.ID, res.VideoPath), res.VideoPath)
			if err != nil {
				return fmt.Errorf("publish video: %w", err)
			}
			if _, err := storage.UploadFile(ctx, d.deps.Storage, storage.JobKey(j.ID, res.TimelinePath), res.TimelinePath); err != nil {
				return fmt.Errorf("publish timeline: %w", err)
			}
			j.VideoURL = res.VideoURL
			l.Info().Str("storage", d.deps.Storage.GetStorageType()).Str("url", res.VideoURL).Msg("artifacts published")
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if d.deps.Uploader != nil {
		err = d.stage(ctx, j, job.StageUpload, func(l zerolog.Logger) error {
			meta := youtube.NewMetadata(j.Topic, sentences, &d.cfg.Upload)
			metaPath := filepath.Join(d.cfg.Pipeline.MetadataDir, j.ID+".json")
			if err := youtube.SaveMetadata(metaPath, meta); err != nil {
				return err
			}
			var err error
			res.YouTubeID, err = d.deps.Uploader.Upload(ctx, res.VideoPath, meta)
			if err != nil {
				return err
			}
			j.YouTubeID = res.YouTubeID
			l.Info().Str("video_id", res.YouTubeID).Str("metadata", metaPath).Msg("uploaded")
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

// resolveImages 逐句检索配图，相邻请求之间节流；空句不检索
func (d *Driver) resolveImages(ctx context.Context, sentences []video.ScriptSentence) ([]video.SentenceImage, int, error) {
	items := make([]video.SentenceImage, 0, len(sentences))
	found := 0
	for _, s := range sentences {
		item := video.SentenceImage{Text: s.Text}
		if strings.TrimSpace(s.Text) != "" {
			if err := d.deps.Throttle.Wait(ctx); err != nil {
				return nil, 0, err
			}
			item.ImageURL = d.deps.Images.ResolveImage(ctx, s.Keyword)
			if item.ImageURL != nil {
				found++
			}
		}
		items = append(items, item)
	}
	return items, found, nil
}

// checkAudioLength 旁白比视频长时返回警告，探测失败只记日志
func (d *Driver) checkAudioLength(ctx context.Context, audioPath string, tl *video.Timeline) string {
	if d.deps.Prober == nil || audioPath == "" {
		return ""
	}
	seconds, err := d.deps.Prober.ProbeDuration(ctx, audioPath)
	if err != nil {
		log.Debug().Err(err).Str("audio", audioPath).Msg("probe audio duration failed")
		return ""
	}
	videoSeconds := float64(tl.DurationInFrames) / float64(tl.FPS)
	if seconds > videoSeconds {
		return fmt.Sprintf("narration (%.1fs) is longer than the video (%.1fs) and will be cut", seconds, videoSeconds)
	}
	return ""
}

// stage 执行一个阶段并记录开始、成功、失败
func (d *Driver) stage(ctx context.Context, j *job.Job, stage job.Stage, fn func(l zerolog.Logger) error) error {
	if err := ctx.Err(); err != nil {
		return &errkind.StageError{Stage: string(stage), Err: err}
	}

	l := logger.Stage(j.ID, string(stage))
	j.Stage = stage
	j.Progress = stage.Progress()
	d.track(ctx, j)

	start := d.now()
	l.Info().Str("status", "start").Msg("stage started")
	if err := fn(l); err != nil {
		l.Error().Err(err).Str("status", "failure").Dur("elapsed", d.now().Sub(start)).Msg("stage failed")
		return &errkind.StageError{Stage: string(stage), Err: err}
	}
	l.Info().Str("status", "success").Dur("elapsed", d.now().Sub(start)).Msg("stage finished")
	return nil
}

func (d *Driver) finish(ctx context.Context, j *job.Job, err error) {
	now := d.now()
	j.FinishedAt = &now
	if err != nil {
		j.Status = job.StatusFailed
		j.Error = err.Error()
	} else {
		j.Status = job.StatusSucceeded
		j.Progress = 1
	}
	// 取消后仍要写入最终状态
	d.track(context.WithoutCancel(ctx), j)
}

// track 写入任务状态，失败只记日志
func (d *Driver) track(ctx context.Context, j *job.Job) {
	if d.deps.Tracker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := d.deps.Tracker.Save(ctx, j); err != nil {
		log.Warn().Err(err).Str("job_id", j.ID).Msg("save job status failed")
	}
}
