// Package youtube 通过 YouTube Data API v3 上传成片
package youtube

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/errkind"
)

// Uploader YouTube 上传客户端
type Uploader struct {
	svc *yt.Service
	cfg *config.UploadConfig
}

// NewUploader 用 refresh token 创建上传客户端
// client_id / client_secret / refresh_token 缺一返回 ErrMissingCredentials
func NewUploader(ctx context.Context, cfg *config.UploadConfig) (*Uploader, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("%w: youtube client_id, client_secret and refresh_token are required", errkind.ErrMissingCredentials)
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{yt.YoutubeUploadScope, yt.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour), // 强制刷新
	}

	return newUploader(ctx, cfg, conf.Client(ctx, token))
}

func newUploader(ctx context.Context, cfg *config.UploadConfig, httpClient *http.Client, opts ...option.ClientOption) (*Uploader, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Uploader{svc: svc, cfg: cfg}, nil
}

// Upload 上传视频，返回 YouTube 视频 ID
func (u *Uploader) Upload(ctx context.Context, videoPath string, meta *Metadata) (string, error) {
	if err := meta.Validate(); err != nil {
		return "", err
	}

	f, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	status := &yt.VideoStatus{
		PrivacyStatus:           meta.PrivacyStatus,
		SelfDeclaredMadeForKids: u.cfg.MadeForKids,
	}
	// 定时发布必须先设为 private
	if meta.PublishAt != "" {
		status.PrivacyStatus = "private"
		status.PublishAt = meta.PublishAt
	}

	v := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      u.cfg.DefaultLanguage,
			DefaultAudioLanguage: u.cfg.DefaultLanguage,
		},
		Status: status,
	}

	if fi, err := f.Stat(); err == nil {
		log.Info().
			Str("title", meta.Title).
			Int64("size", fi.Size()).
			Str("privacy", status.PrivacyStatus).
			Msg("youtube upload started")
	}

	uploaded, err := u.svc.Videos.Insert([]string{"snippet", "status"}, v).
		NotifySubscribers(u.cfg.NotifySubscribers).
		Media(f).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}

	log.Info().
		Str("video_id", uploaded.Id).
		Str("url", WatchURL(uploaded.Id)).
		Msg("youtube upload finished")

	if meta.ThumbnailPath != "" {
		if err := u.setThumbnail(ctx, uploaded.Id, meta.ThumbnailPath); err != nil {
			log.Warn().Err(err).Str("video_id", uploaded.Id).Msg("set thumbnail failed")
		}
	}
	return uploaded.Id, nil
}

func (u *Uploader) setThumbnail(ctx context.Context, videoID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = u.svc.Thumbnails.Set(videoID).Media(f).Context(ctx).Do()
	return err
}

// WatchURL 视频观看地址
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
