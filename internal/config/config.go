package config

import (
	"errors"
	"fmt"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	AI       AIConfig       `mapstructure:"ai"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Images   ImagesConfig   `mapstructure:"images"`
	Render   RenderConfig   `mapstructure:"render"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Log      LogConfig      `mapstructure:"log"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	QueueSize    int           `mapstructure:"queue_size"` // 任务队列长度，满了返回 503
}

// AIConfig AI 服务配置
// provider: openai, azure, ark 走 eino；gemini 走 generative-ai-go
type AIConfig struct {
	Provider string          `mapstructure:"provider"`
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Timeout  time.Duration   `mapstructure:"timeout"` // 单次调用超时
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// SpeechConfig 语音合成配置
type SpeechConfig struct {
	Primary    string           `mapstructure:"primary"`  // elevenlabs / volcano
	Fallback   string           `mapstructure:"fallback"` // gtts
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Volcano    VolcanoConfig    `mapstructure:"volcano"`
	GTTS       GTTSConfig       `mapstructure:"gtts"`
}

// ElevenLabsConfig ElevenLabs TTS
type ElevenLabsConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	VoiceID         string        `mapstructure:"voice_id"`
	ModelID         string        `mapstructure:"model_id"`
	Stability       float64       `mapstructure:"stability"`
	SimilarityBoost float64       `mapstructure:"similarity_boost"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// VolcanoConfig 火山引擎 openspeech TTS
type VolcanoConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	AccessToken string        `mapstructure:"access_token"`
	AppID       string        `mapstructure:"app_id"`
	Cluster     string        `mapstructure:"cluster"`
	VoiceType   string        `mapstructure:"voice_type"`
	SampleRate  int           `mapstructure:"sample_rate"`
	SpeedRatio  float64       `mapstructure:"speed_ratio"`
	Language    string        `mapstructure:"language"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// GTTSConfig Google Translate TTS（兜底）
type GTTSConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Lang    string        `mapstructure:"lang"`
	Slow    bool          `mapstructure:"slow"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ImagesConfig 图片检索配置
type ImagesConfig struct {
	Provider    string        `mapstructure:"provider"` // pexels
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Size        string        `mapstructure:"size"` // src 尺寸: large / medium / original
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	MissTTL     time.Duration `mapstructure:"miss_ttl"`
	CacheEnable bool          `mapstructure:"cache_enable"`
}

// RenderConfig 渲染配置
type RenderConfig struct {
	NpxPath      string        `mapstructure:"npx_path"`
	FFmpegPath   string        `mapstructure:"ffmpeg_path"`
	FFprobePath  string        `mapstructure:"ffprobe_path"`
	RemotionRoot string        `mapstructure:"remotion_root"` // Remotion 工程目录（npx 的工作目录）
	EntryPoint   string        `mapstructure:"entry_point"`   // 相对 remotion_root 的入口
	Composition  string        `mapstructure:"composition"`
	OutputDir    string        `mapstructure:"output_dir"`
	TempDir      string        `mapstructure:"temp_dir"`
	FPS          int           `mapstructure:"fps"`
	Width        int           `mapstructure:"width"`
	Height       int           `mapstructure:"height"`
	Preset       string        `mapstructure:"preset"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MuxTimeout   time.Duration `mapstructure:"mux_timeout"`
	AudioBitrate string        `mapstructure:"audio_bitrate"`
}

// PipelineConfig 流水线配置
type PipelineConfig struct {
	PublicDir          string        `mapstructure:"public_dir"` // 音频等静态资源目录，audioUrl 相对它
	DataDir            string        `mapstructure:"data_dir"`   // 时间线 JSON 目录
	MetadataDir        string        `mapstructure:"metadata_dir"`
	SentencesPerMinute float64       `mapstructure:"sentences_per_minute"`
	ImageDelay         time.Duration `mapstructure:"image_delay"`
	MaxMinutes         float64       `mapstructure:"max_minutes"`
	FontSize           int           `mapstructure:"font_size"` // 质量检查用的字幕字号
}

// UploadConfig YouTube 上传配置
type UploadConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ClientID          string `mapstructure:"client_id"`
	ClientSecret      string `mapstructure:"client_secret"`
	RefreshToken      string `mapstructure:"refresh_token"`
	CategoryID        string `mapstructure:"category_id"`
	PrivacyStatus     string `mapstructure:"privacy_status"`
	DefaultLanguage   string `mapstructure:"default_language"`
	MadeForKids       bool   `mapstructure:"made_for_kids"`
	NotifySubscribers bool   `mapstructure:"notify_subscribers"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`   // 为空时 API 不鉴权
	TokenExpiry time.Duration `mapstructure:"token_expiry"` // token 命令签发的有效期
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // 为空表示不发布; local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 基础路径
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	Prefix          string `mapstructure:"prefix"`            // 对象前缀
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
}

var (
	validModes         = map[string]bool{"debug": true, "release": true, "test": true}
	validAIProviders   = map[string]bool{"": true, "openai": true, "azure": true, "ark": true, "gemini": true}
	validSpeech        = map[string]bool{"elevenlabs": true, "volcano": true, "gtts": true}
	validPresets       = map[string]bool{"": true, "production": true, "fast": true, "preview": true, "ultra_fast": true}
	validStorageTypes  = map[string]bool{"": true, "local": true, "oss": true}
	validPrivacyStatus = map[string]bool{"": true, "private": true, "unlisted": true, "public": true}
)

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if !validAIProviders[c.AI.Provider] {
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}
	if c.AI.Timeout < 0 {
		return errors.New("ai timeout must not be negative")
	}

	if !validSpeech[c.Speech.Primary] {
		return fmt.Errorf("unsupported primary speech provider: %s", c.Speech.Primary)
	}
	if c.Speech.Fallback != "" && !validSpeech[c.Speech.Fallback] {
		return fmt.Errorf("unsupported fallback speech provider: %s", c.Speech.Fallback)
	}

	if c.Render.FPS <= 0 || c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New("render fps/width/height must be positive")
	}
	if c.Render.Timeout <= 0 || c.Render.MuxTimeout <= 0 {
		return errors.New("render timeouts must be positive")
	}
	if !validPresets[c.Render.Preset] {
		return fmt.Errorf("unknown render preset: %s", c.Render.Preset)
	}

	if c.Pipeline.SentencesPerMinute <= 0 {
		return errors.New("pipeline sentences_per_minute must be positive")
	}
	if c.Pipeline.ImageDelay < 0 {
		return errors.New("pipeline image_delay must not be negative")
	}

	if !validStorageTypes[c.Storage.Type] {
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if !validPrivacyStatus[c.Upload.PrivacyStatus] {
		return fmt.Errorf("invalid upload privacy_status: %s", c.Upload.PrivacyStatus)
	}

	return nil
}
