package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ytfactory",
	Short: "ytfactory - topic to narrated video pipeline",
	Long: `ytfactory turns a topic into a narrated video: an LLM writes the script,
a TTS service reads it, stock photos illustrate it, Remotion renders it and
ffmpeg mixes the narration in. Finished videos can be published and uploaded to YouTube.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 可选
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.ytfactory")
	}

	viper.SetEnvPrefix("YTF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindProviderEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// ai.api_key 未配置时读取所选 provider 的通用环境变量
	if cfg.AI.APIKey == "" {
		if name := config.AIKeyEnv(cfg.AI.Provider); name != "" {
			cfg.AI.APIKey = os.Getenv(name)
		}
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

// bindProviderEnv 各服务商通用的环境变量，YTF_ 前缀的变量优先
func bindProviderEnv() {
	bindings := map[string][]string{
		"ai.api_key":                {"YTF_AI_API_KEY"},
		"speech.elevenlabs.api_key": {"YTF_SPEECH_ELEVENLABS_API_KEY", "ELEVENLABS_API_KEY"},
		"speech.elevenlabs.voice_id": {
			"YTF_SPEECH_ELEVENLABS_VOICE_ID", "ELEVENLABS_VOICE_ID",
		},
		"speech.volcano.access_token": {"YTF_SPEECH_VOLCANO_ACCESS_TOKEN", "VOLCANO_TTS_ACCESS_TOKEN"},
		"speech.volcano.app_id":       {"YTF_SPEECH_VOLCANO_APP_ID", "VOLCANO_TTS_APP_ID"},
		"images.api_key":              {"YTF_IMAGES_API_KEY", "PEXELS_API_KEY"},
		"upload.client_id":            {"YTF_UPLOAD_CLIENT_ID", "YOUTUBE_CLIENT_ID"},
		"upload.client_secret":        {"YTF_UPLOAD_CLIENT_SECRET", "YOUTUBE_CLIENT_SECRET"},
		"upload.refresh_token":        {"YTF_UPLOAD_REFRESH_TOKEN", "YOUTUBE_REFRESH_TOKEN"},
		"upload.enabled":              {"YTF_UPLOAD_ENABLED", "ENABLE_AUTO_UPLOAD"},
		"render.ffmpeg_path":          {"YTF_RENDER_FFMPEG_PATH", "FFMPEG_PATH"},
		"render.ffprobe_path":         {"YTF_RENDER_FFPROBE_PATH", "FFPROBE_PATH"},
	}
	for key, envs := range bindings {
		_ = viper.BindEnv(append([]string{key}, envs...)...)
	}
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.queue_size", 16)

	// AI
	// 只设置了 GEMINI_API_KEY 时默认走 gemini；model 为空时用各 provider 的默认模型
	viper.SetDefault("ai.provider", config.DefaultAIProvider(os.LookupEnv))
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.timeout", "60s")
	viper.SetDefault("ai.options.temperature", 0.7)
	viper.SetDefault("ai.options.max_tokens", 4096)
	viper.SetDefault("ai.options.top_p", 1.0)

	// Speech
	viper.SetDefault("speech.primary", "elevenlabs")
	viper.SetDefault("speech.fallback", "gtts")
	viper.SetDefault("speech.elevenlabs.model_id", "eleven_monolingual_v1")
	viper.SetDefault("speech.elevenlabs.stability", 0.5)
	viper.SetDefault("speech.elevenlabs.similarity_boost", 0.75)
	viper.SetDefault("speech.elevenlabs.timeout", "120s")
	viper.SetDefault("speech.volcano.cluster", "volcano_tts")
	viper.SetDefault("speech.volcano.sample_rate", 24000)
	viper.SetDefault("speech.volcano.speed_ratio", 1.0)
	viper.SetDefault("speech.volcano.timeout", "60s")
	viper.SetDefault("speech.gtts.lang", "en")
	viper.SetDefault("speech.gtts.timeout", "30s")

	// Images
	viper.SetDefault("images.provider", "pexels")
	viper.SetDefault("images.size", "large")
	viper.SetDefault("images.timeout", "15s")
	viper.SetDefault("images.cache_enable", false)
	viper.SetDefault("images.cache_ttl", "24h")
	viper.SetDefault("images.miss_ttl", "10m")

	// Render
	viper.SetDefault("render.npx_path", "npx")
	viper.SetDefault("render.remotion_root", ".")
	viper.SetDefault("render.entry_point", "src/index.ts")
	viper.SetDefault("render.composition", "AiVideo")
	viper.SetDefault("render.output_dir", "out")
	viper.SetDefault("render.temp_dir", "tmp")
	viper.SetDefault("render.fps", 30)
	viper.SetDefault("render.width", 1920)
	viper.SetDefault("render.height", 1080)
	viper.SetDefault("render.preset", "production")
	viper.SetDefault("render.timeout", "10m")
	viper.SetDefault("render.mux_timeout", "5m")
	viper.SetDefault("render.audio_bitrate", "192k")

	// Pipeline
	viper.SetDefault("pipeline.public_dir", "public")
	viper.SetDefault("pipeline.data_dir", "data")
	viper.SetDefault("pipeline.metadata_dir", "metadata")
	viper.SetDefault("pipeline.sentences_per_minute", 12)
	viper.SetDefault("pipeline.image_delay", "1s")
	viper.SetDefault("pipeline.max_minutes", 30)
	viper.SetDefault("pipeline.font_size", 48)

	// Upload
	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.category_id", "22")
	viper.SetDefault("upload.privacy_status", "private")
	viper.SetDefault("upload.default_language", "en")

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB（uri 为空时不记录任务）
	viper.SetDefault("mongo.database", "ytfactory")
	viper.SetDefault("mongo.max_pool_size", 20)
	viper.SetDefault("mongo.min_pool_size", 1)

	// Redis（addr 为空时不缓存图片检索）
	viper.SetDefault("redis.db", 0)

	// Auth
	viper.SetDefault("auth.token_expiry", "720h")
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
