package config

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "release"},
		AI:     AIConfig{Provider: "openai"},
		Speech: SpeechConfig{Primary: "elevenlabs", Fallback: "gtts"},
		Render: RenderConfig{
			FPS:        30,
			Width:      1920,
			Height:     1080,
			Preset:     "production",
			Timeout:    10 * time.Minute,
			MuxTimeout: 5 * time.Minute,
		},
		Pipeline: PipelineConfig{SentencesPerMinute: 12, ImageDelay: time.Second},
	}
}

func TestConfig_Validate(t *testing.T) {
	Convey("Config.Validate", t, func() {
		Convey("默认配置合法", func() {
			So(validConfig().Validate(), ShouldBeNil)
		})

		Convey("非法端口", func() {
			cfg := validConfig()
			cfg.Server.Port = 70000
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("非法模式", func() {
			cfg := validConfig()
			cfg.Server.Mode = "prod"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知 AI provider", func() {
			cfg := validConfig()
			cfg.AI.Provider = "anthropic"
			So(cfg.Validate().Error(), ShouldContainSubstring, "anthropic")
		})

		Convey("gemini provider 合法", func() {
			cfg := validConfig()
			cfg.AI.Provider = "gemini"
			So(cfg.Validate(), ShouldBeNil)
		})

		Convey("未知语音 provider", func() {
			cfg := validConfig()
			cfg.Speech.Fallback = "espeak"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("fps 为 0", func() {
			cfg := validConfig()
			cfg.Render.FPS = 0
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知 preset", func() {
			cfg := validConfig()
			cfg.Render.Preset = "turbo"
			So(cfg.Validate().Error(), ShouldContainSubstring, "turbo")
		})

		Convey("负的图片间隔", func() {
			cfg := validConfig()
			cfg.Pipeline.ImageDelay = -time.Second
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("未知存储类型", func() {
			cfg := validConfig()
			cfg.Storage.Type = "s3"
			So(cfg.Validate(), ShouldNotBeNil)
		})

		Convey("非法隐私状态", func() {
			cfg := validConfig()
			cfg.Upload.PrivacyStatus = "secret"
			So(cfg.Validate(), ShouldNotBeNil)
		})
	})
}
