package logger

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ytfactory/internal/config"
)

// Init 初始化全局日志
func Init(cfg *config.LogConfig) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch cfg.TimeFormat {
	case "Unix":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	case "UnixMs":
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	default:
		zerolog.TimeFieldFormat = time.RFC3339
	}

	var output io.Writer = os.Stdout
	switch cfg.Output {
	case "file":
		if cfg.FilePath != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
				return err
			}
			file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
			if err != nil {
				return err
			}
			output = file
		}
	case "stderr":
		output = os.Stderr
	}

	// Console 格式 (开发环境友好)
	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
			NoColor:    cfg.Output == "file",
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()

	return nil
}

// Stage 返回带阶段字段的子 logger
func Stage(jobID, stage string) zerolog.Logger {
	return log.With().Str("job_id", jobID).Str("stage", stage).Logger()
}
