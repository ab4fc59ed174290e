package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ytfactory/internal/handler"
	"ytfactory/internal/server"
	"ytfactory/internal/service/jobqueue"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the job API server",
	Long:  `Start the HTTP API. Submitted jobs are queued and run one at a time.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()

	// Server flags
	flags.StringP("host", "H", "0.0.0.0", "server host")
	flags.IntP("port", "p", 8080, "server port")
	flags.String("mode", "release", "server mode (debug/release/test)")
	flags.Int("queue-size", 16, "max queued jobs before rejecting with 503")

	// AI flags
	flags.String("ai-provider", "", "AI provider (openai/azure/ark/gemini)")
	flags.String("ai-model", "", "AI model name (default: provider default)")
	flags.String("ai-api-key", "", "AI API key (recommend using env: YTF_AI_API_KEY)")

	// Log flags
	flags.String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")
	flags.String("log-format", "console", "log format (json/console)")

	// Bind flags to viper
	_ = viper.BindPFlag("server.host", flags.Lookup("host"))
	_ = viper.BindPFlag("server.port", flags.Lookup("port"))
	_ = viper.BindPFlag("server.mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("server.queue_size", flags.Lookup("queue-size"))
	_ = viper.BindPFlag("ai.provider", flags.Lookup("ai-provider"))
	_ = viper.BindPFlag("ai.model", flags.Lookup("ai-model"))
	_ = viper.BindPFlag("ai.api_key", flags.Lookup("ai-api-key"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{track: true})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := server.Options{Pingers: map[string]handler.Pinger{}}
	if a.redis != nil {
		opts.Pingers["redis"] = a.redis
	}

	if a.jobs != nil {
		queue := jobqueue.New(a.driver, cfg.Server.QueueSize)
		queue.Start(ctx)
		defer func() {
			stop()
			<-queue.Done()
		}()

		opts.Jobs = a.jobs
		opts.Factory = a.driver
		opts.Queue = queue
		opts.Pingers["mongo"] = a.mongo
	}

	srv := server.New(cfg, opts)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("mode", cfg.Server.Mode).
		Msg("starting server")

	return srv.Run(ctx, addr)
}
