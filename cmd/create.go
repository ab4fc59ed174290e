package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ytfactory/internal/pkg/errkind"
)

var createCmd = &cobra.Command{
	Use:   "create <topic>",
	Short: "Generate a narrated video for a topic",
	Long: `Run the whole pipeline for one topic: script, speech, images, timeline,
render, and optionally publish to storage and upload to YouTube.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	flags := createCmd.Flags()
	flags.Float64P("length", "l", 1, "target video length in minutes")
	flags.String("preset", "", "render preset (production/fast/preview/ultra_fast)")
	flags.Bool("upload", false, "upload the finished video to YouTube")

	_ = viper.BindPFlag("render.preset", flags.Lookup("preset"))
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	topic := strings.TrimSpace(strings.Join(args, " "))
	minutes, _ := cmd.Flags().GetFloat64("length")

	if upload, _ := cmd.Flags().GetBool("upload"); upload {
		cfg.Upload.Enabled = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{track: true})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.driver.ValidateInput(topic, minutes); err != nil {
		return err
	}

	log.Info().Str("topic", topic).Float64("minutes", minutes).Msg("creating video")

	res, err := a.driver.Run(ctx, topic, minutes)
	if err != nil {
		if stage := errkind.StageOf(err); stage != "" {
			fmt.Fprintf(os.Stderr, "Pipeline failed at stage %q: %v\n", stage, err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job:      %s\n", res.JobID)
	fmt.Fprintf(out, "Audio:    %s\n", res.AudioPath)
	fmt.Fprintf(out, "Timeline: %s\n", res.TimelinePath)
	fmt.Fprintf(out, "Video:    %s\n", res.VideoPath)
	if res.VideoURL != "" {
		fmt.Fprintf(out, "URL:      %s\n", res.VideoURL)
	}
	if res.YouTubeID != "" {
		fmt.Fprintf(out, "YouTube:  %s\n", res.YouTubeID)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "Warning:  %s\n", w)
	}
	return nil
}
