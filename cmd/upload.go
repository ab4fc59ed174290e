package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ytfactory/internal/pkg/youtube"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <video.mp4> <metadata.json>",
	Short: "Upload a rendered video to YouTube",
	Args:  cobra.ExactArgs(2),
	RunE:  runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	videoPath, metaPath := args[0], args[1]

	meta, err := youtube.LoadMetadata(metaPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader, err := youtube.NewUploader(ctx, &cfg.Upload)
	if err != nil {
		return err
	}

	log.Info().Str("video", videoPath).Str("title", meta.Title).Msg("uploading video")
	videoID, err := uploader.Upload(ctx, videoPath, meta)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), youtube.WatchURL(videoID))
	return nil
}
