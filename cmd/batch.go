package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ytfactory/internal/service/render"
)

var batchCmd = &cobra.Command{
	Use:   "batch <timeline.json>...",
	Short: "Render several timelines one after another",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("preset", "", "render preset (production/fast/preview/ultra_fast)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	preset, err := presetFlag(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report := newRenderApp(cfg).renderer.RenderBatch(ctx, args, render.Options{Preset: preset})

	out := cmd.OutOrStdout()
	for _, it := range report.Items {
		if it.Err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", it.TimelinePath, it.Err)
			continue
		}
		fmt.Fprintf(out, "OK   %s -> %s (%s)\n", it.TimelinePath, it.VideoPath, it.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintf(out, "\n%d succeeded, %d failed, total %s\n", report.Succeeded(), report.Failed(), report.Elapsed.Round(time.Millisecond))

	if report.Failed() > 0 {
		return fmt.Errorf("%d of %d renders failed", report.Failed(), len(report.Items))
	}
	return nil
}
