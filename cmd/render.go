package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ytfactory/internal/pkg/remotion"
	"ytfactory/internal/service/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <timeline.json>",
	Short: "Render a persisted timeline into a video",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	flags := renderCmd.Flags()
	flags.String("preset", "", "render preset (production/fast/preview/ultra_fast)")
	flags.StringP("output", "o", "", "output video path (default: <render.output_dir>/<id>.mp4)")
}

// presetFlag --preset 为空时使用配置里的 render.preset
func presetFlag(cmd *cobra.Command) (remotion.Preset, error) {
	name, _ := cmd.Flags().GetString("preset")
	if name == "" {
		name = GetConfig().Render.Preset
	}
	return remotion.ParsePreset(name)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	preset, err := presetFlag(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newRenderApp(cfg)
	final, err := a.renderer.RenderVideo(ctx, args[0], render.Options{Preset: preset, OutputPath: output})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), final)
	return nil
}
