package remotion

import (
	"fmt"
	"strconv"
)

// Preset 渲染质量预设
type Preset string

const (
	PresetProduction Preset = "production"
	PresetFast       Preset = "fast"
	PresetPreview    Preset = "preview"
	PresetUltraFast  Preset = "ultra_fast"
)

type presetOptions struct {
	jpegQuality int
	scale       float64
	crf         int
}

var presets = map[Preset]presetOptions{
	PresetFast:      {jpegQuality: 50, scale: 0.8, crf: 28},
	PresetPreview:   {jpegQuality: 30, scale: 0.5, crf: 32},
	PresetUltraFast: {jpegQuality: 20, scale: 0.3, crf: 35},
}

// ParsePreset 解析预设名，空串视为 production
func ParsePreset(name string) (Preset, error) {
	p := Preset(name)
	if p == "" || p == PresetProduction {
		return PresetProduction, nil
	}
	if _, ok := presets[p]; !ok {
		return "", fmt.Errorf("unknown render preset: %s", name)
	}
	return p, nil
}

// Flags 预设对应的额外命令行参数；production 没有额外参数
func (p Preset) Flags() []string {
	opts, ok := presets[p]
	if !ok {
		return nil
	}
	return []string{
		"--jpeg-quality=" + strconv.Itoa(opts.jpegQuality),
		"--scale=" + strconv.FormatFloat(opts.scale, 'f', -1, 64),
		"--crf=" + strconv.Itoa(opts.crf),
	}
}
