package render

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// BatchItem 批量渲染中单个时间线的结果
type BatchItem struct {
	TimelinePath string
	VideoPath    string
	Elapsed      time.Duration
	Err          error
}

// BatchReport 批量渲染汇总
type BatchReport struct {
	Items   []BatchItem
	Elapsed time.Duration
}

// Succeeded 成功数量
func (r *BatchReport) Succeeded() int {
	n := 0
	for _, it := range r.Items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

// Failed 失败数量
func (r *BatchReport) Failed() int {
	return len(r.Items) - r.Succeeded()
}

// RenderBatch 依次渲染多个时间线，单个失败不影响后续
// ctx 取消后剩余条目直接记为失败
func (o *Orchestrator) RenderBatch(ctx context.Context, timelinePaths []string, opts Options) *BatchReport {
	start := time.Now()
	report := &BatchReport{Items: make([]BatchItem, 0, len(timelinePaths))}

	// 输出路径只对单个文件有意义
	opts.OutputPath = ""
	for i, path := range timelinePaths {
		item := BatchItem{TimelinePath: path}
		if err := ctx.Err(); err != nil {
			item.Err = err
			report.Items = append(report.Items, item)
			continue
		}

		log.Info().Int("index", i+1).Int("total", len(timelinePaths)).Str("timeline", path).Msg("batch render start")
		itemStart := time.Now()
		item.VideoPath, item.Err = o.RenderVideo(ctx, path, opts)
		item.Elapsed = time.Since(itemStart)

		if item.Err != nil {
			log.Error().Err(item.Err).Str("timeline", path).Msg("batch render failed")
		} else {
			log.Info().Str("timeline", path).Str("output", item.VideoPath).Dur("elapsed", item.Elapsed).Msg("batch render done")
		}
		report.Items = append(report.Items, item)
	}

	report.Elapsed = time.Since(start)
	return report
}
