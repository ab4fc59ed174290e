// Package jobqueue 单 worker 的任务队列，保证同一时间只运行一个任务
package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"ytfactory/internal/model/job"
	"ytfactory/internal/service/pipeline"
)

const DefaultSize = 16

var (
	// ErrQueueFull 队列已满
	ErrQueueFull = errors.New("job queue is full")
	// ErrQueueClosed 队列已停止
	ErrQueueClosed = errors.New("job queue is closed")
)

// Runner 执行任务，*pipeline.Driver 实现了它
type Runner interface {
	RunJob(ctx context.Context, j *job.Job) (*pipeline.Result, error)
}

// Queue 带缓冲的任务队列
type Queue struct {
	runner Runner
	jobs   chan *job.Job

	mu      sync.Mutex
	ctx     context.Context
	started bool
	done    chan struct{}
}

// New 创建任务队列，size <= 0 时使用默认长度
func New(runner Runner, size int) *Queue {
	if size <= 0 {
		size = DefaultSize
	}
	return &Queue{
		runner: runner,
		jobs:   make(chan *job.Job, size),
		done:   make(chan struct{}),
	}
}

// Start 启动 worker，ctx 取消后 worker 退出，正在运行的任务也会收到取消
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	q.ctx = ctx
	go q.work(ctx)
}

// Submit 入队，队列满时返回 ErrQueueFull
func (q *Queue) Submit(j *job.Job) error {
	q.mu.Lock()
	ctx := q.ctx
	q.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- j:
		log.Info().Str("job_id", j.ID).Int("pending", len(q.jobs)).Msg("job queued")
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending 等待中的任务数
func (q *Queue) Pending() int {
	return len(q.jobs)
}

// Done worker 退出后关闭
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) work(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("dropped", len(q.jobs)).Msg("job worker stopped")
			return
		case j := <-q.jobs:
			q.run(ctx, j)
		}
	}
}

func (q *Queue) run(ctx context.Context, j *job.Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("job_id", j.ID).Interface("panic", r).Msg("job panicked")
		}
	}()

	if _, err := q.runner.RunJob(ctx, j); err != nil {
		// 失败已由 Driver 记录到任务上
		log.Debug().Err(fmt.Errorf("job %s: %w", j.ID, err)).Msg("job finished with error")
	}
}
