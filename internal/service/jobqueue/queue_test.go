package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"ytfactory/internal/model/job"
	"ytfactory/internal/service/pipeline"
)

type blockingRunner struct {
	mu      sync.Mutex
	running int
	maxSeen int
	ran     []string
	release chan struct{}
	started chan string
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{release: make(chan struct{}), started: make(chan string, 16)}
}

func (r *blockingRunner) RunJob(ctx context.Context, j *job.Job) (*pipeline.Result, error) {
	r.mu.Lock()
	r.running++
	if r.running > r.maxSeen {
		r.maxSeen = r.running
	}
	r.mu.Unlock()
	r.started <- j.ID

	select {
	case <-r.release:
	case <-ctx.Done():
	}

	r.mu.Lock()
	r.running--
	r.ran = append(r.ran, j.ID)
	r.mu.Unlock()
	if j.ID == "panic" {
		panic("boom")
	}
	return &pipeline.Result{JobID: j.ID}, nil
}

func waitStarted(t *testing.T, r *blockingRunner) string {
	t.Helper()
	select {
	case id := <-r.started:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("job did not start")
		return ""
	}
}

func TestQueue(t *testing.T) {
	Convey("Queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		runner := newBlockingRunner()

		Convey("未启动时拒绝提交", func() {
			q := New(runner, 1)
			So(errors.Is(q.Submit(&job.Job{ID: "a"}), ErrQueueClosed), ShouldBeTrue)
		})

		Convey("按顺序逐个执行", func() {
			q := New(runner, 4)
			q.Start(ctx)
			So(q.Submit(&job.Job{ID: "a"}), ShouldBeNil)
			So(q.Submit(&job.Job{ID: "b"}), ShouldBeNil)

			So(waitStarted(t, runner), ShouldEqual, "a")
			runner.release <- struct{}{}
			So(waitStarted(t, runner), ShouldEqual, "b")
			runner.release <- struct{}{}

			cancel()
			<-q.Done()
			So(runner.ran, ShouldResemble, []string{"a", "b"})
			So(runner.maxSeen, ShouldEqual, 1)
		})

		Convey("队列满时返回 ErrQueueFull", func() {
			q := New(runner, 1)
			q.Start(ctx)
			So(q.Submit(&job.Job{ID: "running"}), ShouldBeNil)
			waitStarted(t, runner)
			So(q.Submit(&job.Job{ID: "waiting"}), ShouldBeNil)
			So(errors.Is(q.Submit(&job.Job{ID: "overflow"}), ErrQueueFull), ShouldBeTrue)
			So(q.Pending(), ShouldEqual, 1)
		})

		Convey("任务 panic 后 worker 继续运行", func() {
			q := New(runner, 4)
			q.Start(ctx)
			So(q.Submit(&job.Job{ID: "panic"}), ShouldBeNil)
			So(q.Submit(&job.Job{ID: "next"}), ShouldBeNil)
			waitStarted(t, runner)
			runner.release <- struct{}{}
			So(waitStarted(t, runner), ShouldEqual, "next")
			runner.release <- struct{}{}
		})

		Convey("停止后拒绝提交", func() {
			q := New(runner, 1)
			q.Start(ctx)
			cancel()
			<-q.Done()
			So(errors.Is(q.Submit(&job.Job{ID: "late"}), ErrQueueClosed), ShouldBeTrue)
		})
	})
}
