package images

import (
	"context"
	"sync"
	"time"
)

// Throttle 保证相邻两次调用之间至少间隔 delay
// 第一次调用不等待
type Throttle struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time
	now   func() time.Time
}

// NewThrottle 创建节流器
func NewThrottle(delay time.Duration) *Throttle {
	return &Throttle{delay: delay, now: time.Now}
}

// Wait 等到可以发起下一次调用；ctx 取消时提前返回
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.last.IsZero() && t.delay > 0 {
		if remaining := t.delay - t.now().Sub(t.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	t.last = t.now()
	return nil
}
