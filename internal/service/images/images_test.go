package images

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"ytfactory/internal/pkg/cache"
	"ytfactory/internal/pkg/errkind"
	"ytfactory/internal/pkg/pexels"
)

type fakeSearcher struct {
	photos []pexels.Photo
	err    error
	calls  []string
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) (*pexels.SearchResponse, error) {
	f.calls = append(f.calls, query)
	if f.err != nil {
		return nil, f.err
	}
	return &pexels.SearchResponse{Photos: f.photos}, nil
}

type memStore struct {
	mu      sync.Mutex
	data    map[string]cachedImage
	ttls    map[string]time.Duration
	failGet bool
	failSet bool
}

func newMemStore() *memStore {
	return &memStore{data: map[string]cachedImage{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string, dest any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	*(dest.(*cachedImage)) = v
	return nil
}

func (m *memStore) Set(_ context.Context, key string, value any, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("connection refused")
	}
	m.data[key] = value.(cachedImage)
	m.ttls[key] = expiration
	return nil
}

type countingResolver struct {
	url   *string
	err   error
	calls int
}

func (c *countingResolver) Lookup(context.Context, string) (*string, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.url, nil
}

func strPtr(s string) *string { return &s }

func TestPexelsResolver(t *testing.T) {
	Convey("PexelsResolver", t, func() {
		ctx := context.Background()
		photo := pexels.Photo{ID: 1, Src: pexels.Src{Large: "https://img/large.jpg", Original: "https://img/orig.jpg"}}

		Convey("返回第一张图的指定尺寸", func() {
			s := &fakeSearcher{photos: []pexels.Photo{photo}}
			u := NewPexelsResolver(s, "large").ResolveImage(ctx, "coffee beans")
			So(u, ShouldNotBeNil)
			So(*u, ShouldEqual, "https://img/large.jpg")
			So(s.calls, ShouldResemble, []string{"coffee beans"})
		})

		Convey("空关键词不发请求", func() {
			s := &fakeSearcher{photos: []pexels.Photo{photo}}
			So(NewPexelsResolver(s, "large").ResolveImage(ctx, "   "), ShouldBeNil)
			So(s.calls, ShouldBeEmpty)
		})

		Convey("搜索失败返回 nil", func() {
			s := &fakeSearcher{err: errors.New("status 429")}
			So(NewPexelsResolver(s, "large").ResolveImage(ctx, "coffee"), ShouldBeNil)
		})

		Convey("没有结果返回 nil", func() {
			s := &fakeSearcher{}
			So(NewPexelsResolver(s, "large").ResolveImage(ctx, "coffee"), ShouldBeNil)
		})

		Convey("未配置 searcher 返回 nil", func() {
			So(NewPexelsResolver(nil, "large").ResolveImage(ctx, "coffee"), ShouldBeNil)
		})

		Convey("Lookup 区分没有结果和上游错误", func() {
			u, err := NewPexelsResolver(&fakeSearcher{}, "large").Lookup(ctx, "coffee")
			So(u, ShouldBeNil)
			So(err, ShouldBeNil)

			u, err = NewPexelsResolver(&fakeSearcher{err: errors.New("status 429")}, "large").Lookup(ctx, "coffee")
			So(u, ShouldBeNil)
			So(err, ShouldNotBeNil)

			_, err = NewPexelsResolver(nil, "large").Lookup(ctx, "coffee")
			So(errors.Is(err, errkind.ErrMissingCredentials), ShouldBeTrue)
		})
	})
}

func TestCachedResolver(t *testing.T) {
	Convey("CachedResolver", t, func() {
		ctx := context.Background()
		store := newMemStore()

		Convey("命中后不再访问上游", func() {
			inner := &countingResolver{url: strPtr("https://img/a.jpg")}
			r := NewCachedResolver(inner, store, "pexels", time.Hour, time.Minute)

			first := r.ResolveImage(ctx, "Coffee")
			second := r.ResolveImage(ctx, "  coffee ")
			So(*first, ShouldEqual, "https://img/a.jpg")
			So(*second, ShouldEqual, "https://img/a.jpg")
			So(inner.calls, ShouldEqual, 1)
			So(store.ttls[cache.ImageCacheKey("pexels", "coffee")], ShouldEqual, time.Hour)
		})

		Convey("未命中结果用短 TTL 缓存", func() {
			inner := &countingResolver{}
			r := NewCachedResolver(inner, store, "pexels", time.Hour, time.Minute)

			So(r.ResolveImage(ctx, "nothing"), ShouldBeNil)
			So(r.ResolveImage(ctx, "nothing"), ShouldBeNil)
			So(inner.calls, ShouldEqual, 1)
			So(store.ttls[cache.ImageCacheKey("pexels", "nothing")], ShouldEqual, time.Minute)
		})

		Convey("上游出错不缓存，恢复后能取到图", func() {
			inner := &countingResolver{err: errors.New("status 429: too many requests")}
			r := NewCachedResolver(inner, store, "pexels", time.Hour, time.Minute)

			So(r.ResolveImage(ctx, "coffee"), ShouldBeNil)
			_, cached := store.data[cache.ImageCacheKey("pexels", "coffee")]
			So(cached, ShouldBeFalse)

			inner.err = nil
			inner.url = strPtr("https://img/a.jpg")
			second := r.ResolveImage(ctx, "coffee")
			So(second, ShouldNotBeNil)
			So(*second, ShouldEqual, "https://img/a.jpg")
			So(inner.calls, ShouldEqual, 2)
		})

		Convey("包装 PexelsResolver 时搜索失败不写缓存", func() {
			s := &fakeSearcher{err: errors.New("connection reset")}
			r := NewCachedResolver(NewPexelsResolver(s, "large"), store, "pexels", time.Hour, time.Minute)

			So(r.ResolveImage(ctx, "tea"), ShouldBeNil)
			So(store.data, ShouldBeEmpty)
		})

		Convey("缓存故障时直接走上游", func() {
			store.failGet = true
			store.failSet = true
			inner := &countingResolver{url: strPtr("https://img/b.jpg")}
			r := NewCachedResolver(inner, store, "pexels", 0, 0)

			So(*r.ResolveImage(ctx, "tea"), ShouldEqual, "https://img/b.jpg")
			So(*r.ResolveImage(ctx, "tea"), ShouldEqual, "https://img/b.jpg")
			So(inner.calls, ShouldEqual, 2)
		})

		Convey("空关键词直接返回 nil", func() {
			inner := &countingResolver{url: strPtr("x")}
			r := NewCachedResolver(inner, store, "pexels", 0, 0)
			So(r.ResolveImage(ctx, ""), ShouldBeNil)
			So(inner.calls, ShouldEqual, 0)
		})
	})
}

func TestThrottle(t *testing.T) {
	Convey("Throttle", t, func() {
		Convey("第一次调用不等待", func() {
			th := NewThrottle(time.Hour)
			start := time.Now()
			So(th.Wait(context.Background()), ShouldBeNil)
			So(time.Since(start), ShouldBeLessThan, 100*time.Millisecond)
		})

		Convey("相邻调用之间保持间隔", func() {
			th := NewThrottle(50 * time.Millisecond)
			So(th.Wait(context.Background()), ShouldBeNil)
			start := time.Now()
			So(th.Wait(context.Background()), ShouldBeNil)
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 40*time.Millisecond)
		})

		Convey("ctx 取消时提前返回", func() {
			th := NewThrottle(time.Hour)
			So(th.Wait(context.Background()), ShouldBeNil)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			So(th.Wait(ctx), ShouldEqual, context.Canceled)
		})

		Convey("间隔为 0 时不等待", func() {
			th := NewThrottle(0)
			So(th.Wait(context.Background()), ShouldBeNil)
			So(th.Wait(context.Background()), ShouldBeNil)
		})
	})
}
