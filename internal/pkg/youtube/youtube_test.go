package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"google.golang.org/api/option"

	"ytfactory/internal/config"
	"ytfactory/internal/model/video"
	"ytfactory/internal/pkg/errkind"
)

func TestNewMetadata(t *testing.T) {
	Convey("NewMetadata", t, func() {
		sentences := []video.ScriptSentence{
			{Text: "Coffee began in Ethiopia.", Keyword: "Ethiopia highlands"},
			{Text: "Monks used it to stay awake.", Keyword: "monks"},
			{Text: "  ", Keyword: "ethiopia highlands"},
			{Text: "Trade spread it worldwide.", Keyword: "trade ships"},
			{Text: "Today it is everywhere.", Keyword: ""},
		}

		Convey("默认分类和隐私状态", func() {
			m := NewMetadata("  History of Coffee ", sentences, &config.UploadConfig{})
			So(m.Title, ShouldEqual, "History of Coffee")
			So(m.CategoryID, ShouldEqual, "22")
			So(m.PrivacyStatus, ShouldEqual, "private")
			So(m.Description, ShouldEqual, "Coffee began in Ethiopia. Monks used it to stay awake. Trade spread it worldwide.")
			So(m.Tags, ShouldResemble, []string{"ethiopia highlands", "monks", "trade ships"})
		})

		Convey("配置覆盖默认值", func() {
			m := NewMetadata("x", nil, &config.UploadConfig{CategoryID: "27", PrivacyStatus: "unlisted"})
			So(m.CategoryID, ShouldEqual, "27")
			So(m.PrivacyStatus, ShouldEqual, "unlisted")
			So(m.Tags, ShouldBeEmpty)
		})

		Convey("标题截断到 100 字符", func() {
			m := NewMetadata(strings.Repeat("a", 150), nil, &config.UploadConfig{})
			So(len(m.Title), ShouldEqual, 100)
		})
	})
}

func TestMetadataFile(t *testing.T) {
	Convey("SaveMetadata / LoadMetadata", t, func() {
		path := filepath.Join(t.TempDir(), "meta", "job.json")

		Convey("写入后读回", func() {
			m := &Metadata{Title: "Coffee", Tags: []string{"coffee"}}
			So(SaveMetadata(path, m), ShouldBeNil)
			loaded, err := LoadMetadata(path)
			So(err, ShouldBeNil)
			So(loaded.Title, ShouldEqual, "Coffee")
			So(loaded.CategoryID, ShouldEqual, DefaultCategoryID)
			So(loaded.PrivacyStatus, ShouldEqual, DefaultPrivacyStatus)
		})

		Convey("空标题", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte(`{"title":" "}`), 0o644), ShouldBeNil)
			_, err := LoadMetadata(path)
			So(err, ShouldNotBeNil)
		})

		Convey("非法隐私状态", func() {
			So(os.MkdirAll(filepath.Dir(path), 0o755), ShouldBeNil)
			So(os.WriteFile(path, []byte(`{"title":"a","privacyStatus":"secret"}`), 0o644), ShouldBeNil)
			_, err := LoadMetadata(path)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestNewUploader_MissingCredentials(t *testing.T) {
	_, err := NewUploader(context.Background(), &config.UploadConfig{ClientID: "id"})
	if !errors.Is(err, errkind.ErrMissingCredentials) {
		t.Fatalf("err = %v, want ErrMissingCredentials", err)
	}
}

func TestUploader_Upload(t *testing.T) {
	Convey("Uploader.Upload", t, func() {
		var mu sync.Mutex
		var paths []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			paths = append(paths, r.URL.Path)
			mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"vid123"}`))
		}))
		defer srv.Close()

		u, err := newUploader(context.Background(), &config.UploadConfig{}, srv.Client(), option.WithEndpoint(srv.URL+"/"))
		So(err, ShouldBeNil)

		videoPath := filepath.Join(t.TempDir(), "final.mp4")
		So(os.WriteFile(videoPath, []byte("mp4"), 0o644), ShouldBeNil)

		Convey("返回视频 ID", func() {
			id, err := u.Upload(context.Background(), videoPath, &Metadata{Title: "Coffee", PrivacyStatus: "private"})
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "vid123")
			So(len(paths), ShouldBeGreaterThan, 0)
		})

		Convey("文件不存在", func() {
			_, err := u.Upload(context.Background(), filepath.Join(t.TempDir(), "none.mp4"), &Metadata{Title: "Coffee", PrivacyStatus: "private"})
			So(err, ShouldNotBeNil)
		})

		Convey("元数据不合法时不发请求", func() {
			_, err := u.Upload(context.Background(), videoPath, &Metadata{PrivacyStatus: "private"})
			So(err, ShouldNotBeNil)
			So(paths, ShouldBeEmpty)
		})
	})
}

func TestWatchURL(t *testing.T) {
	if got := WatchURL("abc"); got != "https://www.youtube.com/watch?v=abc" {
		t.Errorf("WatchURL() = %s", got)
	}
}
