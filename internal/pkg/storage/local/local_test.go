package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStorage(t *testing.T) {
	Convey("LocalStorage", t, func() {
		ctx := context.Background()
		base := t.TempDir()
		s, err := NewLocalStorage(base, "http://localhost:8080/storage/")
		So(err, ShouldBeNil)

		Convey("上传后可以查到并返回 URL", func() {
			url, err := s.Upload(ctx, "jobs/abc/abc.mp4", strings.NewReader("video"), "video/mp4")
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://localhost:8080/storage/jobs/abc/abc.mp4")

			data, _ := os.ReadFile(filepath.Join(base, "jobs", "abc", "abc.mp4"))
			So(string(data), ShouldEqual, "video")

			ok, err := s.Exists(ctx, "jobs/abc/abc.mp4")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			parts, _ := filepath.Glob(filepath.Join(base, "jobs", "abc", "*.part"))
			So(parts, ShouldBeEmpty)

			signed, err := s.GetPresignedDownloadURL(ctx, "jobs/abc/abc.mp4", time.Hour)
			So(err, ShouldBeNil)
			So(signed, ShouldEqual, url)
		})

		Convey("删除后不存在，重复删除不报错", func() {
			_, err := s.Upload(ctx, "a.json", strings.NewReader("{}"), "application/json")
			So(err, ShouldBeNil)
			So(s.Delete(ctx, "a.json"), ShouldBeNil)
			So(s.Delete(ctx, "a.json"), ShouldBeNil)
			ok, _ := s.Exists(ctx, "a.json")
			So(ok, ShouldBeFalse)
		})

		Convey("拒绝跳出根目录的 key", func() {
			_, err := s.Upload(ctx, "../escape.txt", strings.NewReader("x"), "text/plain")
			So(err, ShouldNotBeNil)
			_, err = s.Exists(ctx, "../../etc/passwd")
			So(err, ShouldNotBeNil)
		})

		Convey("存储类型", func() {
			So(s.GetStorageType(), ShouldEqual, "local")
		})
	})
}
