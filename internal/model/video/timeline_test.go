package video

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"ytfactory/internal/pkg/errkind"
)

func TestTimeline_Validate(t *testing.T) {
	Convey("Timeline.Validate", t, func() {
		tl := &Timeline{
			FPS:              30,
			DurationInFrames: 150,
			Subtitles: []SubtitleEntry{
				{Text: "a", Start: 0.5, Duration: 3},
			},
		}

		Convey("合法时间线", func() {
			So(tl.Validate(), ShouldBeNil)
		})

		Convey("durationInFrames 为 0", func() {
			tl.DurationInFrames = 0
			So(errors.Is(tl.Validate(), errkind.ErrInvalidTimeline), ShouldBeTrue)
		})

		Convey("负的开始时间", func() {
			tl.Subtitles[0].Start = -1
			So(errors.Is(tl.Validate(), errkind.ErrInvalidTimeline), ShouldBeTrue)
		})

		Convey("时长为 0", func() {
			tl.Subtitles[0].Duration = 0
			So(errors.Is(tl.Validate(), errkind.ErrInvalidTimeline), ShouldBeTrue)
		})

		Convey("视频比内容短", func() {
			tl.DurationInFrames = 90
			So(errors.Is(tl.Validate(), errkind.ErrInvalidTimeline), ShouldBeTrue)
		})
	})
}

func TestLoadTimeline(t *testing.T) {
	Convey("LoadTimeline", t, func() {
		dir := t.TempDir()

		Convey("解析合法文件，空字幕数组保持非 nil", func() {
			path := filepath.Join(dir, "ok.json")
			So(os.WriteFile(path, []byte(`{"id":"x","composition":"AiVideo","fps":30,"durationInFrames":60,"audioUrl":null,"subtitles":[]}`), 0o644), ShouldBeNil)

			tl, err := LoadTimeline(path)
			So(err, ShouldBeNil)
			So(tl.Subtitles, ShouldNotBeNil)
			So(tl.HasAudio(), ShouldBeFalse)
		})

		Convey("缺省 fps / width / height 时补默认值", func() {
			path := filepath.Join(dir, "bare.json")
			body := `{"id":"job1","composition":"AiVideo","durationInFrames":150,"audioUrl":null,` +
				`"subtitles":[{"text":"Hello there.","start":0.5,"duration":3,"imageUrl":null}]}`
			So(os.WriteFile(path, []byte(body), 0o644), ShouldBeNil)

			tl, err := LoadTimeline(path)
			So(err, ShouldBeNil)
			So(tl.FPS, ShouldEqual, DefaultFPS)
			So(tl.Width, ShouldEqual, DefaultWidth)
			So(tl.Height, ShouldEqual, DefaultHeight)
		})

		Convey("缺省 fps 但 durationInFrames 为 0 仍然失败", func() {
			path := filepath.Join(dir, "zero.json")
			So(os.WriteFile(path, []byte(`{"id":"job1","durationInFrames":0,"subtitles":[]}`), 0o644), ShouldBeNil)

			_, err := LoadTimeline(path)
			So(errors.Is(err, errkind.ErrInvalidTimeline), ShouldBeTrue)
		})

		Convey("非法 JSON 返回 ErrInvalidTimeline", func() {
			path := filepath.Join(dir, "bad.json")
			So(os.WriteFile(path, []byte(`{not json`), 0o644), ShouldBeNil)

			_, err := LoadTimeline(path)
			So(errors.Is(err, errkind.ErrInvalidTimeline), ShouldBeTrue)
		})

		Convey("文件不存在返回 ErrInvalidTimeline", func() {
			_, err := LoadTimeline(filepath.Join(dir, "missing.json"))
			So(errors.Is(err, errkind.ErrInvalidTimeline), ShouldBeTrue)
		})
	})
}
