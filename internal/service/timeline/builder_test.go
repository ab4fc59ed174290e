package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"ytfactory/internal/model/video"
)

func strPtr(s string) *string { return &s }

func sentences(texts ...string) []video.SentenceImage {
	items := make([]video.SentenceImage, len(texts))
	for i, t := range texts {
		items[i] = video.SentenceImage{Text: t}
	}
	return items
}

func TestDuration(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"One", 3.0},
		{"one two three four five six seven", 3.0},
		{"one two three four five six seven eight", 3.2},
		{strings.Repeat("w ", 10), 4.0},
		{"  spaced   out\twords\n", 3.0},
	}

	for _, tt := range tests {
		if got := Duration(tt.text); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Duration(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	Convey("Build 生成时间线", t, func() {
		Convey("字幕首尾相接，从 0.5 秒开始", func() {
			items := sentences(
				"Coffee was discovered in Ethiopia.",
				"Legend says a goat herder noticed his goats dancing after eating the berries of a strange shrub nearby.",
				"Short.",
				strings.Repeat("word ", 23),
			)
			tl := Build("job-1", items, Options{})

			So(len(tl.Subtitles), ShouldEqual, 4)
			So(tl.Subtitles[0].Start, ShouldEqual, 0.5)
			for i := 0; i+1 < len(tl.Subtitles); i++ {
				So(tl.Subtitles[i+1].Start, ShouldEqual, tl.Subtitles[i].Start+tl.Subtitles[i].Duration)
			}
		})

		Convey("每条字幕都不短于最小时长", func() {
			tl := Build("job-1", sentences("Hi.", "a b", "one two three four five six seven eight nine ten eleven"), Options{})
			for _, s := range tl.Subtitles {
				So(s.Duration, ShouldBeGreaterThanOrEqualTo, MinDuration)
			}
		})

		Convey("12 句混合有图无图", func() {
			items := make([]video.SentenceImage, 12)
			sum := 0.0
			for i := range items {
				items[i].Text = fmt.Sprintf("Sentence number %d talks about the topic in some detail here.", i)
				if i%2 == 0 {
					items[i].ImageURL = strPtr(fmt.Sprintf("https://images.example/%d.jpg", i))
				}
				sum += Duration(items[i].Text)
			}

			tl := Build("test-konu-1", items, Options{})
			So(len(tl.Subtitles), ShouldEqual, 12)
			So(tl.DurationInFrames, ShouldEqual, int(math.Ceil(LeadIn+sum+TailPadding))*30)
			So(tl.Subtitles[0].ImageURL, ShouldNotBeNil)
			So(tl.Subtitles[1].ImageURL, ShouldBeNil)
			So(tl.Validate(), ShouldBeNil)
		})

		Convey("所有配图为空时时间线仍然完整有效", func() {
			tl := Build("job-1", sentences("a b c", "d e f", "g h i"), Options{})
			So(len(tl.Subtitles), ShouldEqual, 3)
			for _, s := range tl.Subtitles {
				So(s.ImageURL, ShouldBeNil)
			}
			So(tl.Validate(), ShouldBeNil)

			data, err := json.Marshal(tl)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"imageUrl":null`)
		})

		Convey("空白句子被丢弃且不产生空隙", func() {
			tl := Build("job-1", sentences("First one here.", "   ", "Second one here."), Options{})
			So(len(tl.Subtitles), ShouldEqual, 2)
			So(tl.Subtitles[1].Start, ShouldEqual, tl.Subtitles[0].End())
			So(tl.Subtitles[1].Text, ShouldEqual, "Second one here.")
		})

		Convey("空输入得到 60 帧的空时间线", func() {
			tl := Build("job-1", nil, Options{})
			So(tl.Subtitles, ShouldNotBeNil)
			So(len(tl.Subtitles), ShouldEqual, 0)
			So(tl.DurationInFrames, ShouldEqual, 60)

			data, _ := json.Marshal(tl)
			So(string(data), ShouldContainSubstring, `"subtitles":[]`)
		})

		Convey("默认值与自定义参数", func() {
			tl := Build("job-1", nil, Options{})
			So(tl.Composition, ShouldEqual, "AiVideo")
			So(tl.FPS, ShouldEqual, 30)
			So(tl.Width, ShouldEqual, 1920)
			So(tl.Height, ShouldEqual, 1080)

			audio := "audio/job-1.mp3"
			tl = Build("job-1", sentences("a"), Options{FPS: 60, Composition: "Other", AudioURL: &audio})
			So(tl.Composition, ShouldEqual, "Other")
			So(tl.DurationInFrames, ShouldEqual, 5*60)
			So(*tl.AudioURL, ShouldEqual, audio)
		})

		Convey("同样输入两次构建得到相同 JSON", func() {
			items := []video.SentenceImage{
				{Text: "Alpha beta gamma.", ImageURL: strPtr("https://img/1.jpg")},
				{Text: "Delta epsilon."},
			}
			a, _ := json.Marshal(Build("job-1", items, Options{Topic: "greek"}))
			b, _ := json.Marshal(Build("job-1", items, Options{Topic: "greek"}))
			So(string(a), ShouldEqual, string(b))
		})
	})
}
