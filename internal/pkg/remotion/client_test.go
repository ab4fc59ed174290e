package remotion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"ytfactory/internal/pkg/errkind"
)

func fakeNpx(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake executables need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "npx")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake npx: %v", err)
	}
	return path
}

func TestPreset(t *testing.T) {
	tests := []struct {
		name    string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"production", nil, false},
		{"fast", []string{"--jpeg-quality=50", "--scale=0.8", "--crf=28"}, false},
		{"preview", []string{"--jpeg-quality=30", "--scale=0.5", "--crf=32"}, false},
		{"ultra_fast", []string{"--jpeg-quality=20", "--scale=0.3", "--crf=35"}, false},
		{"turbo", nil, true},
	}
	for _, tt := range tests {
		p, err := ParsePreset(tt.name)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParsePreset(%q) err = %v", tt.name, err)
		}
		if err != nil {
			continue
		}
		got := p.Flags()
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Errorf("%q flags = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClient_Args(t *testing.T) {
	Convey("Client.Args", t, func() {
		c := NewClient("", "/srv/remotion", "")
		req := RenderRequest{
			PropsPath:        "/data/job.json",
			OutputPath:       "/tmp/job.silent.mp4",
			FPS:              30,
			Width:            1920,
			Height:           1080,
			DurationInFrames: 270,
			Preset:           PresetFast,
		}

		args, err := c.Args(req)
		So(err, ShouldBeNil)
		So(args[:5], ShouldResemble, []string{"remotion", "render", DefaultEntryPoint, "AiVideo", "/tmp/job.silent.mp4"})
		So(args, ShouldContain, "--props=/data/job.json")
		So(args, ShouldContain, "--frames=0-269")
		So(args, ShouldContain, "--muted")
		So(args, ShouldContain, "--overwrite")
		So(args, ShouldContain, "--crf=28")
	})
}

func TestClient_Render(t *testing.T) {
	Convey("Client.Render", t, func() {
		out := filepath.Join(t.TempDir(), "out", "job.silent.mp4")
		root := t.TempDir()

		Convey("在工程目录下执行并产出文件", func() {
			npx := fakeNpx(t, `pwd > "$(dirname "$0")/cwd.txt"; echo video > "$5"`)
			c := NewClient(npx, root, "")
			err := c.Render(context.Background(), RenderRequest{
				PropsPath: "p.json", OutputPath: out, FPS: 30, Width: 640, Height: 360, DurationInFrames: 60,
			})
			So(err, ShouldBeNil)
			_, statErr := os.Stat(out)
			So(statErr, ShouldBeNil)

			cwd, _ := os.ReadFile(filepath.Join(filepath.Dir(npx), "cwd.txt"))
			resolvedRoot, _ := filepath.EvalSymlinks(root)
			resolvedCwd, _ := filepath.EvalSymlinks(strings.TrimSpace(string(cwd)))
			So(resolvedCwd, ShouldEqual, resolvedRoot)
		})

		Convey("非零退出返回 ExternalProcessError", func() {
			npx := fakeNpx(t, `echo "composition not found" >&2; exit 3`)
			c := NewClient(npx, root, "")
			err := c.Render(context.Background(), RenderRequest{
				PropsPath: "p.json", OutputPath: out, FPS: 30, Width: 640, Height: 360, DurationInFrames: 60,
			})
			var pe *errkind.ExternalProcessError
			So(errors.As(err, &pe), ShouldBeTrue)
			So(pe.ExitCode, ShouldEqual, 3)
			So(pe.Stderr, ShouldContainSubstring, "composition not found")
		})

		Convey("帧数为 0 不调用命令", func() {
			c := NewClient("/nonexistent/npx", root, "")
			err := c.Render(context.Background(), RenderRequest{OutputPath: out})
			So(err, ShouldNotBeNil)
			var pe *errkind.ExternalProcessError
			So(errors.As(err, &pe), ShouldBeFalse)
		})
	})
}
