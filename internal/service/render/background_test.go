package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"adreel/internal/model/render"
	"adreel/internal/pkg/ffmpeg"
)

func TestAssemble(t *testing.T) {
	Convey("背景拼接", t, func() {
		h := newHarness(t)
		a := NewAssembler(h.client, h.namer)
		ctx := context.Background()
		out := filepath.Join(h.dir, "background.mp4")

		Convey("没有片段返回 EmptyInputError，不调用 ffmpeg", func() {
			_, err := a.Assemble(ctx, nil, out)

			var empty *EmptyInputError
			So(errors.As(err, &empty), ShouldBeTrue)
			So(errors.Is(err, ErrInputValidation), ShouldBeTrue)
			So(h.fake.Calls(), ShouldBeEmpty)
		})

		Convey("片段文件不存在返回 MissingInputError", func() {
			_, err := a.Assemble(ctx, []render.Clip{{Path: filepath.Join(h.dir, "nope.mp4"), Duration: 1}}, out)

			var missing *MissingInputError
			So(errors.As(err, &missing), ShouldBeTrue)
			So(missing.Role, ShouldEqual, "clip")
			So(h.fake.Calls(), ShouldBeEmpty)
		})

		Convey("单个片段逐字节复制，时长沿用", func() {
			c := h.clip(t, "only.mp4", 4.2)

			got, err := a.Assemble(ctx, []render.Clip{c}, out)
			So(err, ShouldBeNil)
			So(got.Path, ShouldEqual, out)
			So(got.Duration, ShouldEqual, 4.2)
			So(h.fake.Calls(), ShouldBeEmpty)

			src, _ := os.ReadFile(c.Path)
			dst, _ := os.ReadFile(out)
			So(dst, ShouldResemble, src)
		})

		Convey("多个片段按流复制拼接，时长等于之和", func() {
			clips := []render.Clip{
				h.clip(t, "a.mp4", 3),
				h.clip(t, "b.mp4", 4),
				h.clip(t, "c.mp4", 2),
			}

			got, err := a.Assemble(ctx, clips, out)
			So(err, ShouldBeNil)
			So(got.Duration, ShouldAlmostEqual, 9, 0.1)

			calls := h.fake.FFmpegCalls()
			So(len(calls), ShouldEqual, 1)
			So(calls[0].Has("-f", "concat"), ShouldBeTrue)
			So(calls[0].Has("-c", "copy"), ShouldBeTrue)
			So(calls[0].Output(), ShouldEqual, out)

			Convey("清单文件已删除", func() {
				So(filesWithExt(t, h.dir, ".txt"), ShouldBeEmpty)
			})
		})

		Convey("ffmpeg 失败返回 EncodeError，清单同样删除", func() {
			h.fake.FailWhen = failOn("concat")
			clips := []render.Clip{h.clip(t, "a.mp4", 3), h.clip(t, "b.mp4", 4)}

			_, err := a.Assemble(ctx, clips, out)

			var encErr *ffmpeg.EncodeError
			So(errors.As(err, &encErr), ShouldBeTrue)
			So(encErr.Stderr, ShouldContainSubstring, "Conversion failed!")
			So(filesWithExt(t, h.dir, ".txt"), ShouldBeEmpty)
		})
	})
}

func TestProbe(t *testing.T) {
	Convey("背景探测", t, func() {
		h := newHarness(t)
		a := NewAssembler(h.client, h.namer)
		ctx := context.Background()

		Convey("返回画布尺寸与时长", func() {
			h.fake.Width, h.fake.Height = 1080, 1920
			c := h.clip(t, "bg.mp4", 9)

			canvas, err := a.ProbeDimensions(ctx, c.Path)
			So(err, ShouldBeNil)
			So(canvas, ShouldResemble, render.Canvas{Width: 1080, Height: 1920})

			d, err := a.ProbeDuration(ctx, c.Path)
			So(err, ShouldBeNil)
			So(d, ShouldAlmostEqual, 9, 1e-6)
		})

		Convey("文件不可读时返回 ProbeError", func() {
			_, err := a.ProbeDimensions(ctx, filepath.Join(h.dir, "missing.mp4"))
			var probeErr *ffmpeg.ProbeError
			So(errors.As(err, &probeErr), ShouldBeTrue)
		})

		Convey("时长为 0 时返回 ProbeError", func() {
			path := h.file(t, "empty.mp4", "x")
			_, err := a.ProbeDuration(ctx, path)
			var probeErr *ffmpeg.ProbeError
			So(errors.As(err, &probeErr), ShouldBeTrue)
		})
	})
}
