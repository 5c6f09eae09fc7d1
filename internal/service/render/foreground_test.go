package render

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"adreel/internal/model/render"
	"adreel/internal/pkg/ffmpeg"
	"adreel/internal/pkg/ffmpeg/ffmpegtest"
	"adreel/internal/pkg/layout"
)

func resolved(mode string) *layout.LayoutConfig {
	cfg := layout.NewResolverFromTable(layout.DefaultTable()).Resolve(mode)
	return &cfg
}

func TestSynthesizeValidation(t *testing.T) {
	Convey("前景合成的前置校验", t, func() {
		h := newHarness(t)
		s := NewSynthesizer(h.client, h.namer, DefaultOptions())
		ctx := context.Background()
		avatar := h.file(t, "avatar.png", "png")

		base := ForegroundInput{
			AvatarPath:    avatar,
			Mode:          "bottom_right",
			Layout:        resolved("bottom_right"),
			Canvas:        render.Canvas{Width: 1920, Height: 1080},
			TotalDuration: 9,
			TempDir:       h.dir,
		}

		Convey("布局为空返回 InvalidModeError", func() {
			in := base
			in.Layout = nil
			_, err := s.Synthesize(ctx, in)

			var modeErr *InvalidModeError
			So(errors.As(err, &modeErr), ShouldBeTrue)
			So(modeErr.Mode, ShouldEqual, "bottom_right")
		})

		Convey("总时长为 0 返回 ZeroDurationError", func() {
			in := base
			in.TotalDuration = 0
			_, err := s.Synthesize(ctx, in)

			var zero *ZeroDurationError
			So(errors.As(err, &zero), ShouldBeTrue)
		})

		Convey("画布非法", func() {
			in := base
			in.Canvas = render.Canvas{}
			_, err := s.Synthesize(ctx, in)
			So(errors.Is(err, ErrInputValidation), ShouldBeTrue)
		})

		Convey("数字人文件不存在", func() {
			in := base
			in.AvatarPath = filepath.Join(h.dir, "missing.png")
			_, err := s.Synthesize(ctx, in)

			var missing *MissingInputError
			So(errors.As(err, &missing), ShouldBeTrue)
			So(missing.Role, ShouldEqual, "avatar")
		})

		So(h.fake.Calls(), ShouldBeEmpty)
	})
}

func TestSynthesizeFixed(t *testing.T) {
	Convey("固定位置前景", t, func() {
		h := newHarness(t)
		s := NewSynthesizer(h.client, h.namer, DefaultOptions())
		ctx := context.Background()
		out := filepath.Join(h.dir, "fg.mov")

		in := ForegroundInput{
			AvatarPath:    h.file(t, "avatar.png", "png"),
			Mode:          "bottom_right",
			Layout:        resolved("bottom_right"),
			Canvas:        render.Canvas{Width: 1920, Height: 1080},
			TotalDuration: 9,
			TempDir:       h.dir,
			OutputPath:    out,
		}

		Convey("一次渲染，右下角 (1584, 886)", func() {
			clip, err := s.Synthesize(ctx, in)
			So(err, ShouldBeNil)
			So(clip, ShouldResemble, render.Clip{Path: out, Duration: 9})

			calls := h.fake.FFmpegCalls()
			So(len(calls), ShouldEqual, 1)
			call := calls[0]
			So(call.Output(), ShouldEqual, out)
			So(call.Value("-t"), ShouldEqual, "9.000")
			So(call.Has("-c:v", "qtrle"), ShouldBeTrue)
			So(call.Has("-pix_fmt", "argb"), ShouldBeTrue)
			So(call.Has("-loop", "1"), ShouldBeTrue)

			graph := call.Value("-filter_complex")
			So(graph, ShouldContainSubstring, "scale=326:184")
			So(graph, ShouldContainSubstring, "overlay=x=1584:y=886")
			So(graph, ShouldNotContainSubstring, "alphamerge")
			So(graph, ShouldNotContainSubstring, "colorchannelmixer")
		})

		Convey("视频数字人无限循环", func() {
			in.AvatarPath = h.file(t, "avatar.mp4", "mp4")
			_, err := s.Synthesize(ctx, in)
			So(err, ShouldBeNil)
			So(h.fake.FFmpegCalls()[0].Has("-stream_loop", "-1"), ShouldBeTrue)
		})

		Convey("圆角与透明度", func() {
			cfg := *in.Layout
			cfg.CornerRadius = 12
			cfg.Opacity = 0.8
			in.Layout = &cfg

			_, err := s.Synthesize(ctx, in)
			So(err, ShouldBeNil)

			graph := h.fake.FFmpegCalls()[0].Value("-filter_complex")
			So(graph, ShouldContainSubstring, "alphamerge")
			So(graph, ShouldContainSubstring, "colorchannelmixer=aa=0.800")
			So(filesWithExt(t, h.dir, ".png"), ShouldResemble, []string{"avatar.png"})
		})

		Convey("默认不限制在画布内，开启后限制", func() {
			cfg := *in.Layout
			cfg.XOffset = 500
			in.Layout = &cfg

			_, err := s.Synthesize(ctx, in)
			So(err, ShouldBeNil)
			So(h.fake.FFmpegCalls()[0].Value("-filter_complex"), ShouldContainSubstring, "overlay=x=2084:y=886")

			opts := DefaultOptions()
			opts.ClampToCanvas = true
			clamped := NewSynthesizer(h.client, h.namer, opts)
			_, err = clamped.Synthesize(ctx, in)
			So(err, ShouldBeNil)
			So(h.fake.FFmpegCalls()[1].Value("-filter_complex"), ShouldContainSubstring, "overlay=x=1594:y=886")
		})

		Convey("ffmpeg 失败返回 EncodeError", func() {
			h.fake.FailWhen = failOn("qtrle")
			_, err := s.Synthesize(ctx, in)

			var encErr *ffmpeg.EncodeError
			So(errors.As(err, &encErr), ShouldBeTrue)
		})
	})
}

func TestSynthesizeCyclic(t *testing.T) {
	Convey("轮播前景", t, func() {
		h := newHarness(t)
		s := NewSynthesizer(h.client, h.namer, DefaultOptions())
		ctx := context.Background()
		out := filepath.Join(h.dir, "fg.mov")

		in := ForegroundInput{
			AvatarPath:    h.file(t, "avatar.png", "png"),
			Mode:          layout.FallbackMode,
			Layout:        resolved(layout.FallbackMode),
			Canvas:        render.Canvas{Width: 1920, Height: 1080},
			TotalDuration: 9,
			TempDir:       h.dir,
			OutputPath:    out,
		}

		Convey("9 秒：两段（小窗 7 秒、全屏 2 秒）后拼接", func() {
			clip, err := s.Synthesize(ctx, in)
			So(err, ShouldBeNil)
			So(clip.Duration, ShouldEqual, 9)

			calls := h.fake.FFmpegCalls()
			So(len(calls), ShouldEqual, 3)

			So(calls[0].Value("-t"), ShouldEqual, "7.000")
			So(calls[0].Value("-filter_complex"), ShouldContainSubstring, "overlay=x=10:y=886")

			So(calls[1].Value("-t"), ShouldEqual, "2.000")
			So(calls[1].Value("-filter_complex"), ShouldContainSubstring, "scale=960:540")
			So(calls[1].Value("-filter_complex"), ShouldContainSubstring, "overlay=x=480:y=270")

			So(calls[2].Has("-f", "concat"), ShouldBeTrue)
			So(calls[2].Output(), ShouldEqual, out)
			So(h.fake.Duration(out), ShouldAlmostEqual, 9, 0.1)

			Convey("分段文件与清单都已删除", func() {
				So(filesWithExt(t, h.dir, ".mov"), ShouldResemble, []string{"fg.mov"})
				So(filesWithExt(t, h.dir, ".txt"), ShouldBeEmpty)
			})
		})

		Convey("视频数字人：后续分段从循环播放的当前位置开始", func() {
			in.AvatarPath = h.file(t, "avatar.mp4", "mp4")
			h.fake.SetDuration(in.AvatarPath, 5)

			_, err := s.Synthesize(ctx, in)
			So(err, ShouldBeNil)

			calls := h.fake.FFmpegCalls()
			So(len(calls), ShouldEqual, 3)
			So(calls[0].Value("-ss"), ShouldEqual, "")
			So(calls[1].Has("-ss", "2.000"), ShouldBeTrue)
			So(calls[1].Has("-stream_loop", "-1"), ShouldBeTrue)
		})

		Convey("21 秒：三段，第三段为隐藏状态", func() {
			in.TotalDuration = 21
			_, err := s.Synthesize(ctx, in)
			So(err, ShouldBeNil)

			calls := h.fake.FFmpegCalls()
			So(len(calls), ShouldEqual, 4)
			So(calls[2].Value("-filter_complex"), ShouldContainSubstring, "overlay=x=3840:y=2160")
		})

		Convey("任意分段失败即整体失败，不拼接并删除已生成分段", func() {
			h.fake.FailWhen = func(c ffmpegtest.Call) error {
				if c.Value("-t") == "2.000" {
					return errString("segment broke")
				}
				return nil
			}

			_, err := s.Synthesize(ctx, in)
			So(err, ShouldNotBeNil)

			calls := h.fake.FFmpegCalls()
			So(len(calls), ShouldEqual, 2)
			for _, c := range calls {
				So(strings.Join(c.Args, " "), ShouldNotContainSubstring, "concat")
			}
			So(filesWithExt(t, h.dir, ".mov"), ShouldBeEmpty)
		})

		Convey("state_duration 非法时使用默认周期", func() {
			cfg := *in.Layout
			cfg.StateDuration = 0
			in.Layout = &cfg

			_, err := s.Synthesize(ctx, in)
			So(err, ShouldBeNil)
			So(h.fake.FFmpegCalls()[0].Value("-t"), ShouldEqual, "7.000")
		})
	})
}
