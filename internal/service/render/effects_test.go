package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"adreel/internal/model/render"
)

func TestEffectRegistry(t *testing.T) {
	Convey("分镜效果注册表", t, func() {
		r := NewEffectRegistry(EffectKenBurns)

		Convey("按名称查找，大小写不敏感", func() {
			name, _ := r.Lookup("", "Static")
			So(name, ShouldEqual, EffectStatic)
		})

		Convey("未知名称回退到默认效果", func() {
			name, e := r.Lookup("", "spin")
			So(name, ShouldEqual, EffectKenBurns)
			So(e, ShouldNotBeNil)
		})

		Convey("模板集优先", func() {
			r.Register("promo.static", passthroughEffect)
			name, _ := r.Lookup("promo", "static")
			So(name, ShouldEqual, "promo.static")

			name, _ = r.Lookup("other", "static")
			So(name, ShouldEqual, EffectStatic)
		})

		Convey("未注册的默认效果回退到 static", func() {
			name, _ := NewEffectRegistry("nope").Lookup("", "")
			So(name, ShouldEqual, EffectStatic)
		})

		So(r.Names(), ShouldContain, EffectPassthrough)
	})
}

func TestGenerateClips(t *testing.T) {
	Convey("分镜片段生成", t, func() {
		h := newHarness(t)
		opts := DefaultOptions()
		g := NewSceneClipGenerator(h.client, NewEffectRegistry(opts.Effect), h.namer, opts.Width, opts.Height)
		ctx := context.Background()

		assets := filepath.Join(h.dir, "assets")
		h.file(t, "assets/1.jpg", "jpg")
		h.file(t, "assets/2.mp4", "mp4")
		tmp := filepath.Join(h.dir, "tmp")
		So(os.MkdirAll(tmp, 0o755), ShouldBeNil)

		scenes := []render.Scene{
			{Index: 0, StartTime: 0, EndTime: 3, Asset: render.Asset{Path: "1.jpg"}},
			{Index: 1, StartTime: 3, EndTime: 7, Asset: render.Asset{Path: "2.mp4"}, Effect: EffectPassthrough},
			{Index: 2, StartTime: 7, EndTime: 9, Asset: render.Asset{Path: "missing.jpg"}},
		}

		Convey("素材缺失的场景被跳过，片段时长等于场景时长", func() {
			clips, err := g.GenerateClips(ctx, scenes, Dirs{AssetDir: assets, TempDir: tmp}, 30, "", EffectKenBurns, "")
			So(err, ShouldBeNil)
			So(len(clips), ShouldEqual, 2)
			So(clips[0].Duration, ShouldEqual, 3)
			So(clips[1].Duration, ShouldEqual, 4)

			calls := h.fake.FFmpegCalls()
			So(len(calls), ShouldEqual, 2)
			So(calls[0].Value("-filter_complex"), ShouldContainSubstring, "zoompan")
			So(calls[0].Has("-loop", "1"), ShouldBeTrue)
			So(calls[0].Value("-t"), ShouldEqual, "3.000")
			So(calls[1].Value("-t"), ShouldEqual, "4.000")

			for _, c := range clips {
				So(strings.HasPrefix(c.Path, tmp), ShouldBeTrue)
				So(fileExists(c.Path), ShouldBeTrue)
			}
		})

		Convey("passthrough 视频素材循环并按统一规格重新编码", func() {
			_, err := g.GenerateClips(ctx, scenes[1:2], Dirs{AssetDir: assets, TempDir: tmp}, 25, "", "", "")
			So(err, ShouldBeNil)

			calls := h.fake.FFmpegCalls()
			So(len(calls), ShouldEqual, 1)
			c := calls[0]
			So(c.Has("-stream_loop", "-1"), ShouldBeTrue)
			So(c.Value("-filter_complex"), ShouldContainSubstring, "pad=1920:1080")
			So(c.Has("-c:v", "libx264"), ShouldBeTrue)
			So(c.Has("-r", "25"), ShouldBeTrue)
			So(c.Has("-c", "copy"), ShouldBeFalse)
			So(c.Value("-t"), ShouldEqual, "4.000")
		})

		Convey("带 logo 时叠加在右上角", func() {
			logo := h.file(t, "logo.png", "png")
			_, err := g.GenerateClips(ctx, scenes, Dirs{AssetDir: assets, TempDir: tmp}, 30, "", "", logo)
			So(err, ShouldBeNil)

			for _, c := range h.fake.FFmpegCalls() {
				So(c.Value("-filter_complex"), ShouldContainSubstring, "overlay=W-w-20:20")
				So(c.Has("-c", "copy"), ShouldBeFalse)
			}
		})

		Convey("某个场景失败时删除已生成的片段", func() {
			h.fake.FailWhen = failOn("2.mp4")
			_, err := g.GenerateClips(ctx, scenes, Dirs{AssetDir: assets, TempDir: tmp}, 30, "", "", "")
			So(err, ShouldNotBeNil)
			So(filesWithExt(t, tmp, ".mp4"), ShouldBeEmpty)
		})
	})
}
