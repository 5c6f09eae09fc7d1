package layout

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeLayoutFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "avatar_layouts.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write layout file: %v", err)
	}
	return path
}

func TestMerge(t *testing.T) {
	Convey("Merge 逐项覆盖", t, func() {
		scale := 0.3
		got := Merge(DefaultLayout(), Override{Scale: &scale})

		want := DefaultLayout()
		want.Scale = 0.3
		So(got, ShouldResemble, want)

		Convey("空覆盖等于基线", func() {
			So(Merge(DefaultLayout(), Override{}), ShouldResemble, DefaultLayout())
		})
	})
}

func TestResolver(t *testing.T) {
	Convey("Resolver 解析模式", t, func() {
		Convey("文件中只给出 scale 的模式，其余字段取基线值", func() {
			path := writeLayoutFile(t, `{"corner": {"scale": 0.3}}`)
			r := NewResolver(path)

			want := DefaultLayout()
			want.Scale = 0.3
			So(r.Resolve("corner"), ShouldResemble, want)
			So(r.FromFile(), ShouldBeTrue)
		})

		Convey("未知模式回退到 mix_mode_new 且不报错", func() {
			path := writeLayoutFile(t, `{"mix_mode_new": {"behavior": "cyclic", "state_duration": 5}, "corner": {"scale": 0.3}}`)
			r := NewResolver(path)

			got := r.Resolve("unknown")
			So(got, ShouldResemble, r.Resolve(FallbackMode))
			So(got.StateDuration, ShouldEqual, 5)
			So(r.ValidateMode("unknown"), ShouldBeFalse)
			So(r.ValidateMode("corner"), ShouldBeTrue)
		})

		Convey("文件中没有 mix_mode_new 时回退到内置定义", func() {
			path := writeLayoutFile(t, `{"corner": {"scale": 0.3}}`)
			r := NewResolver(path)

			got := r.Resolve("unknown")
			So(got, ShouldResemble, Merge(DefaultLayout(), DefaultTable()[FallbackMode]))
			So(r.ValidateMode(FallbackMode), ShouldBeFalse)
		})

		Convey("文件不存在时使用内置模式表", func() {
			r := NewResolver(filepath.Join(t.TempDir(), "missing.json"))
			So(r.FromFile(), ShouldBeFalse)
			So(r.ValidateMode("bottom_right"), ShouldBeTrue)
			So(r.Resolve("bottom_right").Position, ShouldEqual, PositionBottomRight)
		})

		Convey("文件损坏时使用内置模式表", func() {
			r := NewResolver(writeLayoutFile(t, `{"corner": {"scale": `))
			So(r.FromFile(), ShouldBeFalse)
			So(r.Modes(), ShouldContain, FallbackMode)
		})

		Convey("模式项不是对象时视为损坏", func() {
			r := NewResolver(writeLayoutFile(t, `{"corner": 3}`))
			So(r.FromFile(), ShouldBeFalse)
		})

		Convey("模式名保持文件中的原始大小写", func() {
			r := NewResolver(writeLayoutFile(t, `{"Corner": {"scale": 0.3}, "mix.v2": {"margin": 30}}`))

			So(r.Modes(), ShouldResemble, []string{"Corner", "mix.v2"})
			So(r.ValidateMode("Corner"), ShouldBeTrue)
			So(r.ValidateMode("corner"), ShouldBeFalse)
			So(r.Resolve("Corner").Scale, ShouldEqual, 0.3)
			So(r.Resolve("mix.v2").Margin, ShouldEqual, 30)
		})

		Convey("空对象模式存在并解析为基线", func() {
			r := NewResolver(writeLayoutFile(t, `{"empty": {}, "mix_mode_new": {"state_duration": 5}}`))

			So(r.FromFile(), ShouldBeTrue)
			So(r.ValidateMode("empty"), ShouldBeTrue)
			So(r.Resolve("empty"), ShouldResemble, DefaultLayout())
		})

		Convey("整数字段与模式族", func() {
			path := writeLayoutFile(t, `{"mix_custom": {"margin": 24, "corner_radius": 12}, "pinned": {"behavior": "fixed"}}`)
			r := NewResolver(path)

			cfg := r.Resolve("mix_custom")
			So(cfg.Margin, ShouldEqual, 24)
			So(cfg.CornerRadius, ShouldEqual, 12)
			So(ResolveBehavior("mix_custom", cfg), ShouldEqual, BehaviorCyclic)
			So(ResolveBehavior("pinned", r.Resolve("pinned")), ShouldEqual, BehaviorFixed)
			So(ResolveBehavior("mixed_up", Merge(DefaultLayout(), Override{Behavior: ptr("fixed")})), ShouldEqual, BehaviorFixed)
		})
	})
}
