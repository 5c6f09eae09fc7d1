package layout

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPlaceFixed(t *testing.T) {
	Convey("固定位置模式按位置关键字计算坐标", t, func() {
		canvas := Canvas{Width: 1920, Height: 1080}
		cfg := DefaultLayout()
		cfg.Scale = 0.17
		cfg.Margin = 10

		Convey("缩放尺寸按画布四舍五入", func() {
			w, h := ScaledSize(canvas, 0.17)
			So(w, ShouldEqual, 326)
			So(h, ShouldEqual, 184)
		})

		cases := []struct {
			position string
			x, y     int
		}{
			{PositionTopLeft, 10, 10},
			{PositionTopRight, 1584, 10},
			{PositionBottomLeft, 10, 886},
			{PositionBottomRight, 1584, 886},
			{PositionCenter, 797, 448},
			{"somewhere", 10, 886},
		}
		for _, tc := range cases {
			cfg.Position = tc.position
			p := PlaceFixed(canvas, cfg)
			So(p.Width, ShouldEqual, 326)
			So(p.Height, ShouldEqual, 184)
			So(p.X, ShouldEqual, tc.x)
			So(p.Y, ShouldEqual, tc.y)
		}

		Convey("偏移叠加在边距之上", func() {
			cfg.Position = PositionBottomRight
			cfg.XOffset = -20
			cfg.YOffset = 5
			p := PlaceFixed(canvas, cfg)
			So(p.X, ShouldEqual, 1564)
			So(p.Y, ShouldEqual, 891)
		})

		Convey("不做边界限制，超大偏移会移出画布", func() {
			cfg.Position = PositionTopLeft
			cfg.XOffset = 5000
			p := PlaceFixed(canvas, cfg)
			So(p.X, ShouldEqual, 5010)

			clamped := Clamp(p, canvas)
			So(clamped.X, ShouldEqual, 1920-326)
			So(clamped.Y, ShouldEqual, 10)
		})
	})
}

func TestPlaceState(t *testing.T) {
	Convey("轮播模式各状态的几何", t, func() {
		canvas := Canvas{Width: 1920, Height: 1080}
		cfg := DefaultLayout()
		cfg.SmallScale = 0.17
		cfg.MainScale = 0.5
		cfg.Margin = 10
		cfg.MarginBottom = 30

		Convey("小窗贴左下角", func() {
			p := PlaceState(canvas, cfg, StateSmall)
			So(p, ShouldResemble, Placement{Width: 326, Height: 184, X: 10, Y: 1080 - 184 - 30})
		})

		Convey("全屏状态居中", func() {
			p := PlaceState(canvas, cfg, StateFull)
			So(p, ShouldResemble, Placement{Width: 960, Height: 540, X: 480, Y: 270})
		})

		Convey("隐藏状态缩到极小并移出画布", func() {
			p := PlaceState(canvas, cfg, StateHidden)
			So(p.Width, ShouldBeGreaterThanOrEqualTo, 2)
			So(p.Height, ShouldBeGreaterThanOrEqualTo, 2)
			So(p.X, ShouldBeGreaterThanOrEqualTo, canvas.Width)
			So(p.Y, ShouldBeGreaterThanOrEqualTo, canvas.Height)
		})
	})
}
