// Package mask 生成数字人圆角遮罩
//
// 遮罩为灰度 PNG：白色为可见区域，黑色为透明区域，
// 供 ffmpeg 的 alphamerge 滤镜使用。
package mask

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// RoundedRect 在 path 写入 width x height 的圆角矩形遮罩
// radius 超过短边一半时按短边一半处理
func RoundedRect(path string, width, height, radius int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid mask size %dx%d", width, height)
	}

	r := math.Min(float64(radius), math.Min(float64(width), float64(height))/2)
	if r < 0 {
		r = 0
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.SetColor(color.White)
	dc.DrawRoundedRectangle(0, 0, float64(width), float64(height), r)
	dc.Fill()

	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save mask png: %w", err)
	}
	return nil
}
