package layout

import "math"

// hiddenScale 隐藏状态的缩放比例
// 隐藏状态并不真正移除叠加层，而是缩到极小并移出画布
const hiddenScale = 0.01

// minHiddenSide 隐藏状态的最小边长，避免缩放到 0 像素
const minHiddenSide = 2

// Canvas 画布尺寸（像素），由探测拼接后的背景视频得到
type Canvas struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid 宽高均为正
func (c Canvas) Valid() bool {
	return c.Width > 0 && c.Height > 0
}

// Placement 叠加层在画布上的尺寸与左上角坐标
// 坐标可以为负或超出画布
type Placement struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// ScaledSize 按画布尺寸缩放
func ScaledSize(c Canvas, scale float64) (int, int) {
	w := int(math.Round(float64(c.Width) * scale))
	h := int(math.Round(float64(c.Height) * scale))
	return w, h
}

// PlaceFixed 固定位置模式的几何计算
// 未知位置关键字按 bottom-left 处理；不做边界限制，见 Clamp
func PlaceFixed(c Canvas, cfg LayoutConfig) Placement {
	w, h := ScaledSize(c, cfg.Scale)
	p := Placement{Width: w, Height: h}

	switch cfg.Position {
	case PositionTopLeft:
		p.X = cfg.Margin + cfg.XOffset
		p.Y = cfg.Margin + cfg.YOffset
	case PositionTopRight:
		p.X = c.Width - w - cfg.Margin + cfg.XOffset
		p.Y = cfg.Margin + cfg.YOffset
	case PositionBottomRight:
		p.X = c.Width - w - cfg.Margin + cfg.XOffset
		p.Y = c.Height - h - cfg.Margin + cfg.YOffset
	case PositionCenter:
		p.X = (c.Width-w)/2 + cfg.XOffset
		p.Y = (c.Height-h)/2 + cfg.YOffset
	default: // bottom-left
		p.X = cfg.Margin + cfg.XOffset
		p.Y = c.Height - h - cfg.Margin + cfg.YOffset
	}
	return p
}

// PlaceState 轮播模式下某个状态的几何计算
//   - StateSmall: small_scale，左下角，左边距 margin，底边距 margin_bottom
//   - StateFull: main_scale，居中
//   - StateHidden: 极小尺寸，放在画布右下方之外
func PlaceState(c Canvas, cfg LayoutConfig, s State) Placement {
	switch s {
	case StateFull:
		w, h := ScaledSize(c, cfg.MainScale)
		return Placement{
			Width:  w,
			Height: h,
			X:      (c.Width - w) / 2,
			Y:      (c.Height - h) / 2,
		}
	case StateHidden:
		w, h := ScaledSize(c, hiddenScale)
		return Placement{
			Width:  max(w, minHiddenSide),
			Height: max(h, minHiddenSide),
			X:      c.Width * 2,
			Y:      c.Height * 2,
		}
	default:
		w, h := ScaledSize(c, cfg.SmallScale)
		return Placement{
			Width:  w,
			Height: h,
			X:      cfg.Margin,
			Y:      c.Height - h - cfg.MarginBottom,
		}
	}
}

// Clamp 把叠加层限制在画布内（尺寸大于画布时贴左上角）
func Clamp(p Placement, c Canvas) Placement {
	p.X = min(max(p.X, 0), max(c.Width-p.Width, 0))
	p.Y = min(max(p.Y, 0), max(c.Height-p.Height, 0))
	return p
}
