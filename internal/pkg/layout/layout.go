// Package layout 数字人叠加层的布局配置
//
// 包含三部分，均为纯函数，不触发任何文件或进程操作（Resolver 读取配置文件除外）：
//   - 布局配置的默认值与合并（Merge）
//   - 固定位置与轮播状态的几何计算（PlaceFixed / PlaceState）
//   - 轮播模式的分段时间表（CyclicSchedule）
package layout

import "strings"

// Behavior 数字人模式族
type Behavior string

const (
	BehaviorAuto   Behavior = ""       // 按模式名推断
	BehaviorFixed  Behavior = "fixed"  // 固定位置
	BehaviorCyclic Behavior = "cyclic" // 小窗/全屏/隐藏 轮播
)

// FallbackMode 未知模式回退到的模式
const FallbackMode = "mix_mode_new"

// 位置关键字
const (
	PositionTopLeft     = "top-left"
	PositionTopRight    = "top-right"
	PositionBottomLeft  = "bottom-left"
	PositionBottomRight = "bottom-right"
	PositionCenter      = "center"
)

// LayoutConfig 单个模式的完整布局参数
// 经 Resolver 解析后所有字段都有值
type LayoutConfig struct {
	Behavior      Behavior `json:"behavior,omitempty"`
	Scale         float64  `json:"scale"`          // 固定模式：相对画布的缩放比例
	SmallScale    float64  `json:"small_scale"`    // 轮播模式：小窗比例
	MainScale     float64  `json:"main_scale"`     // 轮播模式：全屏状态比例
	Position      string   `json:"position"`       // 固定模式位置关键字
	Margin        int      `json:"margin"`         // 边距（像素）
	MarginBottom  int      `json:"margin_bottom"`  // 轮播小窗底部边距
	XOffset       int      `json:"x_offset"`       // 额外水平偏移
	YOffset       int      `json:"y_offset"`       // 额外垂直偏移
	Opacity       float64  `json:"opacity"`        // 0-1
	CornerRadius  int      `json:"corner_radius"`  // 圆角半径（像素，0 表示直角）
	StateDuration float64  `json:"state_duration"` // 轮播每个状态的时长（秒）
}

// Override 配置文件中的部分覆盖项，nil 表示沿用基线值
type Override struct {
	Behavior      *string  `mapstructure:"behavior" json:"behavior,omitempty"`
	Scale         *float64 `mapstructure:"scale" json:"scale,omitempty"`
	SmallScale    *float64 `mapstructure:"small_scale" json:"small_scale,omitempty"`
	MainScale     *float64 `mapstructure:"main_scale" json:"main_scale,omitempty"`
	Position      *string  `mapstructure:"position" json:"position,omitempty"`
	Margin        *int     `mapstructure:"margin" json:"margin,omitempty"`
	MarginBottom  *int     `mapstructure:"margin_bottom" json:"margin_bottom,omitempty"`
	XOffset       *int     `mapstructure:"x_offset" json:"x_offset,omitempty"`
	YOffset       *int     `mapstructure:"y_offset" json:"y_offset,omitempty"`
	Opacity       *float64 `mapstructure:"opacity" json:"opacity,omitempty"`
	CornerRadius  *int     `mapstructure:"corner_radius" json:"corner_radius,omitempty"`
	StateDuration *float64 `mapstructure:"state_duration" json:"state_duration,omitempty"`
}

var baseline = LayoutConfig{
	Behavior:      BehaviorAuto,
	Scale:         0.17,
	SmallScale:    0.17,
	MainScale:     0.5,
	Position:      PositionBottomLeft,
	Margin:        10,
	MarginBottom:  10,
	XOffset:       0,
	YOffset:       0,
	Opacity:       1.0,
	CornerRadius:  0,
	StateDuration: 7,
}

// DefaultLayout 返回基线布局（值拷贝）
func DefaultLayout() LayoutConfig {
	return baseline
}

// DefaultTable 内置模式表，配置文件缺失或损坏时使用
func DefaultTable() map[string]Override {
	return map[string]Override{
		FallbackMode: {
			Behavior:      ptr(string(BehaviorCyclic)),
			SmallScale:    ptr(0.17),
			MainScale:     ptr(0.5),
			Margin:        ptr(10),
			MarginBottom:  ptr(10),
			StateDuration: ptr(7.0),
		},
		"mix_mode": {
			Behavior:      ptr(string(BehaviorCyclic)),
			SmallScale:    ptr(0.2),
			MainScale:     ptr(0.6),
			Margin:        ptr(20),
			MarginBottom:  ptr(40),
			StateDuration: ptr(5.0),
			CornerRadius:  ptr(16),
		},
		"bottom_left": {
			Behavior: ptr(string(BehaviorFixed)),
			Position: ptr(PositionBottomLeft),
		},
		"bottom_right": {
			Behavior: ptr(string(BehaviorFixed)),
			Position: ptr(PositionBottomRight),
		},
		"top_left": {
			Behavior: ptr(string(BehaviorFixed)),
			Position: ptr(PositionTopLeft),
		},
		"top_right": {
			Behavior: ptr(string(BehaviorFixed)),
			Position: ptr(PositionTopRight),
		},
		"center": {
			Behavior: ptr(string(BehaviorFixed)),
			Scale:    ptr(0.3),
			Position: ptr(PositionCenter),
		},
	}
}

// Merge 将 override 中非 nil 的字段逐项覆盖到 base 上
func Merge(base LayoutConfig, o Override) LayoutConfig {
	out := base
	if o.Behavior != nil {
		out.Behavior = Behavior(strings.ToLower(*o.Behavior))
	}
	if o.Scale != nil {
		out.Scale = *o.Scale
	}
	if o.SmallScale != nil {
		out.SmallScale = *o.SmallScale
	}
	if o.MainScale != nil {
		out.MainScale = *o.MainScale
	}
	if o.Position != nil {
		out.Position = *o.Position
	}
	if o.Margin != nil {
		out.Margin = *o.Margin
	}
	if o.MarginBottom != nil {
		out.MarginBottom = *o.MarginBottom
	}
	if o.XOffset != nil {
		out.XOffset = *o.XOffset
	}
	if o.YOffset != nil {
		out.YOffset = *o.YOffset
	}
	if o.Opacity != nil {
		out.Opacity = *o.Opacity
	}
	if o.CornerRadius != nil {
		out.CornerRadius = *o.CornerRadius
	}
	if o.StateDuration != nil {
		out.StateDuration = *o.StateDuration
	}
	return out
}

// ResolveBehavior 决定模式族：显式配置优先，否则以 mix 开头的模式名为轮播
// 未识别的取值按固定位置处理
func ResolveBehavior(mode string, cfg LayoutConfig) Behavior {
	switch cfg.Behavior {
	case BehaviorFixed, BehaviorCyclic:
		return cfg.Behavior
	case BehaviorAuto:
		if strings.HasPrefix(strings.ToLower(mode), "mix") {
			return BehaviorCyclic
		}
	}
	return BehaviorFixed
}

func ptr[T any](v T) *T {
	return &v
}
