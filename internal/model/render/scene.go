package render

import "adreel/internal/pkg/layout"

// AssetKind 场景素材类型
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindVideo AssetKind = "video"
)

// Word 逐字时间戳
type Word struct {
	Word  string  `bson:"word" json:"word" yaml:"word"`
	Start float64 `bson:"start" json:"start" yaml:"start"`
	End   float64 `bson:"end" json:"end" yaml:"end"`
}

// Asset 场景素材引用
type Asset struct {
	Path string    `bson:"path" json:"path" yaml:"path"`                               // 本地路径，相对路径按 AssetDir 解析
	Kind AssetKind `bson:"kind,omitempty" json:"kind,omitempty" yaml:"kind,omitempty"` // 为空时按扩展名推断
}

// Scene 广告时间线上的一个场景
// 调用方拥有，流水线只读
type Scene struct {
	Index         int     `bson:"index" json:"index" yaml:"index"`
	StartTime     float64 `bson:"start_time" json:"start_time" yaml:"start_time"`
	EndTime       float64 `bson:"end_time" json:"end_time" yaml:"end_time"`
	AudioDuration float64 `bson:"audio_duration,omitempty" json:"audio_duration,omitempty" yaml:"audio_duration,omitempty"` // 配音时长，优先于 end-start
	Text          string  `bson:"text,omitempty" json:"text,omitempty" yaml:"text,omitempty"`
	Words         []Word  `bson:"words,omitempty" json:"words,omitempty" yaml:"words,omitempty"`
	Asset         Asset   `bson:"asset" json:"asset" yaml:"asset"`
	Effect        string  `bson:"effect,omitempty" json:"effect,omitempty" yaml:"effect,omitempty"` // 单个场景的效果，覆盖请求级模板
}

// BaseDuration 不含间隔的场景时长
func (s Scene) BaseDuration() float64 {
	if s.AudioDuration > 0 {
		return s.AudioDuration
	}
	return s.EndTime - s.StartTime
}

// SceneDurations 计算每个场景的时长
// 时长 = 配音时长（或 end-start），再加上到下一个场景开始时间的正间隔
func SceneDurations(scenes []Scene) []float64 {
	out := make([]float64, len(scenes))
	for i, s := range scenes {
		d := s.BaseDuration()
		if i+1 < len(scenes) {
			if gap := scenes[i+1].StartTime - s.EndTime; gap > 0 {
				d += gap
			}
		}
		out[i] = d
	}
	return out
}

// TotalDuration 所有场景时长之和
func TotalDuration(scenes []Scene) float64 {
	var total float64
	for _, d := range SceneDurations(scenes) {
		total += d
	}
	return total
}

// Canvas 画布尺寸
type Canvas = layout.Canvas

// Clip 已渲染的视频片段，各阶段之间传递的单位
type Clip struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"` // 秒
}
