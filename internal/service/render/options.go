package render

import "adreel/internal/config"

// Options 流水线编码参数
type Options struct {
	FPS              int
	Width            int // 分镜片段宽度
	Height           int // 分镜片段高度
	CRF              int
	Preset           string
	AudioBitrate     string
	MusicVolume      float64 // 背景音乐音量，旁白固定为 1.0
	Effect           string  // 默认分镜效果
	CleanupOnFailure bool
	ClampToCanvas    bool
}

// DefaultOptions 默认编码参数
func DefaultOptions() Options {
	return Options{
		FPS:          30,
		Width:        1920,
		Height:       1080,
		CRF:          20,
		Preset:       "medium",
		AudioBitrate: "192k",
		MusicVolume:  0.12,
		Effect:       EffectStatic,
	}
}

// OptionsFromConfig 从配置构造参数，零值字段使用默认值
func OptionsFromConfig(cfg *config.RenderConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.FPS > 0 {
		opts.FPS = cfg.FPS
	}
	if cfg.Width > 0 {
		opts.Width = cfg.Width
	}
	if cfg.Height > 0 {
		opts.Height = cfg.Height
	}
	if cfg.CRF > 0 {
		opts.CRF = cfg.CRF
	}
	if cfg.Preset != "" {
		opts.Preset = cfg.Preset
	}
	if cfg.AudioBitrate != "" {
		opts.AudioBitrate = cfg.AudioBitrate
	}
	if cfg.MusicVolume > 0 {
		opts.MusicVolume = cfg.MusicVolume
	}
	if cfg.Effect != "" {
		opts.Effect = cfg.Effect
	}
	opts.CleanupOnFailure = cfg.CleanupOnFailure
	opts.ClampToCanvas = cfg.ClampToCanvas
	return opts
}
