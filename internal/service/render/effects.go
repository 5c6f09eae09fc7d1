package render

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"adreel/internal/model/render"
	"adreel/internal/pkg/ffmpeg"
	"adreel/internal/pkg/id"
)

// 内置分镜效果
const (
	EffectStatic      = "static"      // 静止画面（视频素材循环播放）
	EffectKenBurns    = "kenburns"    // 图片缓慢推近
	EffectPassthrough = "passthrough" // 保持素材画面比例，不足部分补黑边
)

// logoMargin logo 距画面右上角的边距
const logoMargin = 20

// Dirs 分镜片段生成使用的目录
type Dirs struct {
	AssetDir string // 相对素材路径的根目录
	TempDir  string // 片段输出目录
}

// ClipGenerator 为每个场景生成一个片段
// 片段时长等于场景时长，可直接拼接；素材缺失的场景会被跳过
type ClipGenerator interface {
	GenerateClips(ctx context.Context, scenes []render.Scene, dirs Dirs, fps int, templateSet, templateName, logoPath string) ([]render.Clip, error)
}

// EffectInput 单个场景片段的渲染参数
type EffectInput struct {
	AssetPath string
	Image     bool
	Duration  float64
	Width     int
	Height    int
	FPS       int
}

// EffectPlan 效果给出的输入参数与视频滤镜
// 所有片段都按统一的尺寸、帧率与编码输出，保证之后可以流复制拼接
type EffectPlan struct {
	InputArgs []string // 放在 -i asset 之前
	Filter    string   // 作用于 [0:v]
}

// Effect 分镜效果
type Effect func(in EffectInput) EffectPlan

// EffectRegistry 分镜效果注册表，查找失败时使用默认效果
type EffectRegistry struct {
	effects  map[string]Effect
	fallback string
}

// NewEffectRegistry 创建包含内置效果的注册表
// fallback 未注册时回退到 static
func NewEffectRegistry(fallback string) *EffectRegistry {
	r := &EffectRegistry{effects: make(map[string]Effect)}
	r.Register(EffectStatic, staticEffect)
	r.Register(EffectKenBurns, kenBurnsEffect)
	r.Register(EffectPassthrough, passthroughEffect)

	if _, ok := r.effects[fallback]; !ok {
		fallback = EffectStatic
	}
	r.fallback = fallback
	return r
}

// Register 注册效果，同名覆盖
func (r *EffectRegistry) Register(name string, e Effect) {
	r.effects[strings.ToLower(name)] = e
}

// Lookup 查找效果
// 依次尝试 "<set>.<name>"、"<name>"，都不存在时返回默认效果
func (r *EffectRegistry) Lookup(set, name string) (string, Effect) {
	name = strings.ToLower(name)
	if set != "" {
		key := strings.ToLower(set) + "." + name
		if e, ok := r.effects[key]; ok {
			return key, e
		}
	}
	if e, ok := r.effects[name]; ok {
		return name, e
	}
	return r.fallback, r.effects[r.fallback]
}

// Names 返回已注册的效果名
func (r *EffectRegistry) Names() []string {
	names := make([]string, 0, len(r.effects))
	for n := range r.effects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// fitFilter 缩放并裁剪到目标尺寸
func fitFilter(w, h int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1", w, h, w, h)
}

func loopArgs(in EffectInput) []string {
	if in.Image {
		return []string{"-loop", "1", "-framerate", fmt.Sprintf("%d", in.FPS)}
	}
	return []string{"-stream_loop", "-1"}
}

func staticEffect(in EffectInput) EffectPlan {
	return EffectPlan{
		InputArgs: loopArgs(in),
		Filter:    fitFilter(in.Width, in.Height),
	}
}

// kenBurnsEffect 图片逐帧放大，最大 1.3 倍；视频素材按 static 处理
func kenBurnsEffect(in EffectInput) EffectPlan {
	if !in.Image {
		return staticEffect(in)
	}
	frames := int(in.Duration * float64(in.FPS))
	zoom := fmt.Sprintf("zoompan=z='min(1.0+on*0.0008,1.3)':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
		frames, in.Width, in.Height, in.FPS)
	return EffectPlan{
		InputArgs: loopArgs(in),
		Filter:    fitFilter(in.Width, in.Height) + "," + zoom,
	}
}

// padFilter 等比缩放到目标尺寸以内并居中补边
func padFilter(w, h int) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1", w, h, w, h)
}

// passthroughEffect 不裁剪画面，只统一尺寸；素材比场景短时循环播放
func passthroughEffect(in EffectInput) EffectPlan {
	return EffectPlan{
		InputArgs: loopArgs(in),
		Filter:    padFilter(in.Width, in.Height),
	}
}

// SceneClipGenerator 基于效果注册表的 ClipGenerator
type SceneClipGenerator struct {
	client   *ffmpeg.Client
	registry *EffectRegistry
	namer    *id.Namer
	width    int
	height   int
}

// NewSceneClipGenerator 创建分镜片段生成器
func NewSceneClipGenerator(client *ffmpeg.Client, registry *EffectRegistry, namer *id.Namer, width, height int) *SceneClipGenerator {
	return &SceneClipGenerator{
		client:   client,
		registry: registry,
		namer:    namer,
		width:    width,
		height:   height,
	}
}

// GenerateClips 按场景顺序生成片段
// 场景的 Effect 字段优先于 templateName
func (g *SceneClipGenerator) GenerateClips(ctx context.Context, scenes []render.Scene, dirs Dirs, fps int, templateSet, templateName, logoPath string) ([]render.Clip, error) {
	if logoPath != "" && !fileExists(logoPath) {
		log.Ctx(ctx).Warn().Str("logo", logoPath).Msg("logo 不存在，忽略")
		logoPath = ""
	}

	durations := render.SceneDurations(scenes)
	clips := make([]render.Clip, 0, len(scenes))

	for i, scene := range scenes {
		assetPath := scene.Asset.Path
		if assetPath != "" && !filepath.IsAbs(assetPath) && dirs.AssetDir != "" {
			assetPath = filepath.Join(dirs.AssetDir, assetPath)
		}
		if !fileExists(assetPath) {
			log.Ctx(ctx).Warn().Int("scene", scene.Index).Str("asset", assetPath).Msg("场景素材不存在，跳过")
			continue
		}
		if durations[i] <= 0 {
			log.Ctx(ctx).Warn().Int("scene", scene.Index).Float64("duration", durations[i]).Msg("场景时长非正，跳过")
			continue
		}

		name := templateName
		if scene.Effect != "" {
			name = scene.Effect
		}
		effectName, effect := g.registry.Lookup(templateSet, name)

		in := EffectInput{
			AssetPath: assetPath,
			Image:     isSceneImage(scene.Asset, assetPath),
			Duration:  durations[i],
			Width:     g.width,
			Height:    g.height,
			FPS:       fps,
		}
		output := g.namer.Path(dirs.TempDir, fmt.Sprintf("scene%03d", scene.Index), "mp4")

		op := fmt.Sprintf("scene %d (%s)", scene.Index, effectName)
		if err := g.client.Run(ctx, op, clipArgs(effect(in), in, logoPath, output)); err != nil {
			removeFiles(ctx, clipPaths(clips)...)
			return nil, err
		}
		clips = append(clips, render.Clip{Path: output, Duration: durations[i]})
	}

	log.Ctx(ctx).Info().
		Str("stage", string(render.StageClips)).
		Int("scenes", len(scenes)).
		Int("clips", len(clips)).
		Msg("分镜片段生成完成")
	return clips, nil
}

func isSceneImage(a render.Asset, path string) bool {
	switch a.Kind {
	case render.AssetKindImage:
		return true
	case render.AssetKindVideo:
		return false
	default:
		return isImage(path)
	}
}

// clipArgs 把效果计划组装为完整参数，输出无音轨的 h264 片段
func clipArgs(plan EffectPlan, in EffectInput, logoPath, output string) []string {
	args := []string{"-y"}
	args = append(args, plan.InputArgs...)
	args = append(args, "-i", in.AssetPath)

	var graph string
	if logoPath != "" {
		args = append(args, "-loop", "1", "-i", logoPath)
		graph = fmt.Sprintf("[0:v]%s[base];[1:v]scale=-1:%d[logo];[base][logo]overlay=W-w-%d:%d:shortest=1[v]",
			plan.Filter, in.Height/10, logoMargin, logoMargin)
	} else {
		graph = fmt.Sprintf("[0:v]%s[v]", plan.Filter)
	}

	return append(args,
		"-filter_complex", graph,
		"-map", "[v]",
		"-t", seconds(in.Duration),
		"-r", fmt.Sprintf("%d", in.FPS),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-an",
		output,
	)
}

func clipPaths(clips []render.Clip) []string {
	paths := make([]string, len(clips))
	for i, c := range clips {
		paths[i] = c.Path
	}
	return paths
}
