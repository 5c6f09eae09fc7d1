package render

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"adreel/internal/model/render"
	"adreel/internal/pkg/ffmpeg"
	"adreel/internal/pkg/id"
	"adreel/internal/pkg/layout"
	"adreel/internal/pkg/mask"
)

// ForegroundInput 前景合成参数
type ForegroundInput struct {
	AvatarPath    string
	Scenes        []render.Scene
	Mode          string
	Layout        *layout.LayoutConfig // 已解析的完整布局，nil 表示模式无法解析
	Canvas        render.Canvas
	TotalDuration float64 // 背景视频时长
	TempDir       string
	OutputPath    string // 为空时在 TempDir 下生成
}

// overlayStrategy 一种数字人模式族的前景生成方式
type overlayStrategy func(ctx context.Context, in ForegroundInput, cfg layout.LayoutConfig) (render.Clip, error)

// Synthesizer 数字人前景合成
// 输出为覆盖整个画布、带透明通道的 .mov，时长等于背景时长
type Synthesizer struct {
	client *ffmpeg.Client
	namer  *id.Namer
	fps    int
	clamp  bool

	strategies map[layout.Behavior]overlayStrategy
}

// NewSynthesizer 创建前景合成器
func NewSynthesizer(client *ffmpeg.Client, namer *id.Namer, opts Options) *Synthesizer {
	s := &Synthesizer{
		client: client,
		namer:  namer,
		fps:    opts.FPS,
		clamp:  opts.ClampToCanvas,
	}
	s.strategies = map[layout.Behavior]overlayStrategy{
		layout.BehaviorFixed:  s.synthesizeFixed,
		layout.BehaviorCyclic: s.synthesizeCyclic,
	}
	return s
}

// Synthesize 生成前景
// 所有校验在调用 ffmpeg 之前完成
func (s *Synthesizer) Synthesize(ctx context.Context, in ForegroundInput) (render.Clip, error) {
	if in.Layout == nil {
		return render.Clip{}, &InvalidModeError{Mode: in.Mode}
	}
	if in.TotalDuration <= 0 {
		return render.Clip{}, &ZeroDurationError{Duration: in.TotalDuration}
	}
	if !in.Canvas.Valid() {
		return render.Clip{}, &InvalidCanvasError{Canvas: in.Canvas}
	}
	if err := requireFile("avatar", in.AvatarPath); err != nil {
		return render.Clip{}, err
	}
	if in.OutputPath == "" {
		in.OutputPath = s.namer.Path(in.TempDir, "foreground", "mov")
	}

	behavior := layout.ResolveBehavior(in.Mode, *in.Layout)
	strategy, ok := s.strategies[behavior]
	if !ok {
		strategy = s.strategies[layout.BehaviorFixed]
	}

	clip, err := strategy(ctx, in, *in.Layout)
	if err != nil {
		return render.Clip{}, err
	}

	log.Ctx(ctx).Info().
		Str("stage", string(render.StageForeground)).
		Str("mode", in.Mode).
		Str("behavior", string(behavior)).
		Str("output", clip.Path).
		Float64("duration", clip.Duration).
		Msg("数字人前景合成成功")
	return clip, nil
}

// synthesizeFixed 固定位置：一次渲染覆盖全部时长
func (s *Synthesizer) synthesizeFixed(ctx context.Context, in ForegroundInput, cfg layout.LayoutConfig) (render.Clip, error) {
	p := layout.PlaceFixed(in.Canvas, cfg)
	if s.clamp {
		p = layout.Clamp(p, in.Canvas)
	}

	log.Ctx(ctx).Debug().
		Str("position", cfg.Position).
		Int("w", p.Width).Int("h", p.Height).
		Int("x", p.X).Int("y", p.Y).
		Msg("固定位置布局")

	if err := s.renderOverlay(ctx, overlayJob{
		op:       "foreground",
		avatar:   in.AvatarPath,
		place:    p,
		cfg:      cfg,
		canvas:   in.Canvas,
		duration: in.TotalDuration,
		tempDir:  in.TempDir,
		output:   in.OutputPath,
	}); err != nil {
		return render.Clip{}, err
	}
	return render.Clip{Path: in.OutputPath, Duration: in.TotalDuration}, nil
}

// synthesizeCyclic 轮播：按时间表逐段渲染，再流复制拼接
// 任意一段失败即整体失败，已生成的分段会被删除
func (s *Synthesizer) synthesizeCyclic(ctx context.Context, in ForegroundInput, cfg layout.LayoutConfig) (render.Clip, error) {
	period := cfg.StateDuration
	if period <= 0 {
		period = layout.DefaultLayout().StateDuration
		log.Ctx(ctx).Warn().
			Float64("state_duration", cfg.StateDuration).
			Float64("fallback", period).
			Msg("state_duration 非法，使用默认值")
	}

	segments := layout.CyclicSchedule(in.TotalDuration, period)
	paths := make([]string, 0, len(segments))
	avatarLen := s.avatarDuration(ctx, in.AvatarPath)

	for _, seg := range segments {
		path := s.namer.Path(in.TempDir, fmt.Sprintf("seg%03d", seg.Index), "mov")
		paths = append(paths, path)

		err := s.renderOverlay(ctx, overlayJob{
			op:       fmt.Sprintf("foreground segment %d", seg.Index),
			avatar:   in.AvatarPath,
			place:    layout.PlaceState(in.Canvas, cfg, seg.State),
			cfg:      cfg,
			state:    seg.State,
			canvas:   in.Canvas,
			duration: seg.Duration,
			seek:     avatarOffset(seg.Start, avatarLen),
			tempDir:  in.TempDir,
			output:   path,
		})
		if err != nil {
			removeFiles(ctx, paths...)
			return render.Clip{}, err
		}

		log.Ctx(ctx).Debug().
			Int("segment", seg.Index).
			Str("state", seg.State.String()).
			Float64("start", seg.Start).
			Float64("duration", seg.Duration).
			Msg("轮播分段渲染完成")
	}

	defer removeFiles(ctx, paths...)
	if err := concatFiles(ctx, s.client, s.namer, paths, in.OutputPath); err != nil {
		return render.Clip{}, err
	}
	return render.Clip{Path: in.OutputPath, Duration: in.TotalDuration}, nil
}

// avatarDuration 视频数字人的时长，用于各分段衔接播放进度
// 图片或无法探测时返回 0，此时每段都从头播放
func (s *Synthesizer) avatarDuration(ctx context.Context, path string) float64 {
	if isImage(path) {
		return 0
	}
	info, err := s.client.Probe(ctx, path)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("avatar", path).Msg("数字人时长探测失败，各分段从头播放")
		return 0
	}
	return info.Duration
}

// avatarOffset 分段开始时数字人循环播放的位置
func avatarOffset(start, length float64) float64 {
	if length <= 0 || start <= 0 {
		return 0
	}
	return math.Mod(start, length)
}

// overlayJob 一次透明叠加层渲染
type overlayJob struct {
	op       string
	avatar   string
	place    layout.Placement
	cfg      layout.LayoutConfig
	state    layout.State
	canvas   render.Canvas
	duration float64
	seek     float64 // 视频数字人的起始位置
	tempDir  string
	output   string
}

// renderOverlay 在透明画布上按 place 放置数字人，输出 qtrle/argb
func (s *Synthesizer) renderOverlay(ctx context.Context, job overlayJob) error {
	var maskPath string
	if job.cfg.CornerRadius > 0 && job.state != layout.StateHidden {
		maskPath = s.namer.Path(job.tempDir, "mask", "png")
		if err := mask.RoundedRect(maskPath, job.place.Width, job.place.Height, job.cfg.CornerRadius); err != nil {
			return fmt.Errorf("generate avatar mask: %w", err)
		}
		defer removeFiles(ctx, maskPath)
	}

	return s.client.Run(ctx, job.op, s.overlayArgs(job, maskPath))
}

// overlayArgs 构建叠加层参数
//
//	ffmpeg -y -f lavfi -i color=c=black@0.0:s=WxH:r=fps:d=T -loop 1 -framerate fps -i avatar.png [-loop 1 -i mask.png]
//	  -filter_complex "[1:v]scale=w:h,format=rgba[av];...;[base][av]overlay=x:y:shortest=1[out]"
//	  -map [out] -t T -r fps -c:v qtrle -pix_fmt argb -an out.mov
func (s *Synthesizer) overlayArgs(job overlayJob, maskPath string) []string {
	c, p := job.canvas, job.place

	args := []string{
		"-y",
		"-f", "lavfi",
		"-i", fmt.Sprintf("color=c=black@0.0:s=%dx%d:r=%d:d=%s", c.Width, c.Height, s.fps, seconds(job.duration)),
	}
	if isImage(job.avatar) {
		args = append(args, "-loop", "1", "-framerate", fmt.Sprintf("%d", s.fps), "-i", job.avatar)
	} else {
		args = append(args, "-stream_loop", "-1")
		if job.seek > 0 {
			args = append(args, "-ss", seconds(job.seek))
		}
		args = append(args, "-i", job.avatar)
	}
	if maskPath != "" {
		args = append(args, "-loop", "1", "-i", maskPath)
	}

	filters := []string{
		"[0:v]format=rgba[base]",
		fmt.Sprintf("[1:v]scale=%d:%d,format=rgba[av0]", p.Width, p.Height),
	}
	last := "av0"
	if maskPath != "" {
		filters = append(filters,
			fmt.Sprintf("[2:v]format=gray,scale=%d:%d[mask]", p.Width, p.Height),
			fmt.Sprintf("[%s][mask]alphamerge[av1]", last),
		)
		last = "av1"
	}
	if job.cfg.Opacity < 1 {
		filters = append(filters, fmt.Sprintf("[%s]colorchannelmixer=aa=%.3f[av2]", last, job.cfg.Opacity))
		last = "av2"
	}
	filters = append(filters, fmt.Sprintf("[base][%s]overlay=x=%d:y=%d:shortest=1:format=auto[out]", last, p.X, p.Y))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[out]",
		"-t", seconds(job.duration),
		"-r", fmt.Sprintf("%d", s.fps),
		"-c:v", "qtrle",
		"-pix_fmt", "argb",
		"-an",
		job.output,
	)
	return args
}
