package render

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"adreel/internal/model/render"
	"adreel/internal/pkg/ffmpeg"
	"adreel/internal/pkg/id"
	"adreel/internal/pkg/layout"
	"adreel/internal/pkg/logger"
)

// durationTolerance 场景时长之和与背景时长允许的误差（秒）
const durationTolerance = 0.1

// Observer 接收阶段切换通知
type Observer func(stage render.Stage)

// Pipeline 渲染流水线
// 单次运行严格串行；不同请求可并发调用 Run，各自使用独立的临时目录
type Pipeline struct {
	client   *ffmpeg.Client
	resolver *layout.Resolver
	clips    ClipGenerator
	opts     Options
	clock    id.Clock
}

// PipelineOption 流水线可选项
type PipelineOption func(*Pipeline)

// WithClipGenerator 替换分镜片段生成器
func WithClipGenerator(g ClipGenerator) PipelineOption {
	return func(p *Pipeline) { p.clips = g }
}

// WithClock 替换临时文件命名使用的时钟
func WithClock(c id.Clock) PipelineOption {
	return func(p *Pipeline) { p.clock = c }
}

// NewPipeline 创建流水线
func NewPipeline(client *ffmpeg.Client, resolver *layout.Resolver, opts Options, options ...PipelineOption) *Pipeline {
	p := &Pipeline{
		client:   client,
		resolver: resolver,
		opts:     opts,
		clock:    time.Now,
	}
	for _, o := range options {
		o(p)
	}
	if p.clips == nil {
		p.clips = NewSceneClipGenerator(client, NewEffectRegistry(opts.Effect), id.NewNamer("scene", p.clock), opts.Width, opts.Height)
	}
	return p
}

// Run 执行一次渲染，返回成片路径
func (p *Pipeline) Run(ctx context.Context, req *render.PipelineRequest) (string, error) {
	return p.RunWithObserver(ctx, req, nil)
}

// RunWithObserver 执行一次渲染，每进入一个阶段调用一次 obs
func (p *Pipeline) RunWithObserver(ctx context.Context, req *render.PipelineRequest, obs Observer) (string, error) {
	requestID := req.RequestID
	if requestID == "" {
		requestID = id.New()
	}
	l := logger.ForRequest(requestID)
	ctx = l.WithContext(ctx)

	run := &pipelineRun{
		Pipeline: p,
		req:      req,
		namer:    id.NewNamer(requestID, p.clock),
		obs:      obs,
	}

	start := time.Now()
	output, err := run.execute(ctx)
	if err != nil {
		l.Error().Err(err).
			Str("stage", string(FailedStage(err))).
			Dur("elapsed", time.Since(start)).
			Msg("渲染失败")
		if p.opts.CleanupOnFailure {
			removeFiles(ctx, run.temps...)
		} else if len(run.temps) > 0 {
			l.Info().Strs("files", run.temps).Msg("保留中间文件用于排查")
		}
		return "", err
	}

	run.enter(render.StageCleanup)
	removeFiles(ctx, run.temps...)
	run.enter(render.StageDone)

	l.Info().
		Str("output", output).
		Dur("elapsed", time.Since(start)).
		Msg("渲染完成")
	return output, nil
}

// pipelineRun 单次运行的状态
type pipelineRun struct {
	*Pipeline
	req   *render.PipelineRequest
	namer *id.Namer
	obs   Observer
	temps []string // 本次运行创建的中间文件
}

func (r *pipelineRun) enter(stage render.Stage) {
	if r.obs != nil {
		r.obs(stage)
	}
}

func stageErr(stage render.Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

func (r *pipelineRun) execute(ctx context.Context) (string, error) {
	req := r.req

	r.enter(render.StageValidate)
	if err := r.validate(); err != nil {
		return "", stageErr(render.StageValidate, err)
	}
	if err := os.MkdirAll(req.TempDir, 0o755); err != nil {
		return "", stageErr(render.StageValidate, fmt.Errorf("create temp dir: %w", err))
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", stageErr(render.StageValidate, fmt.Errorf("create output dir: %w", err))
	}

	// 布局在生成任何片段之前解析
	var cfg *layout.LayoutConfig
	mode := req.AvatarMode
	if req.HasAvatar() {
		r.enter(render.StageLayout)
		if mode == "" {
			mode = layout.FallbackMode
		}
		if !r.resolver.ValidateMode(mode) {
			log.Ctx(ctx).Warn().Str("mode", mode).Str("fallback", layout.FallbackMode).Msg("数字人模式不存在，使用回退模式")
		}
		resolved := r.resolver.Resolve(mode)
		cfg = &resolved
	}

	r.enter(render.StageClips)
	clips, err := r.clips.GenerateClips(ctx, req.Scenes, Dirs{AssetDir: req.AssetDir, TempDir: req.TempDir},
		r.opts.FPS, req.TemplateSet, req.TemplateName, req.LogoPath)
	if err != nil {
		return "", stageErr(render.StageClips, err)
	}
	r.temps = append(r.temps, clipPaths(clips)...)

	r.enter(render.StageBackground)
	assembler := NewAssembler(r.client, r.namer)
	bg, err := assembler.Assemble(ctx, clips, r.namer.Path(req.TempDir, "background", "mp4"))
	if err != nil {
		return "", stageErr(render.StageBackground, err)
	}
	r.temps = append(r.temps, bg.Path)

	r.enter(render.StageProbe)
	canvas, err := assembler.ProbeDimensions(ctx, bg.Path)
	if err != nil {
		return "", stageErr(render.StageProbe, err)
	}
	if d, err := assembler.ProbeDuration(ctx, bg.Path); err == nil {
		bg.Duration = d
	} else if bg.Duration <= 0 {
		return "", stageErr(render.StageProbe, err)
	}
	if expected := sumDurations(clips); math.Abs(expected-bg.Duration) > durationTolerance {
		log.Ctx(ctx).Warn().
			Float64("scenes", expected).
			Float64("background", bg.Duration).
			Msg("背景时长与场景时长之和不一致")
	}
	log.Ctx(ctx).Info().
		Str("stage", string(render.StageProbe)).
		Int("width", canvas.Width).
		Int("height", canvas.Height).
		Float64("duration", bg.Duration).
		Msg("背景探测完成")

	var fg *render.Clip
	if cfg != nil {
		r.enter(render.StageForeground)
		clip, err := NewSynthesizer(r.client, r.namer, r.opts).Synthesize(ctx, ForegroundInput{
			AvatarPath:    req.AvatarPath,
			Scenes:        req.Scenes,
			Mode:          mode,
			Layout:        cfg,
			Canvas:        canvas,
			TotalDuration: bg.Duration,
			TempDir:       req.TempDir,
			OutputPath:    r.namer.Path(req.TempDir, "foreground", "mov"),
		})
		if err != nil {
			return "", stageErr(render.StageForeground, err)
		}
		r.temps = append(r.temps, clip.Path)
		fg = &clip
	}

	r.enter(render.StageCompose)
	err = NewCompositor(r.client, r.opts).Compose(ctx, ComposeInput{
		Background:          bg,
		Foreground:          fg,
		AudioPath:           req.AudioPath,
		BackgroundMusicPath: req.BackgroundMusicPath,
		OutputPath:          req.OutputPath,
	})
	if err != nil {
		return "", stageErr(render.StageCompose, err)
	}
	return req.OutputPath, nil
}

func (r *pipelineRun) validate() error {
	return ValidateRequest(r.req)
}

// ValidateRequest 请求级校验，不触发任何 ffmpeg 调用
// 返回的错误都满足 errors.Is(err, ErrInputValidation)
func ValidateRequest(req *render.PipelineRequest) error {
	if len(req.Scenes) == 0 {
		return &EmptyInputError{What: "scenes"}
	}
	if req.TempDir == "" {
		return &MissingInputError{Role: "temp_dir"}
	}
	if req.OutputPath == "" {
		return &MissingInputError{Role: "output"}
	}
	if err := requireFile("audio", req.AudioPath); err != nil {
		return err
	}
	if req.HasAvatar() {
		if err := requireFile("avatar", req.AvatarPath); err != nil {
			return err
		}
	}
	if req.BackgroundMusicPath != "" {
		if err := requireFile("music", req.BackgroundMusicPath); err != nil {
			return err
		}
	}
	if total := render.TotalDuration(req.Scenes); total <= 0 {
		return &ZeroDurationError{Duration: total}
	}
	return nil
}

func sumDurations(clips []render.Clip) float64 {
	var sum float64
	for _, c := range clips {
		sum += c.Duration
	}
	return sum
}
