package render

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"adreel/internal/model/render"
	"adreel/internal/pkg/ffmpeg"
	"adreel/internal/pkg/id"
)

// Assembler 背景视频拼接
type Assembler struct {
	client *ffmpeg.Client
	namer  *id.Namer
}

// NewAssembler 创建背景拼接器
func NewAssembler(client *ffmpeg.Client, namer *id.Namer) *Assembler {
	return &Assembler{client: client, namer: namer}
}

// Assemble 按顺序拼接分镜片段
//   - 没有片段: EmptyInputError
//   - 单个片段: 原样复制到 outputPath，时长直接沿用
//   - 多个片段: concat 清单 + 流复制，不重新编码
func (a *Assembler) Assemble(ctx context.Context, clips []render.Clip, outputPath string) (render.Clip, error) {
	if len(clips) == 0 {
		return render.Clip{}, &EmptyInputError{What: "clips"}
	}
	if outputPath == "" {
		return render.Clip{}, &MissingInputError{Role: "background output"}
	}

	paths := make([]string, 0, len(clips))
	var sum float64
	for _, c := range clips {
		if err := requireFile("clip", c.Path); err != nil {
			return render.Clip{}, err
		}
		paths = append(paths, c.Path)
		sum += c.Duration
	}

	if len(clips) == 1 {
		if err := copyFile(clips[0].Path, outputPath); err != nil {
			return render.Clip{}, fmt.Errorf("copy single clip: %w", err)
		}
		log.Ctx(ctx).Info().
			Str("stage", string(render.StageBackground)).
			Str("output", outputPath).
			Float64("duration", clips[0].Duration).
			Msg("单个片段直接复制为背景")
		return render.Clip{Path: outputPath, Duration: clips[0].Duration}, nil
	}

	if err := concatFiles(ctx, a.client, a.namer, paths, outputPath); err != nil {
		return render.Clip{}, err
	}

	duration := sum
	if d, err := a.ProbeDuration(ctx, outputPath); err == nil {
		duration = d
	} else {
		log.Ctx(ctx).Debug().Err(err).Msg("背景时长探测失败，使用片段时长之和")
	}

	log.Ctx(ctx).Info().
		Str("stage", string(render.StageBackground)).
		Int("clips", len(clips)).
		Str("output", outputPath).
		Float64("duration", duration).
		Msg("背景拼接成功")
	return render.Clip{Path: outputPath, Duration: duration}, nil
}

// ProbeDimensions 探测视频画布尺寸
func (a *Assembler) ProbeDimensions(ctx context.Context, path string) (render.Canvas, error) {
	info, err := a.client.Probe(ctx, path)
	if err != nil {
		return render.Canvas{}, err
	}
	canvas := render.Canvas{Width: info.Width, Height: info.Height}
	if !info.HasVideo || !canvas.Valid() {
		return render.Canvas{}, &ffmpeg.ProbeError{Path: path, Err: errors.New("no usable video stream")}
	}
	return canvas, nil
}

// ProbeDuration 探测时长（秒）
func (a *Assembler) ProbeDuration(ctx context.Context, path string) (float64, error) {
	info, err := a.client.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if info.Duration <= 0 {
		return 0, &ffmpeg.ProbeError{Path: path, Err: errors.New("duration unavailable")}
	}
	return info.Duration, nil
}
