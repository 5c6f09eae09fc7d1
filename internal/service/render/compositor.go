package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"adreel/internal/model/render"
	"adreel/internal/pkg/ffmpeg"
)

// ComposeInput 最终合成参数
type ComposeInput struct {
	Background          render.Clip
	Foreground          *render.Clip // nil 表示没有数字人
	AudioPath           string       // 旁白，必需
	BackgroundMusicPath string       // 背景音乐，可选
	OutputPath          string
}

// Compositor 背景、前景与音频的最终合成
type Compositor struct {
	client *ffmpeg.Client
	opts   Options
}

// NewCompositor 创建合成器
func NewCompositor(client *ffmpeg.Client, opts Options) *Compositor {
	return &Compositor{client: client, opts: opts}
}

// Compose 合成成片
// 输入缺失时在调用 ffmpeg 之前返回 MissingInputError
func (c *Compositor) Compose(ctx context.Context, in ComposeInput) error {
	if err := requireFile("background", in.Background.Path); err != nil {
		return err
	}
	if in.Foreground != nil {
		if err := requireFile("foreground", in.Foreground.Path); err != nil {
			return err
		}
	}
	if err := requireFile("audio", in.AudioPath); err != nil {
		return err
	}
	if in.BackgroundMusicPath != "" {
		if err := requireFile("music", in.BackgroundMusicPath); err != nil {
			return err
		}
	}
	if in.OutputPath == "" {
		return &MissingInputError{Role: "output"}
	}
	if in.Background.Duration <= 0 {
		return &ZeroDurationError{Duration: in.Background.Duration}
	}

	if err := c.client.Run(ctx, "compose", c.ComposeArgs(in)); err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("stage", string(render.StageCompose)).
		Bool("avatar", in.Foreground != nil).
		Bool("music", in.BackgroundMusicPath != "").
		Str("output", in.OutputPath).
		Float64("duration", in.Background.Duration).
		Msg("成片合成成功")
	return nil
}

// ComposeArgs 构建合成参数
//
//	ffmpeg -y -i bg.mp4 [-i fg.mov] -i narration.mp3 [-stream_loop -1 -i music.mp3]
//	  -filter_complex "[0:v][1:v]overlay=0:0:shortest=1:format=auto[vout];[2:a]volume=1.0[narr];[3:a]volume=0.12[bgm];[narr][bgm]amix=inputs=2:duration=longest:normalize=0[aout]"
//	  -map [vout] -map [aout] -t T -c:v libx264 -crf 20 -preset medium -pix_fmt yuv420p -c:a aac -b:a 192k -movflags +faststart out.mp4
func (c *Compositor) ComposeArgs(in ComposeInput) []string {
	args := []string{"-y", "-i", in.Background.Path}

	next := 1
	fgIdx := -1
	if in.Foreground != nil {
		args = append(args, "-i", in.Foreground.Path)
		fgIdx = next
		next++
	}

	audioIdx := next
	args = append(args, "-i", in.AudioPath)
	next++

	musicIdx := -1
	if in.BackgroundMusicPath != "" {
		args = append(args, "-stream_loop", "-1", "-i", in.BackgroundMusicPath)
		musicIdx = next
	}

	var filters []string
	videoOut := "0:v"
	if fgIdx >= 0 {
		filters = append(filters, fmt.Sprintf("[0:v][%d:v]overlay=0:0:shortest=1:format=auto[vout]", fgIdx))
		videoOut = "[vout]"
	}

	audioOut := fmt.Sprintf("%d:a", audioIdx)
	if musicIdx >= 0 {
		filters = append(filters,
			fmt.Sprintf("[%d:a]volume=1.0[narr]", audioIdx),
			fmt.Sprintf("[%d:a]volume=%s[bgm]", musicIdx, strconv.FormatFloat(c.opts.MusicVolume, 'f', -1, 64)),
			"[narr][bgm]amix=inputs=2:duration=longest:normalize=0[aout]",
		)
		audioOut = "[aout]"
	}

	if len(filters) > 0 {
		args = append(args, "-filter_complex", strings.Join(filters, ";"))
	}

	args = append(args,
		"-map", videoOut,
		"-map", audioOut,
		"-t", seconds(in.Background.Duration),
		"-c:v", "libx264",
		"-crf", fmt.Sprintf("%d", c.opts.CRF),
		"-preset", c.opts.Preset,
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", c.opts.AudioBitrate,
		"-movflags", "+faststart",
		in.OutputPath,
	)
	return args
}
