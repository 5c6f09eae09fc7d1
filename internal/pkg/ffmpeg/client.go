package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	ffmpeggo "github.com/u2takey/ffmpeg-go"
)

// Client FFmpeg 客户端
// 用于封装 FFmpeg/FFprobe 命令调用，所有调用都是同步阻塞的
type Client struct {
	ffmpegPath  string // FFmpeg 可执行文件路径（默认: ffmpeg）
	ffprobePath string // FFprobe 可执行文件路径（默认: ffprobe）
	runner      Runner
}

// Option 客户端可选项
type Option func(*Client)

// WithRunner 替换命令执行器
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// NewClient 创建 FFmpeg 客户端
// 参数为空时依次读取环境变量 FFMPEG_PATH/FFPROBE_PATH，最后回退到 PATH 中的 ffmpeg/ffprobe
func NewClient(ffmpegPath, ffprobePath string, opts ...Option) *Client {
	if ffmpegPath == "" {
		ffmpegPath = os.Getenv("FFMPEG_PATH")
	}
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	if ffprobePath == "" {
		ffprobePath = os.Getenv("FFPROBE_PATH")
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}

	c := &Client{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		runner:      ExecRunner{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run 执行一次 ffmpeg
// op 只用于日志与错误信息；非零退出返回 *EncodeError，携带 stderr
func (c *Client) Run(ctx context.Context, op string, args []string) error {
	full := append([]string{"-hide_banner", "-nostdin"}, args...)

	log.Debug().
		Str("op", op).
		Str("cmd", c.ffmpegPath+" "+strings.Join(full, " ")).
		Msg("执行 ffmpeg")

	_, stderr, err := c.runner.Run(ctx, c.ffmpegPath, full)
	if err != nil {
		return &EncodeError{
			Op:     op,
			Args:   full,
			Stderr: string(stderr),
			Err:    err,
		}
	}
	return nil
}

// Probe 获取媒体信息
// ffprobe -v error -print_format json -show_format -show_streams <path>
func (c *Client) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}

	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	stdout, stderr, err := c.runner.Run(ctx, c.ffprobePath, args)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &ProbeError{Path: path, Err: err}
	}

	info, err := ParseProbeJSON(stdout)
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}
	return info, nil
}

// Concat 使用 concat demuxer 按流复制拼接（不重新编码）
// listPath 为已写好的清单文件，见 WriteConcatList
func (c *Client) Concat(ctx context.Context, listPath, outputPath string) error {
	if err := c.Run(ctx, "concat", ConcatArgs(listPath, outputPath)); err != nil {
		return err
	}

	log.Info().
		Str("list", listPath).
		Str("output", outputPath).
		Msg("视频拼接成功")
	return nil
}

// ConcatArgs 构建 concat 参数
// ffmpeg -f concat -safe 0 -i list.txt -c copy output -y
func ConcatArgs(listPath, outputPath string) []string {
	return ffmpeggo.Input(listPath, ffmpeggo.KwArgs{"f": "concat", "safe": "0"}).
		Output(outputPath, ffmpeggo.KwArgs{"c": "copy"}).
		OverWriteOutput().
		GetArgs()
}

// WriteConcatList 写入 concat demuxer 清单
// 每行 file '<abs path>'，路径中的单引号按 concat 语法转义
func WriteConcatList(listPath string, paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("get absolute path: %w", err)
		}
		escaped := strings.ReplaceAll(absPath, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}

	if err := os.WriteFile(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	return nil
}
