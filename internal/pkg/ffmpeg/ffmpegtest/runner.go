// Package ffmpegtest 提供不依赖真实 ffmpeg 的 Runner，用于各阶段的单元测试
//
// Runner 会记录每次调用的参数，并把输出文件写成占位内容；
// 对 -t 指定时长的输出和 concat 清单会记录时长，供之后的 ffprobe 调用返回。
package ffmpegtest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Call 一次命令调用
type Call struct {
	Name string
	Args []string
}

// Has 判断参数中是否包含连续的 flag value
func (c Call) Has(flag, value string) bool {
	for i := 0; i+1 < len(c.Args); i++ {
		if c.Args[i] == flag && c.Args[i+1] == value {
			return true
		}
	}
	return false
}

// Value 返回 flag 后的第一个值
func (c Call) Value(flag string) string {
	for i := 0; i+1 < len(c.Args); i++ {
		if c.Args[i] == flag {
			return c.Args[i+1]
		}
	}
	return ""
}

// Output 返回最后一个非 flag 参数（即输出路径）
func (c Call) Output() string {
	for i := len(c.Args) - 1; i >= 0; i-- {
		if !strings.HasPrefix(c.Args[i], "-") {
			return c.Args[i]
		}
	}
	return ""
}

// Runner 假的 ffmpeg/ffprobe
type Runner struct {
	Width  int // ffprobe 返回的画布宽度
	Height int

	// FailWhen 返回非 nil 时该次调用失败，stderr 为错误文本
	FailWhen func(call Call) error

	mu        sync.Mutex
	calls     []Call
	durations map[string]float64
}

// New 创建假 Runner，默认画布 1920x1080
func New() *Runner {
	return &Runner{
		Width:     1920,
		Height:    1080,
		durations: make(map[string]float64),
	}
}

// SetDuration 预设某个文件的时长
func (r *Runner) SetDuration(path string, d float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations[path] = d
}

// Duration 返回记录的时长
func (r *Runner) Duration(path string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.durations[path]
}

// Calls 返回所有调用的副本
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// FFmpegCalls 只返回 ffmpeg 调用
func (r *Runner) FFmpegCalls() []Call {
	var out []Call
	for _, c := range r.Calls() {
		if !isProbe(c.Name) {
			out = append(out, c)
		}
	}
	return out
}

// Run 实现 ffmpeg.Runner
func (r *Runner) Run(_ context.Context, name string, args []string) ([]byte, []byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}

	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()

	if r.FailWhen != nil {
		if err := r.FailWhen(call); err != nil {
			return nil, []byte(err.Error()), errors.New("exit status 1")
		}
	}

	if isProbe(name) {
		return r.probe(call)
	}
	return nil, nil, r.render(call)
}

func (r *Runner) probe(call Call) ([]byte, []byte, error) {
	path := call.Args[len(call.Args)-1]
	d := r.Duration(path)
	out := fmt.Sprintf(`{"streams":[{"codec_type":"video","width":%d,"height":%d,"avg_frame_rate":"30/1"},{"codec_type":"audio"}],"format":{"duration":"%.6f"}}`,
		r.Width, r.Height, d)
	return []byte(out), nil, nil
}

func (r *Runner) render(call Call) error {
	output := call.Output()
	if output == "" {
		return nil
	}

	var d float64
	switch {
	case call.Value("-t") != "":
		d, _ = strconv.ParseFloat(call.Value("-t"), 64)
	case call.Has("-f", "concat"):
		sum, err := r.sumList(call.Value("-i"))
		if err != nil {
			return err
		}
		d = sum
	}

	r.SetDuration(output, d)
	return os.WriteFile(output, []byte("fake media"), 0o644)
}

func (r *Runner) sumList(listPath string) (float64, error) {
	f, err := os.Open(listPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var sum float64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		p := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
		sum += r.Duration(p)
	}
	return sum, sc.Err()
}

func isProbe(name string) bool {
	return strings.Contains(name, "ffprobe")
}
