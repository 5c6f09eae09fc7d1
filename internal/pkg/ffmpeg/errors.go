package ffmpeg

import (
	"fmt"
	"strings"
)

// maxStderrTail 错误信息中保留的 stderr 尾部长度
const maxStderrTail = 2000

// EncodeError ffmpeg 非零退出
// Stderr 保存完整的诊断输出，Error() 只展示尾部
type EncodeError struct {
	Op     string   // 调用方的操作名，如 concat、compose
	Args   []string // 完整参数
	Stderr string
	Err    error
}

func (e *EncodeError) Error() string {
	tail := strings.TrimSpace(e.Stderr)
	if len(tail) > maxStderrTail {
		tail = "..." + tail[len(tail)-maxStderrTail:]
	}
	if tail == "" {
		return fmt.Sprintf("ffmpeg %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ffmpeg %s failed: %v: %s", e.Op, e.Err, tail)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ProbeError ffprobe 无法读取或解析文件
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %q: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }
