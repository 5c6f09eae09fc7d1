package id

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// New 生成新的UUID（string格式）
func New() string {
	return uuid.New().String()
}

// IsValid 验证UUID格式是否有效
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Clock 时间来源，测试中可替换为固定时间
type Clock func() time.Time

// Namer 生成请求内唯一的临时文件名
// 文件名格式: <prefix>_<label>_<unixMilli>_<seq>.<ext>
// seq 保证同一毫秒内多次调用不会冲突
type Namer struct {
	prefix string
	clock  Clock
	seq    atomic.Uint64
}

// NewNamer 创建文件名生成器，prefix 一般为请求 ID
func NewNamer(prefix string, clock Clock) *Namer {
	if clock == nil {
		clock = time.Now
	}
	return &Namer{
		prefix: sanitize(prefix),
		clock:  clock,
	}
}

// Name 生成文件名（不含目录）
func (n *Namer) Name(label, ext string) string {
	seq := n.seq.Add(1)
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s_%s_%d_%d.%s", n.prefix, sanitize(label), n.clock().UnixMilli(), seq, ext)
}

// Path 在 dir 下生成文件路径
func (n *Namer) Path(dir, label, ext string) string {
	return filepath.Join(dir, n.Name(label, ext))
}

func sanitize(s string) string {
	if s == "" {
		return "x"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}
