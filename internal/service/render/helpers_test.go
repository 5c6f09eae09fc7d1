package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"adreel/internal/model/render"
	"adreel/internal/pkg/ffmpeg"
	"adreel/internal/pkg/ffmpeg/ffmpegtest"
	"adreel/internal/pkg/id"
)

var fixedNow = time.UnixMilli(1700000000000)

func fixedClock() time.Time { return fixedNow }

type harness struct {
	dir    string
	fake   *ffmpegtest.Runner
	client *ffmpeg.Client
	namer  *id.Namer
}

func newHarness(t *testing.T) *harness {
	fake := ffmpegtest.New()
	return &harness{
		dir:    t.TempDir(),
		fake:   fake,
		client: ffmpeg.NewClient("ffmpeg", "ffprobe", ffmpeg.WithRunner(fake)),
		namer:  id.NewNamer("req", fixedClock),
	}
}

// file 在临时目录下写入占位文件
func (h *harness) file(t *testing.T, name, content string) string {
	path := filepath.Join(h.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// clip 写入占位片段并记录时长
func (h *harness) clip(t *testing.T, name string, d float64) render.Clip {
	path := h.file(t, name, "clip "+name)
	h.fake.SetDuration(path, d)
	return render.Clip{Path: path, Duration: d}
}

// filesWithExt 列出目录下指定扩展名的文件
func filesWithExt(t *testing.T, dir, ext string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ext) {
			out = append(out, e.Name())
		}
	}
	return out
}

func failOn(substr string) func(ffmpegtest.Call) error {
	return func(c ffmpegtest.Call) error {
		if strings.Contains(strings.Join(c.Args, " "), substr) {
			return errString("Conversion failed!")
		}
		return nil
	}
}

type errString string

func (e errString) Error() string { return string(e) }
