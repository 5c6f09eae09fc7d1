package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"adreel/internal/pkg/ffmpeg"
	"adreel/internal/pkg/id"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
}

// isImage 按扩展名判断是否为静态图片
func isImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// requireFile 文件不存在时返回 MissingInputError
func requireFile(role, path string) error {
	if !fileExists(path) {
		return &MissingInputError{Role: role, Path: path}
	}
	return nil
}

// copyFile 逐字节复制
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

// removeFiles 尽力删除临时文件，失败只记录日志
func removeFiles(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("清理临时文件失败")
		}
	}
}

// concatFiles 写入清单并按流复制拼接，清单在成功与失败时都会删除
func concatFiles(ctx context.Context, client *ffmpeg.Client, namer *id.Namer, paths []string, outputPath string) error {
	listPath := namer.Path(filepath.Dir(outputPath), "concat", "txt")
	defer removeFiles(ctx, listPath)

	if err := ffmpeg.WriteConcatList(listPath, paths); err != nil {
		return err
	}
	return client.Concat(ctx, listPath, outputPath)
}

func seconds(d float64) string {
	return fmt.Sprintf("%.3f", d)
}
