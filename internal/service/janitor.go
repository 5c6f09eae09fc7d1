package service

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultTempRetention 临时目录默认保留时长
const DefaultTempRetention = 24 * time.Hour

// Janitor 定时清理 TempDir 下过期的请求子目录
// 失败的渲染默认保留中间文件用于排查，由 Janitor 负责最终回收
type Janitor struct {
	root      string
	retention time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

// NewJanitor 创建清理器
func NewJanitor(root string, retention time.Duration) *Janitor {
	if retention <= 0 {
		retention = DefaultTempRetention
	}
	return &Janitor{
		root:      root,
		retention: retention,
		now:       time.Now,
		cron:      cron.New(),
	}
}

// Start 按 cron 表达式定时执行 Sweep
func (j *Janitor) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, func() {
		if _, err := j.Sweep(); err != nil {
			log.Warn().Err(err).Str("root", j.root).Msg("临时目录清理失败")
		}
	})
	if err != nil {
		return fmt.Errorf("add janitor schedule %q: %w", schedule, err)
	}

	j.cron.Start()
	log.Info().
		Str("schedule", schedule).
		Str("root", j.root).
		Dur("retention", j.retention).
		Msg("临时目录清理任务已启动")
	return nil
}

// Stop 停止调度并等待正在执行的清理结束
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep 删除修改时间早于保留期的子目录，返回删除数量
// 单个目录删除失败只记录日志，继续处理其余目录
func (j *Janitor) Sweep() (int, error) {
	entries, err := os.ReadDir(j.root)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read temp root: %w", err)
	}

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Warn().Err(err).Str("dir", e.Name()).Msg("读取目录信息失败")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(j.root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			log.Warn().Err(err).Str("dir", path).Msg("删除过期临时目录失败")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().Int("removed", removed).Str("root", j.root).Msg("过期临时目录已清理")
	}
	return removed, nil
}
