package render

import (
	"context"
	"sort"
	"sync"
	"time"

	"adreel/internal/model/render"
)

// MemoryRepo 进程内 RenderJobRepository
// 未配置 MongoDB 时使用（如 render 子命令与测试），进程退出后数据丢失
type MemoryRepo struct {
	mu   sync.RWMutex
	jobs map[string]*render.RenderJob
}

// NewMemoryRepo 创建内存仓库
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{jobs: make(map[string]*render.RenderJob)}
}

// Create 创建任务
func (r *MemoryRepo) Create(ctx context.Context, job *render.RenderJob) error {
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = clone(job)
	return nil
}

// FindByID 根据ID查询任务
func (r *MemoryRepo) FindByID(ctx context.Context, id string) (*render.RenderJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(job), nil
}

// List 按创建时间倒序分页查询
func (r *MemoryRepo) List(ctx context.Context, status render.JobStatus, page, pageSize int64) ([]*render.RenderJob, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	r.mu.RLock()
	var all []*render.RenderJob
	for _, j := range r.jobs {
		if status == "" || j.Status == status {
			all = append(all, clone(j))
		}
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, k int) bool {
		return all[i].CreatedAt.After(all[k].CreatedAt)
	})

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= total {
		return []*render.RenderJob{}, total, nil
	}
	end := min(start+pageSize, total)
	return all[start:end], total, nil
}

// Update 整体覆盖任务
func (r *MemoryRepo) Update(ctx context.Context, job *render.RenderJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return ErrNotFound
	}
	job.UpdatedAt = time.Now()
	r.jobs[job.ID] = clone(job)
	return nil
}

// clone 存取时复制，避免调用方与仓库共享可变状态
func clone(j *render.RenderJob) *render.RenderJob {
	c := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
