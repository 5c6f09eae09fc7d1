package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/semaphore"

	"adreel/internal/model/render"
	"adreel/internal/pkg/cache"
	"adreel/internal/pkg/events"
	"adreel/internal/pkg/id"
	"adreel/internal/pkg/storage"
	renderrepo "adreel/internal/repository/render"
	rendersvc "adreel/internal/service/render"
)

// ErrJobNotFound 任务不存在
var ErrJobNotFound = renderrepo.ErrNotFound

// Renderer 执行一次渲染，*rendersvc.Pipeline 实现了该接口
type Renderer interface {
	RunWithObserver(ctx context.Context, req *render.PipelineRequest, obs rendersvc.Observer) (string, error)
}

// JobCache 任务状态缓存，*cache.RedisCache 实现了该接口
type JobCache interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Get(ctx context.Context, key string, dest any) error
}

// JobService 渲染任务服务接口
type JobService interface {
	Submit(ctx context.Context, req *render.PipelineRequest) (*render.RenderJob, error)
	Get(ctx context.Context, jobID string) (*render.RenderJob, error)
	List(ctx context.Context, status render.JobStatus, page, pageSize int64) (*JobListResult, error)
	RunSync(ctx context.Context, req *render.PipelineRequest) (*render.RenderJob, error)
	Shutdown(ctx context.Context) error
}

// JobListResult 任务列表结果
type JobListResult struct {
	Jobs     []*render.RenderJob
	Total    int64
	Page     int64
	PageSize int64
}

// JobConfig 任务服务参数
type JobConfig struct {
	TempDir       string        // 每个任务在其下创建 <job_id> 子目录
	OutputDir     string        // 未指定输出路径时成片写到 <output_dir>/<job_id>.mp4
	StoragePrefix string        // 上传 key 前缀
	MaxConcurrent int64         // 并行渲染数，<=0 时按 CPU 核数
	CacheTTL      time.Duration // 缓存过期时间，<=0 时使用 cache.RenderJobTTL
}

// JobDeps 任务服务依赖，Cache/Publisher/Storage 可为空
type JobDeps struct {
	Renderer  Renderer
	Repo      renderrepo.RenderJobRepository
	Cache     JobCache
	Publisher events.Publisher
	Storage   storage.Storage
}

type jobService struct {
	renderer  Renderer
	repo      renderrepo.RenderJobRepository
	cache     JobCache
	publisher events.Publisher
	store     storage.Storage
	cfg       JobConfig

	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	ctx    context.Context // 异步任务使用，Shutdown 超时后取消
	cancel context.CancelFunc
}

// NewJobService 创建 JobService
func NewJobService(deps JobDeps, cfg JobConfig) JobService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConcurrency()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.RenderJobTTL
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	log.Info().Int64("max_concurrent", cfg.MaxConcurrent).Msg("渲染任务服务已创建")

	return &jobService{
		renderer:  deps.Renderer,
		repo:      deps.Repo,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		store:     deps.Storage,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// DefaultConcurrency 逻辑 CPU 核数，获取失败时为 1
func DefaultConcurrency() int64 {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		log.Warn().Err(err).Msg("获取 CPU 核数失败，并发数使用 1")
		return 1
	}
	return int64(n)
}

// Submit 校验并创建任务，渲染在后台执行
func (s *jobService) Submit(ctx context.Context, req *render.PipelineRequest) (*render.RenderJob, error) {
	job, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	// 后台 goroutine 会修改 job，返回快照
	snapshot := *job

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			s.fail(s.ctx, job, fmt.Errorf("wait for render slot: %w", err))
			return
		}
		defer s.sem.Release(1)

		_ = s.execute(s.ctx, job)
	}()

	return &snapshot, nil
}

// RunSync 同步执行一次渲染，供命令行使用
func (s *jobService) RunSync(ctx context.Context, req *render.PipelineRequest) (*render.RenderJob, error) {
	job, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.fail(ctx, job, fmt.Errorf("wait for render slot: %w", err))
		return job, err
	}
	defer s.sem.Release(1)

	if err := s.execute(ctx, job); err != nil {
		return job, err
	}
	return job, nil
}

// prepare 分配任务ID、临时目录和输出路径，校验后持久化为 pending
func (s *jobService) prepare(ctx context.Context, req *render.PipelineRequest) (*render.RenderJob, error) {
	if req == nil {
		return nil, &rendersvc.EmptyInputError{What: "request"}
	}
	if req.RequestID == "" {
		req.RequestID = id.New()
	}
	if req.TempDir == "" {
		req.TempDir = filepath.Join(s.cfg.TempDir, req.RequestID)
	}
	if req.OutputPath == "" {
		req.OutputPath = filepath.Join(s.cfg.OutputDir, req.RequestID+".mp4")
	}

	if err := rendersvc.ValidateRequest(req); err != nil {
		return nil, err
	}

	job := &render.RenderJob{
		ID:      req.RequestID,
		Status:  render.JobStatusPending,
		Request: req,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create render job: %w", err)
	}
	s.cacheJob(ctx, job)

	log.Info().Str("job_id", job.ID).Int("scenes", len(req.Scenes)).Msg("渲染任务已创建")
	return job, nil
}

// execute 执行流水线并记录每个阶段
func (s *jobService) execute(ctx context.Context, job *render.RenderJob) error {
	job.Status = render.JobStatusRunning
	s.save(ctx, job)
	s.publish(ctx, events.Event{Type: events.EventRenderStarted, JobID: job.ID})

	output, err := s.renderer.RunWithObserver(ctx, job.Request, func(stage render.Stage) {
		job.Stage = stage
		s.save(ctx, job)
	})
	if err != nil {
		s.fail(ctx, job, err)
		return err
	}

	job.OutputPath = output
	job.Duration = render.TotalDuration(job.Request.Scenes)
	if s.store != nil {
		url, err := s.upload(ctx, job.ID, output)
		if err != nil {
			// 上传失败不影响任务结果，本地成片仍然可用
			log.Warn().Err(err).Str("job_id", job.ID).Str("output", output).Msg("成片上传失败")
		} else {
			job.OutputURL = url
		}
	}

	now := time.Now()
	job.Status = render.JobStatusCompleted
	job.Error = ""
	job.CompletedAt = &now
	s.save(ctx, job)
	s.publish(ctx, events.Event{
		Type:       events.EventRenderCompleted,
		JobID:      job.ID,
		Stage:      string(job.Stage),
		OutputPath: job.OutputPath,
		OutputURL:  job.OutputURL,
	})

	log.Info().
		Str("job_id", job.ID).
		Str("output", job.OutputPath).
		Str("url", job.OutputURL).
		Msg("渲染任务完成")
	return nil
}

func (s *jobService) fail(ctx context.Context, job *render.RenderJob, err error) {
	now := time.Now()
	job.Status = render.JobStatusFailed
	job.Error = err.Error()
	if stage := rendersvc.FailedStage(err); stage != "" {
		job.Stage = stage
	}
	job.CompletedAt = &now
	s.save(ctx, job)
	s.publish(ctx, events.Event{
		Type:  events.EventRenderFailed,
		JobID: job.ID,
		Stage: string(job.Stage),
		Error: job.Error,
	})

	log.Error().Err(err).Str("job_id", job.ID).Str("stage", string(job.Stage)).Msg("渲染任务失败")
}

func (s *jobService) upload(ctx context.Context, jobID, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	key := storage.JoinKey(s.cfg.StoragePrefix, jobID, filepath.Base(path))
	return s.store.Upload(ctx, key, f, storage.ContentType(path))
}

// save 写入仓库与缓存，失败只记录日志
func (s *jobService) save(ctx context.Context, job *render.RenderJob) {
	if err := s.repo.Update(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("更新渲染任务失败")
	}
	s.cacheJob(ctx, job)
}

func (s *jobService) cacheJob(ctx context.Context, job *render.RenderJob) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, cache.RenderJobKey(job.ID), job, s.cfg.CacheTTL); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("缓存渲染任务失败")
	}
}

func (s *jobService) publish(ctx context.Context, e events.Event) {
	e.Timestamp = time.Now()
	if err := s.publisher.Publish(ctx, e); err != nil {
		log.Warn().Err(err).Str("job_id", e.JobID).Str("type", string(e.Type)).Msg("投递任务事件失败")
	}
}

// Get 查询任务，优先读缓存
func (s *jobService) Get(ctx context.Context, jobID string) (*render.RenderJob, error) {
	if s.cache != nil {
		var job render.RenderJob
		err := s.cache.Get(ctx, cache.RenderJobKey(jobID), &job)
		if err == nil {
			return &job, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("job_id", jobID).Msg("读取任务缓存失败")
		}
	}

	job, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	s.cacheJob(ctx, job)
	return job, nil
}

// List 分页查询任务
func (s *jobService) List(ctx context.Context, status render.JobStatus, page, pageSize int64) (*JobListResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	jobs, total, err := s.repo.List(ctx, status, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &JobListResult{
		Jobs:     jobs,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// Shutdown 等待后台任务结束，ctx 到期后取消仍在运行的渲染
func (s *jobService) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}
