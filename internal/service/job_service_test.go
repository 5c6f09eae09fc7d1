package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"adreel/internal/model/render"
	"adreel/internal/pkg/cache"
	"adreel/internal/pkg/events"
	"adreel/internal/pkg/storage/local"
	renderrepo "adreel/internal/repository/render"
	rendersvc "adreel/internal/service/render"
)

// fakeRenderer 依次通知各阶段，成功时写出占位成片
type fakeRenderer struct {
	err error

	mu     sync.Mutex
	stages []render.Stage
}

func (f *fakeRenderer) RunWithObserver(ctx context.Context, req *render.PipelineRequest, obs rendersvc.Observer) (string, error) {
	for _, st := range []render.Stage{render.StageValidate, render.StageClips, render.StageBackground, render.StageCompose} {
		f.mu.Lock()
		f.stages = append(f.stages, st)
		f.mu.Unlock()
		obs(st)
	}
	if f.err != nil {
		return "", &rendersvc.StageError{Stage: render.StageCompose, Err: f.err}
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(req.OutputPath, []byte("final video"), 0o644); err != nil {
		return "", err
	}
	obs(render.StageDone)
	return req.OutputPath, nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Get(ctx context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(b, dest)
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []events.EventType
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, e.Type)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func sampleRequest(t *testing.T, dir string) *render.PipelineRequest {
	audio := filepath.Join(dir, "narration.mp3")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return &render.PipelineRequest{
		AudioPath: audio,
		Scenes: []render.Scene{
			{Index: 0, StartTime: 0, EndTime: 3},
			{Index: 1, StartTime: 3, EndTime: 7},
		},
	}
}

func TestJobService(t *testing.T) {
	Convey("渲染任务服务", t, func() {
		dir := t.TempDir()
		repo := renderrepo.NewMemoryRepo()
		jobCache := newMemCache()
		pub := &recordingPublisher{}
		renderer := &fakeRenderer{}

		store, err := local.NewLocalStorage(filepath.Join(dir, "published"), "http://files.local")
		So(err, ShouldBeNil)

		svc := NewJobService(JobDeps{
			Renderer:  renderer,
			Repo:      repo,
			Cache:     jobCache,
			Publisher: pub,
			Storage:   store,
		}, JobConfig{
			TempDir:       filepath.Join(dir, "tmp"),
			OutputDir:     filepath.Join(dir, "out"),
			StoragePrefix: "renders",
			MaxConcurrent: 2,
		})
		ctx := context.Background()

		Convey("异步任务完成后状态、缓存和事件都已更新", func() {
			job, err := svc.Submit(ctx, sampleRequest(t, dir))
			So(err, ShouldBeNil)
			So(job.Status, ShouldEqual, render.JobStatusPending)
			So(job.Request.TempDir, ShouldEqual, filepath.Join(dir, "tmp", job.ID))
			So(job.Request.OutputPath, ShouldEqual, filepath.Join(dir, "out", job.ID+".mp4"))

			So(svc.Shutdown(ctx), ShouldBeNil)

			got, err := svc.Get(ctx, job.ID)
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, render.JobStatusCompleted)
			So(got.Stage, ShouldEqual, render.StageDone)
			So(got.Duration, ShouldAlmostEqual, 7.0)
			So(got.OutputURL, ShouldEqual, "http://files.local/renders/"+job.ID+"/"+job.ID+".mp4")
			So(got.CompletedAt, ShouldNotBeNil)

			stored, err := repo.FindByID(ctx, job.ID)
			So(err, ShouldBeNil)
			So(stored.Status, ShouldEqual, render.JobStatusCompleted)

			_, err = os.Stat(filepath.Join(dir, "published", "renders", job.ID, job.ID+".mp4"))
			So(err, ShouldBeNil)

			So(pub.types, ShouldResemble, []events.EventType{events.EventRenderStarted, events.EventRenderCompleted})
		})

		Convey("渲染失败时记录失败阶段", func() {
			renderer.err = errors.New("Conversion failed!")

			job, err := svc.RunSync(ctx, sampleRequest(t, dir))
			So(err, ShouldNotBeNil)
			So(job.Status, ShouldEqual, render.JobStatusFailed)
			So(job.Stage, ShouldEqual, render.StageCompose)
			So(job.Error, ShouldContainSubstring, "Conversion failed!")
			So(pub.types, ShouldResemble, []events.EventType{events.EventRenderStarted, events.EventRenderFailed})
		})

		Convey("校验失败不创建任务", func() {
			req := sampleRequest(t, dir)
			req.Scenes = nil

			job, err := svc.Submit(ctx, req)
			So(job, ShouldBeNil)
			So(errors.Is(err, rendersvc.ErrInputValidation), ShouldBeTrue)

			list, err := svc.List(ctx, "", 1, 20)
			So(err, ShouldBeNil)
			So(list.Total, ShouldEqual, 0)
			So(renderer.stages, ShouldBeEmpty)
		})

		Convey("缓存未命中时回源仓库", func() {
			job := &render.RenderJob{ID: "from-repo", Status: render.JobStatusPending}
			So(repo.Create(ctx, job), ShouldBeNil)

			got, err := svc.Get(ctx, "from-repo")
			So(err, ShouldBeNil)
			So(got.ID, ShouldEqual, "from-repo")

			var cached render.RenderJob
			So(jobCache.Get(ctx, cache.RenderJobKey("from-repo"), &cached), ShouldBeNil)

			_, err = svc.Get(ctx, "missing")
			So(errors.Is(err, ErrJobNotFound), ShouldBeTrue)
		})

		Convey("列表分页参数归一化", func() {
			for i := 0; i < 3; i++ {
				_, err := svc.RunSync(ctx, sampleRequest(t, dir))
				So(err, ShouldBeNil)
			}
			list, err := svc.List(ctx, render.JobStatusCompleted, 0, 0)
			So(err, ShouldBeNil)
			So(list.Total, ShouldEqual, 3)
			So(list.Page, ShouldEqual, 1)
			So(list.PageSize, ShouldEqual, 20)
		})
	})
}

func TestDefaultConcurrency(t *testing.T) {
	Convey("默认并发数至少为 1", t, func() {
		So(DefaultConcurrency(), ShouldBeGreaterThanOrEqualTo, 1)
	})
}
