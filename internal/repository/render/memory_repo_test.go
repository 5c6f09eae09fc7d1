package render

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"adreel/internal/model/render"
)

func TestMemoryRepo(t *testing.T) {
	Convey("内存任务仓库", t, func() {
		repo := NewMemoryRepo()
		ctx := context.Background()

		Convey("创建后可查询，返回副本", func() {
			job := &render.RenderJob{ID: "a", Status: render.JobStatusPending}
			So(repo.Create(ctx, job), ShouldBeNil)
			So(job.CreatedAt.IsZero(), ShouldBeFalse)

			got, err := repo.FindByID(ctx, "a")
			So(err, ShouldBeNil)
			So(got.Status, ShouldEqual, render.JobStatusPending)

			got.Status = render.JobStatusFailed
			again, _ := repo.FindByID(ctx, "a")
			So(again.Status, ShouldEqual, render.JobStatusPending)
		})

		Convey("不存在返回 ErrNotFound", func() {
			_, err := repo.FindByID(ctx, "missing")
			So(err, ShouldEqual, ErrNotFound)
			So(repo.Update(ctx, &render.RenderJob{ID: "missing"}), ShouldEqual, ErrNotFound)
		})

		Convey("按状态过滤并分页", func() {
			for i := 0; i < 5; i++ {
				status := render.JobStatusCompleted
				if i%2 == 0 {
					status = render.JobStatusFailed
				}
				So(repo.Create(ctx, &render.RenderJob{ID: fmt.Sprintf("job%d", i), Status: status}), ShouldBeNil)
				time.Sleep(time.Millisecond)
			}

			list, total, err := repo.List(ctx, render.JobStatusFailed, 1, 2)
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 3)
			So(len(list), ShouldEqual, 2)
			So(list[0].ID, ShouldEqual, "job4")

			list, total, err = repo.List(ctx, "", 3, 2)
			So(err, ShouldBeNil)
			So(total, ShouldEqual, 5)
			So(len(list), ShouldEqual, 1)
			So(list[0].ID, ShouldEqual, "job0")

			list, _, _ = repo.List(ctx, "", 10, 2)
			So(list, ShouldBeEmpty)
		})
	})
}
