package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStorage(t *testing.T) {
	Convey("本地存储", t, func() {
		base := t.TempDir()
		s, err := NewLocalStorage(base, "http://localhost:8080/files/")
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("上传后可访问并可删除", func() {
			url, err := s.Upload(ctx, "renders/job1/final.mp4", strings.NewReader("video"), "video/mp4")
			So(err, ShouldBeNil)
			So(url, ShouldEqual, "http://localhost:8080/files/renders/job1/final.mp4")

			data, err := os.ReadFile(filepath.Join(base, "renders", "job1", "final.mp4"))
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, "video")

			ok, err := s.Exists(ctx, "renders/job1/final.mp4")
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)

			signed, err := s.GetPresignedDownloadURL(ctx, "renders/job1/final.mp4", time.Hour)
			So(err, ShouldBeNil)
			So(signed, ShouldEqual, url)

			So(s.Delete(ctx, "renders/job1/final.mp4"), ShouldBeNil)
			ok, _ = s.Exists(ctx, "renders/job1/final.mp4")
			So(ok, ShouldBeFalse)
		})

		Convey("删除不存在的文件视为成功", func() {
			So(s.Delete(ctx, "nope.mp4"), ShouldBeNil)
		})

		Convey("key 不能跳出根目录", func() {
			_, err := s.Upload(ctx, "../../escape.mp4", strings.NewReader("x"), "video/mp4")
			So(err, ShouldBeNil)
			_, statErr := os.Stat(filepath.Join(base, "escape.mp4"))
			So(statErr, ShouldBeNil)
		})

		So(s.GetStorageType(), ShouldEqual, "local")
	})
}
