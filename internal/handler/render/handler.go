package render

import (
	"adreel/internal/pkg/layout"
	"adreel/internal/service"
)

// Handler 渲染任务处理器
type Handler struct {
	jobService service.JobService
	resolver   *layout.Resolver
}

// NewHandler 创建渲染任务处理器
func NewHandler(jobService service.JobService, resolver *layout.Resolver) *Handler {
	return &Handler{
		jobService: jobService,
		resolver:   resolver,
	}
}
