package render

import (
	"time"

	"adreel/internal/model/render"
	httputil "adreel/internal/pkg/http"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// JobInfo 渲染任务 DTO
type JobInfo struct {
	ID          string  `json:"id"`                     // 任务ID
	Status      string  `json:"status"`                 // pending, running, completed, failed
	Stage       string  `json:"stage,omitempty"`        // 当前（或失败时所在的）阶段
	OutputPath  string  `json:"output_path,omitempty"`  // 本地成片路径
	OutputURL   string  `json:"output_url,omitempty"`   // 对象存储地址
	Error       string  `json:"error,omitempty"`        // 失败原因
	Duration    float64 `json:"duration,omitempty"`     // 成片时长（秒）
	SceneCount  int     `json:"scene_count"`            // 场景数
	AvatarMode  string  `json:"avatar_mode,omitempty"`  // 数字人模式
	CreatedAt   string  `json:"created_at"`             // 创建时间
	UpdatedAt   string  `json:"updated_at"`             // 更新时间
	CompletedAt string  `json:"completed_at,omitempty"` // 结束时间
}

// toJobInfo 将 RenderJob 转换为 DTO
func toJobInfo(job *render.RenderJob) JobInfo {
	info := JobInfo{
		ID:         job.ID,
		Status:     string(job.Status),
		Stage:      string(job.Stage),
		OutputPath: job.OutputPath,
		OutputURL:  job.OutputURL,
		Error:      job.Error,
		Duration:   job.Duration,
		CreatedAt:  job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  job.UpdatedAt.Format(time.RFC3339),
	}
	if job.Request != nil {
		info.SceneCount = len(job.Request.Scenes)
		info.AvatarMode = job.Request.AvatarMode
	}
	if job.CompletedAt != nil {
		info.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return info
}

func toJobInfoList(jobs []*render.RenderJob) []JobInfo {
	list := make([]JobInfo, len(jobs))
	for i, j := range jobs {
		list[i] = toJobInfo(j)
	}
	return list
}
