package render

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"adreel/internal/model/render"
	httputil "adreel/internal/pkg/http"
)

// ListRendersRequest 渲染任务列表请求
type ListRendersRequest struct {
	Status   string `form:"status"`    // 按状态过滤，可选
	Page     int64  `form:"page"`      // 页码，默认 1
	PageSize int64  `form:"page_size"` // 每页数量，默认 20
}

// ListRendersResponseData 渲染任务列表响应数据
type ListRendersResponseData struct {
	Jobs     []JobInfo `json:"jobs"`
	Total    int64     `json:"total"`
	Page     int64     `json:"page"`
	PageSize int64     `json:"page_size"`
}

var validStatuses = map[render.JobStatus]bool{
	render.JobStatusPending:   true,
	render.JobStatusRunning:   true,
	render.JobStatusCompleted: true,
	render.JobStatusFailed:    true,
}

// ListRenders 渲染任务列表
// @Summary      渲染任务列表
// @Description  按创建时间倒序分页查询渲染任务
// @Tags         渲染
// @Produce      json
// @Param        status     query     string  false  "任务状态"
// @Param        page       query     int     false  "页码"
// @Param        page_size  query     int     false  "每页数量"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      400        {object}  ErrorResponse  "请求参数错误"
// @Failure      500        {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/renders [get]
func (h *Handler) ListRenders(c *gin.Context) {
	var req ListRendersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Fail(httputil.CodeInvalidParams, "Invalid query parameters", err))
		return
	}

	status := render.JobStatus(req.Status)
	if status != "" && !validStatuses[status] {
		c.JSON(http.StatusBadRequest, httputil.Fail(httputil.CodeInvalidStatus, "Invalid status, must be pending/running/completed/failed", nil))
		return
	}

	result, err := h.jobService.List(c.Request.Context(), status, req.Page, req.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httputil.Fail(httputil.CodeInternal, "Failed to list render jobs", err))
		return
	}

	c.JSON(http.StatusOK, httputil.OK(ListRendersResponseData{
		Jobs:     toJobInfoList(result.Jobs),
		Total:    result.Total,
		Page:     result.Page,
		PageSize: result.PageSize,
	}))
}
