package render

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "adreel/internal/pkg/http"
	"adreel/internal/service"
)

// GetRenderRequest 查询渲染任务请求
type GetRenderRequest struct {
	JobID string `uri:"job_id" binding:"required"`
}

// GetRenderResponseData 查询渲染任务响应数据
type GetRenderResponseData struct {
	Job JobInfo `json:"job"`
}

// GetRender 查询渲染任务
// @Summary      查询渲染任务
// @Description  根据任务ID查询状态、当前阶段与成片地址
// @Tags         渲染
// @Produce      json
// @Param        job_id  path      string  true  "任务ID"
// @Success      200     {object}  map[string]interface{}  "成功响应"
// @Failure      400     {object}  ErrorResponse  "请求参数错误"
// @Failure      404     {object}  ErrorResponse  "任务不存在"
// @Failure      500     {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/renders/{job_id} [get]
func (h *Handler) GetRender(c *gin.Context) {
	var req GetRenderRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Fail(httputil.CodeInvalidParams, "Invalid job_id", err))
		return
	}

	job, err := h.jobService.Get(c.Request.Context(), req.JobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, httputil.Fail(httputil.CodeNotFound, "Render job not found", nil))
			return
		}
		c.JSON(http.StatusInternalServerError, httputil.Fail(httputil.CodeInternal, "Failed to get render job", err))
		return
	}

	c.JSON(http.StatusOK, httputil.OK(GetRenderResponseData{
		Job: toJobInfo(job),
	}))
}
