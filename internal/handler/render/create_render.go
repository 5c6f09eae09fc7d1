package render

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"adreel/internal/model/render"
	httputil "adreel/internal/pkg/http"
	rendersvc "adreel/internal/service/render"
)

// CreateRenderRequest 提交渲染请求
// 临时目录与输出路径由服务端分配
type CreateRenderRequest struct {
	Scenes              []render.Scene `json:"scenes" binding:"required"`     // 场景列表（必填）
	AudioPath           string         `json:"audio_path" binding:"required"` // 旁白音频（必填）
	AvatarPath          string         `json:"avatar_path,omitempty"`         // 数字人图片或视频，为空不叠加
	AvatarMode          string         `json:"avatar_mode,omitempty"`         // 数字人布局模式
	BackgroundMusicPath string         `json:"background_music_path,omitempty"`
	AssetDir            string         `json:"asset_dir,omitempty"`     // 相对素材路径的根目录
	TemplateSet         string         `json:"template_set,omitempty"`  // 效果模板组
	TemplateName        string         `json:"template_name,omitempty"` // 效果模板名
	LogoPath            string         `json:"logo_path,omitempty"`     // 右上角 logo
}

func (r *CreateRenderRequest) toPipelineRequest() *render.PipelineRequest {
	return &render.PipelineRequest{
		Scenes:              r.Scenes,
		AudioPath:           r.AudioPath,
		AvatarPath:          r.AvatarPath,
		AvatarMode:          r.AvatarMode,
		BackgroundMusicPath: r.BackgroundMusicPath,
		AssetDir:            r.AssetDir,
		TemplateSet:         r.TemplateSet,
		TemplateName:        r.TemplateName,
		LogoPath:            r.LogoPath,
	}
}

// CreateRenderResponseData 提交渲染响应数据
type CreateRenderResponseData struct {
	Job JobInfo `json:"job"`
}

// CreateRender 提交渲染任务
// @Summary      提交渲染任务
// @Description  校验输入后创建渲染任务并在后台执行，返回任务ID
// @Tags         渲染
// @Accept       json
// @Produce      json
// @Param        request  body      CreateRenderRequest  true  "渲染请求"
// @Success      202      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Router       /api/v1/renders [post]
func (h *Handler) CreateRender(c *gin.Context) {
	var req CreateRenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.Fail(httputil.CodeInvalidParams, "Invalid request body", err))
		return
	}

	if req.AvatarMode != "" && !h.resolver.ValidateMode(req.AvatarMode) {
		c.JSON(http.StatusBadRequest, httputil.Fail(httputil.CodeUnknownMode, "Unknown avatar_mode: "+req.AvatarMode, nil))
		return
	}

	job, err := h.jobService.Submit(c.Request.Context(), req.toPipelineRequest())
	if err != nil {
		if errors.Is(err, rendersvc.ErrInputValidation) {
			c.JSON(http.StatusBadRequest, httputil.Fail(httputil.CodeInvalidInput, "Invalid render input", err))
			return
		}
		c.JSON(http.StatusInternalServerError, httputil.Fail(httputil.CodeInternal, "Failed to submit render job", err))
		return
	}

	c.JSON(http.StatusAccepted, httputil.OK(CreateRenderResponseData{
		Job: toJobInfo(job),
	}))
}
