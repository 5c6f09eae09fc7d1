package render

import (
	"net/http"

	"github.com/gin-gonic/gin"

	httputil "adreel/internal/pkg/http"
	"adreel/internal/pkg/layout"
)

// ListLayoutsResponseData 布局模式列表
type ListLayoutsResponseData struct {
	Modes    []string `json:"modes"`
	Fallback string   `json:"fallback"`  // 未知模式回退到的模式
	FromFile bool     `json:"from_file"` // false 表示使用内置模式表
}

// GetLayoutResponseData 单个模式的解析结果
type GetLayoutResponseData struct {
	Mode     string              `json:"mode"`
	Valid    bool                `json:"valid"`    // 模式是否存在，false 时 layout 为回退模式的配置
	Behavior layout.Behavior     `json:"behavior"` // 解析后的模式族 fixed/cyclic
	Layout   layout.LayoutConfig `json:"layout"`
}

// ListLayouts 数字人布局模式列表
// @Summary      布局模式列表
// @Tags         布局
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "成功响应"
// @Router       /api/v1/layouts [get]
func (h *Handler) ListLayouts(c *gin.Context) {
	c.JSON(http.StatusOK, httputil.OK(ListLayoutsResponseData{
		Modes:    h.resolver.Modes(),
		Fallback: layout.FallbackMode,
		FromFile: h.resolver.FromFile(),
	}))
}

// GetLayout 解析数字人布局模式
// @Summary      解析布局模式
// @Description  返回模式合并默认值后的完整布局配置，未知模式返回回退配置并标记 valid=false
// @Tags         布局
// @Produce      json
// @Param        mode  path      string  true  "模式名"
// @Success      200   {object}  map[string]interface{}  "成功响应"
// @Router       /api/v1/layouts/{mode} [get]
func (h *Handler) GetLayout(c *gin.Context) {
	mode := c.Param("mode")
	valid := h.resolver.ValidateMode(mode)
	cfg := h.resolver.Resolve(mode)

	resolvedMode := mode
	if !valid {
		resolvedMode = layout.FallbackMode
	}

	c.JSON(http.StatusOK, httputil.OK(GetLayoutResponseData{
		Mode:     mode,
		Valid:    valid,
		Behavior: layout.ResolveBehavior(resolvedMode, cfg),
		Layout:   cfg,
	}))
}
