package http

// 业务错误码：前三位为 HTTP 状态码，后两位区分原因
const (
	CodeSuccess       = 0
	CodeInvalidParams = 40001 // 请求体或参数无法解析
	CodeInvalidInput  = 40002 // 渲染输入校验失败（文件缺失、场景为空、时长非正）
	CodeUnknownMode   = 40003 // 数字人模式不存在
	CodeInvalidStatus = 40004 // 任务状态过滤值非法
	CodeNotFound      = 40401
	CodePanic         = 50000
	CodeInternal      = 50001
)

// ErrorResponse 错误响应（所有API共用）
type ErrorResponse struct {
	Code    int    `json:"code"`             // 错误码（非0表示错误）
	Message string `json:"message"`          // 错误消息
	Detail  string `json:"detail,omitempty"` // 错误详情（可选）
}

// SuccessResponse 成功响应（所有API共用）
type SuccessResponse struct {
	Code    int    `json:"code"`           // 0
	Message string `json:"message"`        // 响应消息
	Data    any    `json:"data,omitempty"` // 响应数据（可选）
}

// OK 成功响应
func OK(data any) *SuccessResponse {
	return &SuccessResponse{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	}
}

// Fail 错误响应，err 非 nil 时作为详情
func Fail(code int, message string, err error) *ErrorResponse {
	resp := &ErrorResponse{
		Code:    code,
		Message: message,
	}
	if err != nil {
		resp.Detail = err.Error()
	}
	return resp
}
