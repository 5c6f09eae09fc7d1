package render

import (
	"errors"
	"fmt"

	"adreel/internal/model/render"
)

// ErrInputValidation 输入校验失败
// 以下校验错误都满足 errors.Is(err, ErrInputValidation)，在调用外部引擎之前返回
var ErrInputValidation = errors.New("input validation failed")

// EmptyInputError 必填列表为空
type EmptyInputError struct {
	What string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s is empty", e.What)
}

func (e *EmptyInputError) Is(target error) bool { return target == ErrInputValidation }

// MissingInputError 必需的输入文件不存在
type MissingInputError struct {
	Role string // background, foreground, audio, music, avatar, clip ...
	Path string
}

func (e *MissingInputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s is required", e.Role)
	}
	return fmt.Sprintf("%s not found: %s", e.Role, e.Path)
}

func (e *MissingInputError) Is(target error) bool { return target == ErrInputValidation }

// InvalidModeError 数字人模式无法解析为布局
type InvalidModeError struct {
	Mode string
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("avatar mode %q has no layout", e.Mode)
}

func (e *InvalidModeError) Is(target error) bool { return target == ErrInputValidation }

// ZeroDurationError 总时长非正
type ZeroDurationError struct {
	Duration float64
}

func (e *ZeroDurationError) Error() string {
	return fmt.Sprintf("duration must be positive, got %.3f", e.Duration)
}

func (e *ZeroDurationError) Is(target error) bool { return target == ErrInputValidation }

// InvalidCanvasError 画布尺寸非法
type InvalidCanvasError struct {
	Canvas render.Canvas
}

func (e *InvalidCanvasError) Error() string {
	return fmt.Sprintf("invalid canvas %dx%d", e.Canvas.Width, e.Canvas.Height)
}

func (e *InvalidCanvasError) Is(target error) bool { return target == ErrInputValidation }

// StageError 附带失败阶段的错误
type StageError struct {
	Stage render.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage 返回错误链中的失败阶段，没有时返回空
func FailedStage(err error) render.Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
