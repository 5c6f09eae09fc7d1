package ffmpeg

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner 执行外部命令并返回 stdout/stderr
// 生产环境使用 ExecRunner，测试中替换为记录参数的假实现
type Runner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr []byte, err error)
}

// ExecRunner 基于 os/exec 的 Runner
// 调用阻塞直到子进程退出，不设置超时
type ExecRunner struct{}

// Run 执行命令
func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
