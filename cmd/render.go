package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"adreel/internal/model/render"
	"adreel/internal/pkg/logger"
	"adreel/internal/server"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run one render from a request file",
	Long: `Run the composition pipeline once for the request described in a YAML
(or JSON) file and print the final video path to stdout.

Example:
  adreel render -f job.yaml -o out/final.mp4`,
	RunE: runRender,
}

var (
	requestFile string
	outputPath  string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	flags := renderCmd.Flags()
	flags.StringVarP(&requestFile, "file", "f", "", "render request file (YAML or JSON)")
	flags.StringVarP(&outputPath, "output", "o", "", "final video path (overrides output_path in the request)")
	flags.String("avatar-mode", "", "avatar layout mode (overrides avatar_mode in the request)")
	flags.Bool("cleanup-on-failure", false, "remove intermediate files when the render fails")
	_ = renderCmd.MarkFlagRequired("file")

	_ = viper.BindPFlag("render.cleanup_on_failure", flags.Lookup("cleanup-on-failure"))
}

// loadRequest 读取请求文件，YAML 是 JSON 的超集，两种格式都用 yaml 解析
func loadRequest(path string) (*render.PipelineRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	var req render.PipelineRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request file: %w", err)
	}
	return &req, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Render.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// stdout 只输出成片路径
	if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
		cfg.Log.Output = "stderr"
		if err := logger.Init(&cfg.Log); err != nil {
			return err
		}
	}

	req, err := loadRequest(requestFile)
	if err != nil {
		return err
	}
	if outputPath != "" {
		req.OutputPath = outputPath
	}
	if mode, _ := cmd.Flags().GetString("avatar-mode"); mode != "" {
		req.AvatarMode = mode
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := server.BuildDeps(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init dependencies: %w", err)
	}
	defer deps.Close(context.Background())

	job, err := deps.Jobs.RunSync(ctx, req)
	if err != nil {
		if job != nil {
			log.Error().Str("job_id", job.ID).Str("stage", string(job.Stage)).Msg("render failed")
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), job.OutputPath)
	if job.OutputURL != "" {
		fmt.Fprintln(cmd.OutOrStdout(), job.OutputURL)
	}
	return nil
}
