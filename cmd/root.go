package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"adreel/internal/config"
	"adreel/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "adreel",
	Short: "Adreel - avatar ad video composer",
	Long: `Adreel assembles scene clips into a background video, overlays a talking
avatar in a fixed or cyclic layout, and mixes narration with background music
into the final ad video. All media work is done by ffmpeg.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 只补充未设置的环境变量，不存在时忽略
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.adreel")
	}

	// 环境变量设置
	viper.SetEnvPrefix("ADREEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB / Redis 为空时不启用
	viper.SetDefault("mongo.database", "adreel")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.job_ttl", "24h")

	// Storage
	viper.SetDefault("storage.prefix", "renders")

	// Kafka
	viper.SetDefault("kafka.topic", "adreel.render.events")

	// Render
	viper.SetDefault("render.fps", 30)
	viper.SetDefault("render.width", 1920)
	viper.SetDefault("render.height", 1080)
	viper.SetDefault("render.temp_dir", "./data/tmp")
	viper.SetDefault("render.output_dir", "./data/output")
	viper.SetDefault("render.layout_file", "./configs/avatar_layouts.json")
	viper.SetDefault("render.effect", "static")
	viper.SetDefault("render.crf", 20)
	viper.SetDefault("render.preset", "medium")
	viper.SetDefault("render.audio_bitrate", "192k")
	viper.SetDefault("render.music_volume", 0.12)
	viper.SetDefault("render.max_concurrent", 0)
	viper.SetDefault("render.cleanup_on_failure", false)
	viper.SetDefault("render.clamp_to_canvas", false)
	viper.SetDefault("render.temp_retention", "24h")
	viper.SetDefault("render.janitor_schedule", "@every 1h")
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
