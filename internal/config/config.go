package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Storage StorageConfig `mapstructure:"storage"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Render  RenderConfig  `mapstructure:"render"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	JobTTL   time.Duration `mapstructure:"job_ttl"` // 任务状态缓存过期时间
}

// StorageConfig 存储配置
// Type 为空时不上传成片，只保留本地输出文件
type StorageConfig struct {
	Type   string       `mapstructure:"type"`   // local, oss, s3
	Prefix string       `mapstructure:"prefix"` // 对象 key 前缀
	Local  *LocalConfig `mapstructure:"local,omitempty"`
	OSS    *OSSConfig   `mapstructure:"oss,omitempty"`
	S3     *S3Config    `mapstructure:"s3,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath      string `mapstructure:"base_path"`      // 基础路径
	BaseURL       string `mapstructure:"base_url"`       // 基础URL（用于生成访问URL）
	PresignExpiry int    `mapstructure:"presign_expiry"` // 预签名URL过期时间（秒）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
}

// S3Config AWS S3（或兼容服务）配置
// AccessKeyID 为空时使用 AWS 默认凭证链
type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`       // 自定义端点（MinIO 等），可选
	UsePathStyle    bool   `mapstructure:"use_path_style"` // 路径风格寻址
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	PresignExpiry   int    `mapstructure:"presign_expiry"`
}

// KafkaConfig 任务事件投递配置，Brokers 为空时不投递
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// RenderConfig 渲染流水线配置
type RenderConfig struct {
	FFmpegPath       string        `mapstructure:"ffmpeg_path"`
	FFprobePath      string        `mapstructure:"ffprobe_path"`
	FPS              int           `mapstructure:"fps"`
	Width            int           `mapstructure:"width"`              // 分镜片段输出宽度
	Height           int           `mapstructure:"height"`             // 分镜片段输出高度
	TempDir          string        `mapstructure:"temp_dir"`           // 每个请求在其下创建独立子目录
	OutputDir        string        `mapstructure:"output_dir"`         // 异步任务的成片目录
	LayoutFile       string        `mapstructure:"layout_file"`        // 数字人布局配置 JSON
	Effect           string        `mapstructure:"effect"`             // 默认分镜效果
	CRF              int           `mapstructure:"crf"`                // libx264 画质
	Preset           string        `mapstructure:"preset"`             // libx264 preset
	AudioBitrate     string        `mapstructure:"audio_bitrate"`      // 如 192k
	MusicVolume      float64       `mapstructure:"music_volume"`       // 背景音乐相对旁白的音量
	MaxConcurrent    int           `mapstructure:"max_concurrent"`     // 并行渲染请求数，0 表示按 CPU 核数
	CleanupOnFailure bool          `mapstructure:"cleanup_on_failure"` // 失败时是否也清理中间文件
	ClampToCanvas    bool          `mapstructure:"clamp_to_canvas"`    // 固定位置模式是否把坐标限制在画布内
	TempRetention    time.Duration `mapstructure:"temp_retention"`     // 临时目录保留时长
	JanitorSchedule  string        `mapstructure:"janitor_schedule"`   // cron 表达式，为空不启用
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	return c.Render.Validate()
}

// Validate 验证渲染配置
func (r *RenderConfig) Validate() error {
	if r.FPS <= 0 {
		return errors.New("render.fps must be positive")
	}
	if r.Width <= 0 || r.Height <= 0 {
		return errors.New("render.width and render.height must be positive")
	}
	if r.CRF < 0 || r.CRF > 51 {
		return errors.New("render.crf must be within [0, 51]")
	}
	if r.MusicVolume < 0 || r.MusicVolume > 1 {
		return errors.New("render.music_volume must be within [0, 1]")
	}
	if r.TempDir == "" {
		return errors.New("render.temp_dir is required")
	}
	return nil
}
