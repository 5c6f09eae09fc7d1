package render

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PipelineRequest 一次渲染请求
// 请求拥有 TempDir 下它创建的所有临时文件，成功后删除
type PipelineRequest struct {
	RequestID           string  `bson:"request_id" json:"request_id" yaml:"request_id"`
	Scenes              []Scene `bson:"scenes" json:"scenes" yaml:"scenes"`
	AvatarPath          string  `bson:"avatar_path,omitempty" json:"avatar_path,omitempty" yaml:"avatar_path,omitempty"` // 为空表示不叠加数字人
	AvatarMode          string  `bson:"avatar_mode,omitempty" json:"avatar_mode,omitempty" yaml:"avatar_mode,omitempty"`
	AudioPath           string  `bson:"audio_path" json:"audio_path" yaml:"audio_path"`
	BackgroundMusicPath string  `bson:"background_music_path,omitempty" json:"background_music_path,omitempty" yaml:"background_music_path,omitempty"`
	TempDir             string  `bson:"temp_dir" json:"temp_dir" yaml:"temp_dir"`
	OutputPath          string  `bson:"output_path" json:"output_path" yaml:"output_path"`

	// 场景片段生成参数
	AssetDir     string `bson:"asset_dir,omitempty" json:"asset_dir,omitempty" yaml:"asset_dir,omitempty"`
	TemplateSet  string `bson:"template_set,omitempty" json:"template_set,omitempty" yaml:"template_set,omitempty"`
	TemplateName string `bson:"template_name,omitempty" json:"template_name,omitempty" yaml:"template_name,omitempty"`
	LogoPath     string `bson:"logo_path,omitempty" json:"logo_path,omitempty" yaml:"logo_path,omitempty"`
}

// HasAvatar 是否需要合成数字人前景
func (r *PipelineRequest) HasAvatar() bool {
	return r.AvatarPath != ""
}

// JobStatus 渲染任务状态
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Stage 流水线阶段
type Stage string

const (
	StageValidate   Stage = "validate"
	StageLayout     Stage = "layout"
	StageClips      Stage = "clips"
	StageBackground Stage = "background"
	StageProbe      Stage = "probe"
	StageForeground Stage = "foreground"
	StageCompose    Stage = "compose"
	StageCleanup    Stage = "cleanup"
	StageDone       Stage = "done"
)

// RenderJob 渲染任务
type RenderJob struct {
	ID          string           `bson:"id" json:"id"`
	Status      JobStatus        `bson:"status" json:"status"`
	Stage       Stage            `bson:"stage,omitempty" json:"stage,omitempty"`
	Request     *PipelineRequest `bson:"request" json:"request"`
	OutputPath  string           `bson:"output_path,omitempty" json:"output_path,omitempty"`
	OutputURL   string           `bson:"output_url,omitempty" json:"output_url,omitempty"` // 上传到对象存储后的地址
	Error       string           `bson:"error,omitempty" json:"error,omitempty"`
	Duration    float64          `bson:"duration,omitempty" json:"duration,omitempty"` // 成片时长（秒）
	CreatedAt   time.Time        `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `bson:"updated_at" json:"updated_at"`
	CompletedAt *time.Time       `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}

// Finished 任务是否已结束
func (j *RenderJob) Finished() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Collection 返回集合名称
func (j *RenderJob) Collection() string { return "render_jobs" }

// EnsureIndexes 创建和维护索引
func (j *RenderJob) EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(j.Collection())
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetName("uniq_id").SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_status_created"),
		},
	}
	_, err := coll.Indexes().CreateMany(ctx, indexes)
	return err
}
