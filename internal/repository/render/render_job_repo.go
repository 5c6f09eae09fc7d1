package render

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"adreel/internal/model/render"
)

// ErrNotFound 任务不存在
var ErrNotFound = errors.New("render job not found")

// 分页限制
const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// RenderJobRepository 渲染任务仓库接口
type RenderJobRepository interface {
	Create(ctx context.Context, job *render.RenderJob) error
	FindByID(ctx context.Context, id string) (*render.RenderJob, error)
	List(ctx context.Context, status render.JobStatus, page, pageSize int64) ([]*render.RenderJob, int64, error)
	Update(ctx context.Context, job *render.RenderJob) error
}

// MongoRepo 基于 MongoDB 的 RenderJobRepository
type MongoRepo struct {
	coll *mongo.Collection
}

// NewMongoRepo 创建渲染任务仓库
func NewMongoRepo(db *mongo.Database) *MongoRepo {
	var j render.RenderJob
	return &MongoRepo{coll: db.Collection(j.Collection())}
}

// Create 创建任务
func (r *MongoRepo) Create(ctx context.Context, job *render.RenderJob) error {
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, job)
	return err
}

// FindByID 根据ID查询任务
func (r *MongoRepo) FindByID(ctx context.Context, id string) (*render.RenderJob, error) {
	var job render.RenderJob
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// List 按创建时间倒序分页查询，status 为空表示不过滤
func (r *MongoRepo) List(ctx context.Context, status render.JobStatus, page, pageSize int64) ([]*render.RenderJob, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * pageSize).
		SetLimit(pageSize)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var list []*render.RenderJob
	if err := cur.All(ctx, &list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Update 整体覆盖任务
func (r *MongoRepo) Update(ctx context.Context, job *render.RenderJob) error {
	job.UpdatedAt = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": job.ID}, bson.M{"$set": job})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizePage(page, pageSize int64) (int64, int64) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}
	return page, pageSize
}
