package server

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"adreel/internal/config"
	"adreel/internal/pkg/cache"
	"adreel/internal/pkg/events"
	"adreel/internal/pkg/ffmpeg"
	"adreel/internal/pkg/layout"
	"adreel/internal/pkg/mongodb"
	"adreel/internal/pkg/storage"
	"adreel/internal/pkg/storagefactory"
	renderrepo "adreel/internal/repository/render"
	"adreel/internal/service"
	rendersvc "adreel/internal/service/render"
)

// Deps 服务依赖，serve 与 render 子命令共用
// Mongo/Redis 不可用时分别退回内存仓库与无缓存
type Deps struct {
	Mongo     *mongodb.Client
	Redis     *cache.RedisCache
	Publisher events.Publisher
	Storage   storage.Storage
	Resolver  *layout.Resolver
	Jobs      service.JobService
}

// BuildDeps 根据配置创建依赖
func BuildDeps(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{Publisher: events.NopPublisher{}}

	// 初始化 MongoDB (可选)
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(ctx, &cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, using in-memory job repository")
		} else {
			d.Mongo = client
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")
			if err := mongodb.EnsureIndexes(ctx, client.Database()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选)
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without job cache")
		} else {
			d.Redis = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	// 初始化 Kafka (可选)
	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := events.NewKafkaPublisher(&cfg.Kafka)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Kafka, job events disabled")
		} else {
			d.Publisher = pub
			log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("connected to Kafka")
		}
	}

	store, err := storagefactory.NewStorage(ctx, &cfg.Storage)
	if err != nil {
		d.Close(ctx)
		return nil, fmt.Errorf("init storage: %w", err)
	}
	d.Storage = store

	d.Resolver = layout.NewResolver(cfg.Render.LayoutFile)
	d.Resolver.Load()

	client := ffmpeg.NewClient(cfg.Render.FFmpegPath, cfg.Render.FFprobePath)
	pipeline := rendersvc.NewPipeline(client, d.Resolver, rendersvc.OptionsFromConfig(&cfg.Render))

	var repo renderrepo.RenderJobRepository = renderrepo.NewMemoryRepo()
	if d.Mongo != nil {
		repo = renderrepo.NewMongoRepo(d.Mongo.Database())
	}

	deps := service.JobDeps{
		Renderer:  pipeline,
		Repo:      repo,
		Publisher: d.Publisher,
		Storage:   d.Storage,
	}
	if d.Redis != nil {
		deps.Cache = d.Redis
	}

	d.Jobs = service.NewJobService(deps, service.JobConfig{
		TempDir:       cfg.Render.TempDir,
		OutputDir:     cfg.Render.OutputDir,
		StoragePrefix: cfg.Storage.Prefix,
		MaxConcurrent: int64(cfg.Render.MaxConcurrent),
		CacheTTL:      cfg.Redis.JobTTL,
	})
	return d, nil
}

// Close 关闭外部连接
func (d *Deps) Close(ctx context.Context) {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Kafka producer")
		}
	}
	if d.Mongo != nil {
		if err := d.Mongo.Close(ctx); err != nil {
			log.Error().Err(err).Msg("failed to close MongoDB connection")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis connection")
		}
	}
}
