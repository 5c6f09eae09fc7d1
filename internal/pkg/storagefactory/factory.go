package storagefactory

import (
	"context"
	"fmt"

	"adreel/internal/config"
	"adreel/internal/pkg/storage"
	"adreel/internal/pkg/storage/local"
	"adreel/internal/pkg/storage/oss"
	"adreel/internal/pkg/storage/s3"
)

// NewStorage 根据配置创建成片发布目标
// Type 为空时返回 nil, nil，表示只保留本地输出
func NewStorage(ctx context.Context, cfg *config.StorageConfig) (storage.Storage, error) {
	switch storage.StorageType(cfg.Type) {
	case "":
		return nil, nil
	case storage.StorageTypeLocal:
		if cfg.Local == nil {
			return nil, fmt.Errorf("local storage config is required")
		}
		return local.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	case storage.StorageTypeOSS:
		if cfg.OSS == nil {
			return nil, fmt.Errorf("OSS storage config is required")
		}
		return oss.NewOSSStorage(
			cfg.OSS.Endpoint,
			cfg.OSS.Bucket,
			cfg.OSS.AccessKeyID,
			cfg.OSS.AccessKeySecret,
			cfg.OSS.PresignExpiry,
		)
	case storage.StorageTypeS3:
		if cfg.S3 == nil {
			return nil, fmt.Errorf("S3 storage config is required")
		}
		return s3.NewS3Storage(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
