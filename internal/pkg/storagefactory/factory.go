package storagefactory

import (
	"context"
	"fmt"

	"ytfactory/internal/config"
	"ytfactory/internal/pkg/storage"
	"ytfactory/internal/pkg/storage/local"
	"ytfactory/internal/pkg/storage/oss"
)

// NewStorage 根据配置创建存储实例
// type 为空时返回 nil, nil，表示不发布产物
func NewStorage(ctx context.Context, cfg *config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case string(storage.StorageTypeLocal):
		if cfg.Local == nil {
			return nil, fmt.Errorf("local storage config is required")
		}
		return local.NewLocalStorage(cfg.Local.BasePath, cfg.Local.BaseURL)
	case string(storage.StorageTypeOSS):
		if cfg.OSS == nil {
			return nil, fmt.Errorf("OSS storage config is required")
		}
		return oss.NewOSSStorage(
			cfg.OSS.Endpoint,
			cfg.OSS.Bucket,
			cfg.OSS.AccessKeyID,
			cfg.OSS.AccessKeySecret,
			cfg.OSS.Prefix,
			cfg.OSS.PresignExpiry,
		)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
