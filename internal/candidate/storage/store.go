package storage

import (
	"context"
	"fmt"

	"github.com/talentvault/talentvault-backend/pkg/config"
	"github.com/talentvault/talentvault-backend/pkg/logger"
)

// New returns the store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (FileStore, error) {
	switch cfg.Driver {
	case "", config.StorageDriverLocal:
		return NewLocalStore(cfg.UploadDir, log)
	case config.StorageDriverS3:
		return NewS3Store(ctx, cfg.S3, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
