package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/suPer8Hu/docchat/internal/config"
)

// Storage archives original document binaries.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// New picks the backend named by cfg.StorageBackend.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Storage, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Storage(ctx, cfg, log)
	case "", "local":
		return NewLocalStorage(cfg.LocalStoragePath)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}
}
