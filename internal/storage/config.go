package storage

import (
	"context"
	"fmt"

	"estatehub-backend/internal/config"
)

// New builds the backend selected by cfg.Storage.Type.
func New(ctx context.Context, cfg *config.Config) (Backend, error) {
	policy := Policy{
		MaxBytes:     cfg.MaxUploadBytes(),
		AllowedTypes: cfg.Storage.AllowedTypes,
	}
	switch cfg.Storage.Type {
	case "fs":
		return NewFileStore(cfg.Storage.BaseURL, cfg.Storage.UploadDir, policy)
	case "s3":
		s3cfg := cfg.Storage.S3
		return NewS3Store(ctx, S3Config{
			Bucket:          s3cfg.Bucket,
			Region:          s3cfg.Region,
			Endpoint:        s3cfg.Endpoint,
			Prefix:          s3cfg.Prefix,
			AccessKeyID:     s3cfg.AccessKey,
			SecretAccessKey: s3cfg.SecretKey,
			PathStyle:       s3cfg.UsePathStyle,
			BaseURL:         cfg.Storage.BaseURL,
		}, policy)
	}
	return nil, fmt.Errorf("unsupported storage type: %q", cfg.Storage.Type)
}
