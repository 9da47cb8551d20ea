package storage

import (
	"context"
	"fmt"

	"dorm-listing-portal/internal/config"
)

// New builds the ObjectStore selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Type {
	case "", "file":
		return NewFileStore(cfg.File.Dir, cfg.Prefix)
	case "s3":
		return NewS3Store(ctx, S3StoreConfig{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
			Prefix:   cfg.Prefix,
		})
	case "gridfs":
		return NewGridFSStore(ctx, GridFSStoreConfig{
			URI:      cfg.GridFS.URI,
			Database: cfg.GridFS.Database,
			Bucket:   cfg.GridFS.Bucket,
			Prefix:   cfg.Prefix,
		})
	case "gcs":
		return newGCSStore(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
