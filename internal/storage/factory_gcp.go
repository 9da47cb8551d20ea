//go:build gcp

package storage

import (
	"context"

	"dorm-listing-portal/internal/config"
)

func newGCSStore(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	return NewGCSStore(ctx, GCSStoreConfig{Bucket: cfg.GCS.Bucket, Prefix: cfg.Prefix})
}
