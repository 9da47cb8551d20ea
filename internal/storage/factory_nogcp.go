//go:build !gcp

package storage

import (
	"context"
	"errors"

	"dorm-listing-portal/internal/config"
)

func newGCSStore(_ context.Context, _ config.StorageConfig) (ObjectStore, error) {
	return nil, errors.New("gcs storage requires building with -tags gcp")
}
