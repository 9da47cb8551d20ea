package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSStore implements ObjectStore on a MongoDB GridFS bucket. The object key is
// used as both the file id and the file name.
type GridFSStore struct {
	client *mongo.Client
	bucket *gridfs.Bucket
	prefix string
}

// GridFSStoreConfig holds configuration for GridFSStore.
type GridFSStoreConfig struct {
	URI      string
	Database string
	Bucket   string
	Prefix   string
}

// NewGridFSStore connects to MongoDB and opens the configured bucket.
func NewGridFSStore(ctx context.Context, cfg GridFSStoreConfig) (*GridFSStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	bucket, err := gridfs.NewBucket(client.Database(cfg.Database), options.GridFSBucket().SetName(cfg.Bucket))
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to open gridfs bucket: %w", err)
	}

	return &GridFSStore{client: client, bucket: bucket, prefix: cfg.Prefix}, nil
}

func (s *GridFSStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := s.prefix + key
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: contentType}})
	if err := s.bucket.UploadFromStreamWithID(name, name, bytes.NewReader(data), opts); err != nil {
		return "", fmt.Errorf("gridfs upload failed for %s: %w", key, err)
	}
	return key, nil
}

func (s *GridFSStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := s.bucket.DownloadToStreamByName(s.prefix+key, &buf); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("gridfs download failed for %s: %w", key, err)
	}
	return buf.Bytes(), nil
}

// Close disconnects the underlying client.
func (s *GridFSStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
