package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"dorm-listing-portal/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreUploadAndGet(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "images/listings/")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Upload(ctx, "listing_image_a.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "listing_image_a.png", key)

	_, err = os.Stat(filepath.Join(dir, "images", "listings", "listing_image_a.png"))
	require.NoError(t, err)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestFileStoreGetMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFileStoreRejectsCancelledContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Upload(ctx, "a.png", []byte("x"), "image/png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"listing_image_1.png", true},
		{"nested/listing_image_1.png", true},
		{"", false},
		{"/etc/passwd", false},
		{"../escape.png", false},
		{`a\b.png`, false},
	}
	for _, tt := range tests {
		err := ValidateKey(tt.key)
		if tt.valid {
			assert.NoError(t, err, tt.key)
		} else {
			assert.Error(t, err, tt.key)
		}
	}
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(context.Background(), config.StorageConfig{Type: "file", File: config.FileConfig{Dir: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = New(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)
}
