package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

const (
	minioUser     = "minioadmin"
	minioPassword = "minioadmin"
)

func TestNewS3Store_RequiresBucket(t *testing.T) {
	_, err := NewS3Store(context.Background(), S3Config{Endpoint: "localhost:9000"})
	assert.EqualError(t, err, "S3_BUCKET is required")
}

func TestValidateContentType(t *testing.T) {
	tests := []struct {
		contentType string
		wantErr     bool
	}{
		{"image/png", false},
		{"image/jpeg", true},
		{"audio/wav", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			err := validateContentType(tt.contentType)
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid content type")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUploadRejectsContentType(t *testing.T) {
	store, err := NewS3Store(context.Background(), S3Config{
		Bucket:    "exports",
		Endpoint:  "localhost:9000",
		AccessKey: minioUser,
		SecretKey: minioPassword,
	})
	require.NoError(t, err)

	err = store.Upload(context.Background(), "exports/x.jpg", "image/jpeg", []byte("x"))
	assert.ErrorContains(t, err, "invalid content type")
}

// setupMinio starts a MinIO container and creates a fresh bucket in it.
func setupMinio(t *testing.T) (endpoint, bucket string) {
	t.Helper()
	ctx := context.Background()

	container, err := tcminio.Run(ctx,
		"minio/minio:RELEASE.2024-10-29T16-01-48Z",
		tcminio.WithUsername(minioUser),
		tcminio.WithPassword(minioPassword),
	)
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, container)

	endpoint, err = container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  miniocreds.NewStaticV4(minioUser, minioPassword, ""),
		Secure: false,
	})
	require.NoError(t, err)

	bucket = "audiogram-test-" + uuid.New().String()[:8]
	require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	return endpoint, bucket
}

func TestS3Store_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	endpoint, bucket := setupMinio(t)
	ctx := context.Background()

	store, err := NewS3Store(ctx, S3Config{
		Bucket:    bucket,
		Endpoint:  endpoint,
		AccessKey: minioUser,
		SecretKey: minioPassword,
	})
	require.NoError(t, err)

	png := []byte("\x89PNG\r\n\x1a\nnot-really-an-image")
	key := "exports/" + uuid.New().String() + "/audio_01-02-2020_John-Doe_03-04-1990.png"
	require.NoError(t, store.Upload(ctx, key, "image/png", png))

	client, err := minio.New(endpoint, &minio.Options{
		Creds: miniocreds.NewStaticV4(minioUser, minioPassword, ""),
	})
	require.NoError(t, err)
	info, err := client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, int64(len(png)), info.Size)

	url, err := store.GenerateDownloadURL(ctx, key)
	require.NoError(t, err)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(png, body))

	require.NoError(t, store.DeleteFile(ctx, key))
	_, err = client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	assert.Error(t, err)
}
