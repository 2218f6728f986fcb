package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"sports-pipeline/core/storage"
	"sports-pipeline/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "snapshots/espn/2024-11-02/run-1.json", storage.SnapshotKey("espn", "2024-11-02", "run-1"))
}

func TestArchive_Put(t *testing.T) {
	client := new(mocks.Client)
	archive := storage.NewArchive(client, "snaps")
	raw := []byte(`{"games":[]}`)

	client.On("PutObject", mock.Anything, "snaps", "snapshots/espn/2024-11-02/run-1.json",
		mock.Anything, int64(len(raw)),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "application/json" && o.UserMetadata["run-id"] == "run-1"
		})).
		Return(minio.UploadInfo{}, nil)

	key, err := archive.Put(context.Background(), "espn", "2024-11-02", "run-1", raw)
	require.NoError(t, err)
	assert.Equal(t, "snapshots/espn/2024-11-02/run-1.json", key)
	client.AssertExpectations(t)
}

func TestArchive_PutError(t *testing.T) {
	client := new(mocks.Client)
	archive := storage.NewArchive(client, "snaps")
	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	_, err := archive.Put(context.Background(), "espn", "2024-11-02", "run-1", []byte("{}"))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestArchive_EnsureBucket(t *testing.T) {
	t.Run("Exists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "snaps").Return(true, nil)

		require.NoError(t, storage.NewArchive(client, "snaps").EnsureBucket(context.Background(), ""))
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Created", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "snaps").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "snaps", minio.MakeBucketOptions{Region: "us-east-1"}).Return(nil)

		require.NoError(t, storage.NewArchive(client, "snaps").EnsureBucket(context.Background(), "us-east-1"))
		client.AssertExpectations(t)
	})
}

func TestArchive_Get(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "snaps", "snapshots/espn/2024-11-02/run-1.json", mock.Anything).
		Return(io.NopCloser(strings.NewReader(`{"games":[]}`)), nil)

	data, err := storage.NewArchive(client, "snaps").Get(context.Background(), "snapshots/espn/2024-11-02/run-1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"games":[]}`, string(data))
}

func objects(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func TestArchive_ListAndPrune(t *testing.T) {
	now := time.Now()
	client := new(mocks.Client)
	listing := func() <-chan minio.ObjectInfo {
		return objects(
			minio.ObjectInfo{Key: "snapshots/espn/2024-11-02/b.json", LastModified: now},
			minio.ObjectInfo{Key: "snapshots/espn/2024-10-01/a.json", LastModified: now.Add(-60 * 24 * time.Hour)},
		)
	}
	client.On("ListObjects", mock.Anything, "snaps", minio.ListObjectsOptions{Prefix: "snapshots/espn/", Recursive: true}).
		Return(listing()).Once()
	client.On("ListObjects", mock.Anything, "snaps", minio.ListObjectsOptions{Prefix: "snapshots/", Recursive: true}).
		Return(listing()).Once()
	client.On("RemoveObject", mock.Anything, "snaps", "snapshots/espn/2024-10-01/a.json", mock.Anything).Return(nil)

	archive := storage.NewArchive(client, "snaps")

	refs, err := archive.List(context.Background(), "espn/")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "snapshots/espn/2024-10-01/a.json", refs[0].Key)

	removed, err := archive.Prune(context.Background(), now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	client.AssertExpectations(t)
}
