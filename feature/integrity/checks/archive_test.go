package checks

import (
	"context"
	"errors"
	"testing"

	"sports-pipeline/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func objects(infos ...minio.ObjectInfo) <-chan minio.ObjectInfo {
	ch := make(chan minio.ObjectInfo, len(infos))
	for _, info := range infos {
		ch <- info
	}
	close(ch)
	return ch
}

func TestCheckArchive_CountsPerProvider(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "snaps").Return(true, nil)
	client.On("ListObjects", mock.Anything, "snaps", mock.MatchedBy(func(o minio.ListObjectsOptions) bool {
		return o.Prefix == "snapshots/" && o.Recursive
	})).Return(objects(
		minio.ObjectInfo{Key: "snapshots/espn/2024-11-01/r1.json", Size: 10},
		minio.ObjectInfo{Key: "snapshots/espn/2024-11-02/r2.json", Size: 20},
		minio.ObjectInfo{Key: "snapshots/cfbd/2024-11-02/r3.json", Size: 5},
		minio.ObjectInfo{Key: "snapshots/stray.txt", Size: 1},
	))

	report, err := CheckArchive(context.Background(), client, "snaps")
	require.NoError(t, err)
	assert.True(t, report.Exists)
	assert.Equal(t, map[string]int{"espn": 2, "cfbd": 1}, report.Snapshots)
	assert.Equal(t, "2024-11-02", report.Latest["espn"])
	assert.Equal(t, []string{"snapshots/stray.txt"}, report.Unexpected)
	assert.Equal(t, int64(35), report.TotalBytes)
	client.AssertExpectations(t)
}

func TestCheckArchive_MissingBucket(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "snaps").Return(false, nil)

	report, err := CheckArchive(context.Background(), client, "snaps")
	require.NoError(t, err)
	assert.False(t, report.Exists)
	assert.Empty(t, report.Snapshots)
	client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckArchive_Errors(t *testing.T) {
	client := new(mocks.Client)
	client.On("BucketExists", mock.Anything, "down").Return(false, errors.New("connection refused"))
	_, err := CheckArchive(context.Background(), client, "down")
	assert.ErrorContains(t, err, "connection refused")

	client = new(mocks.Client)
	client.On("BucketExists", mock.Anything, "snaps").Return(true, nil)
	client.On("ListObjects", mock.Anything, "snaps", mock.Anything).Return(objects(minio.ObjectInfo{Err: errors.New("list failed")}))
	_, err = CheckArchive(context.Background(), client, "snaps")
	assert.ErrorContains(t, err, "list failed")
}
