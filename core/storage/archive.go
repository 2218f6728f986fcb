package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// SnapshotPrefix is the root of archived provider snapshots.
const SnapshotPrefix = "snapshots/"

// Archive stores raw provider snapshots as snapshots/<provider>/<date>/<run id>.json.
type Archive struct {
	client Client
	bucket string
}

// NewArchive creates an archive in bucket.
func NewArchive(client Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// Client returns the underlying storage client.
func (a *Archive) Client() Client {
	return a.client
}

// SnapshotKey returns the object key of one archived snapshot.
func SnapshotKey(providerID, date, runID string) string {
	return path.Join(SnapshotPrefix, providerID, date, runID+".json")
}

// EnsureBucket creates the bucket when it does not exist.
func (a *Archive) EnsureBucket(ctx context.Context, region string) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Put uploads raw under the snapshot key and returns the key.
func (a *Archive) Put(ctx context.Context, providerID, date, runID string, raw []byte) (string, error) {
	key := SnapshotKey(providerID, date, runID)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/json",
		UserMetadata: map[string]string{
			"provider": providerID,
			"run-id":   runID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("archive snapshot %s: %w", key, err)
	}
	return key, nil
}

// Get downloads one archived snapshot.
func (a *Archive) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return data, nil
}

// ObjectRef is one archived object.
type ObjectRef struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// List returns the archived snapshots under prefix (relative to SnapshotPrefix), sorted
// by key.
func (a *Archive) List(ctx context.Context, prefix string) ([]ObjectRef, error) {
	full := SnapshotPrefix + strings.TrimPrefix(prefix, "/")
	var refs []ObjectRef
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: full, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list snapshots %s: %w", full, obj.Err)
		}
		refs = append(refs, ObjectRef{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key < refs[j].Key })
	return refs, nil
}

// Prune removes archived snapshots last modified before cutoff and returns how many
// were removed.
func (a *Archive) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	refs, err := a.List(ctx, "")
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, ref := range refs {
		if !ref.LastModified.Before(cutoff) {
			continue
		}
		if err := a.client.RemoveObject(ctx, a.bucket, ref.Key, minio.RemoveObjectOptions{}); err != nil {
			return removed, fmt.Errorf("remove snapshot %s: %w", ref.Key, err)
		}
		removed++
	}
	return removed, nil
}
