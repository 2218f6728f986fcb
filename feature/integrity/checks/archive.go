package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sports-pipeline/core/storage"

	"github.com/minio/minio-go/v7"
)

// ArchiveReport summarizes the snapshot archive.
type ArchiveReport struct {
	Bucket     string            `json:"bucket"`
	Exists     bool              `json:"exists"`
	Snapshots  map[string]int    `json:"snapshots"`
	Latest     map[string]string `json:"latest"`
	Unexpected []string          `json:"unexpected"`
	TotalBytes int64             `json:"total_bytes"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// CheckArchive counts archived snapshots per provider and flags keys that do not follow
// snapshots/<provider>/<date>/<run id>.json.
func CheckArchive(ctx context.Context, client storage.Client, bucket string) (*ArchiveReport, error) {
	report := &ArchiveReport{
		Bucket:     bucket,
		Snapshots:  map[string]int{},
		Latest:     map[string]string{},
		Unexpected: []string{},
		CheckedAt:  time.Now().UTC(),
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	report.Exists = exists
	if !exists {
		return report, nil
	}

	opts := minio.ListObjectsOptions{Prefix: storage.SnapshotPrefix, Recursive: true}
	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		parts := strings.Split(strings.TrimPrefix(obj.Key, storage.SnapshotPrefix), "/")
		if len(parts) != 3 || !strings.HasSuffix(parts[2], ".json") {
			report.Unexpected = append(report.Unexpected, obj.Key)
			continue
		}
		providerID, date := parts[0], parts[1]
		report.Snapshots[providerID]++
		report.TotalBytes += obj.Size
		if date > report.Latest[providerID] {
			report.Latest[providerID] = date
		}
	}
	return report, nil
}
