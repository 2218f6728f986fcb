// Package storage archives raw provider snapshots in object storage.
//
// It wraps the MinIO Go client behind a small Client interface (mocked in
// core/storage/mocks) and builds the snapshot Archive on top of it. Archived objects live
// at snapshots/<provider>/<date>/<run id>.json, where date is the sync window's calendar
// day in the reference time zone. Archived snapshots can be listed, downloaded for
// replay, and pruned.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	archive := storage.NewArchive(client, cfg.Storage.Bucket)
//	key, err := archive.Put(ctx, "espn", "2024-11-02", runID, snapshot.Raw)
package storage
