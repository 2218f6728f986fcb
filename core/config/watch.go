package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchProviderFile monitors path and calls onChange with the newly loaded file each time
// it is written. It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the previous
// configuration remains active; onChange is not called.
func WatchProviderFile(ctx context.Context, path string, logger *zap.Logger, onChange func(*ProviderFile)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors save atomically by renaming over the file, which drops
	// a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	logger.Info("Watching providers file", zap.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			f, err := LoadProviderFile(path)
			if err != nil {
				logger.Error("Providers file reload failed, keeping previous configuration",
					zap.String("path", path), zap.Error(err))
				continue
			}

			logger.Info("Providers file reloaded", zap.String("path", path))
			onChange(f)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("Providers file watcher error", zap.Error(err))
		}
	}
}
