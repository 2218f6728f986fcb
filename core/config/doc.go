// Package config loads the pipeline configuration and the providers file.
//
// LoadConfig layers struct-tag defaults, an optional config.yaml, an optional .env and the
// environment (SYNC_STALENESS_SECONDS overrides sync.staleness_seconds), then validates the
// result. Each section is owned by the package that consumes it: server, storage, log,
// database, sync (feature/livesync) and cache.
//
// The providers file (sync.providers_file) defines the primary and secondary upstream
// providers with their field maps and an optional staleness override. WatchProviderFile
// re-reads it on every write and hands valid versions to a callback; an invalid version
// is logged and skipped.
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	providers, err := config.LoadProviderFile(cfg.Sync.ProvidersFile)
package config
