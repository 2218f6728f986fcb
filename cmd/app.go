package cmd

import (
	"context"
	"fmt"
	"time"

	"sports-pipeline/core/cache"
	"sports-pipeline/core/config"
	"sports-pipeline/core/database"
	"sports-pipeline/core/ledger"
	"sports-pipeline/core/logger"
	"sports-pipeline/core/metrics"
	"sports-pipeline/core/normalize"
	"sports-pipeline/core/provider"
	"sports-pipeline/core/reconcile"
	"sports-pipeline/core/storage"
	"sports-pipeline/core/store"
	"sports-pipeline/feature/integrity"
	"sports-pipeline/feature/livesync"

	"go.uber.org/zap"
)

// services is the wiring shared by the commands.
type services struct {
	cfg    *config.Config
	logger *zap.Logger
	repo   *store.Repository
	ledger *ledger.GormLedger

	snapshots *storage.Archive
	connected bool
}

// loadServices loads configuration, builds the logger and opens the migrated store.
func loadServices() (*services, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := store.Migrate(db); err != nil {
		return nil, err
	}

	return &services{
		cfg:    cfg,
		logger: l,
		repo:   store.NewRepository(db),
		ledger: ledger.NewGormLedger(db),
	}, nil
}

// sources builds the provider clients and normalizers of a providers file.
func sources(pf *config.ProviderFile, loc *time.Location, l *zap.Logger) (livesync.Source, *livesync.Source) {
	build := func(def config.ProviderDef) livesync.Source {
		return livesync.Source{
			Client:     provider.NewHTTPClient(def.Config, l),
			Normalizer: normalize.New(def.Fields, loc),
		}
	}
	primary := build(pf.Primary)
	if pf.Secondary == nil {
		return primary, nil
	}
	secondary := build(*pf.Secondary)
	return primary, &secondary
}

// archive connects the snapshot archive when archiving is enabled. The connection is
// made once and shared.
func (r *services) archive(ctx context.Context) *storage.Archive {
	if !r.cfg.Sync.ArchiveSnapshots {
		return nil
	}
	if r.connected {
		return r.snapshots
	}
	r.connected = true
	client, err := storage.NewClient(r.cfg.Storage)
	if err != nil {
		r.logger.Warn("Snapshot archive disabled, storage client failed", zap.Error(err))
		return nil
	}
	a := storage.NewArchive(client, r.cfg.Storage.Bucket)
	if err := a.EnsureBucket(ctx, r.cfg.Storage.Region); err != nil {
		r.logger.Warn("Snapshot bucket check failed", zap.Error(err))
	}
	r.snapshots = a
	return a
}

// integrity builds the integrity service over the store, the archive and a reconciler.
func (r *services) integrity(ctx context.Context) *integrity.Service {
	var client storage.Client
	if a := r.archive(ctx); a != nil {
		client = a.Client()
	}
	planner := reconcile.NewPlanner(r.repo, r.ledger)
	return integrity.NewService(r.repo.DB(), client, r.cfg.Storage.Bucket, planner, r.cfg.Sync.ReconcileWindow(), r.logger)
}

// coordinator builds the sync coordinator from the providers file.
func (r *services) coordinator(ctx context.Context, c *cache.Coordinator, sink metrics.Sink) (*livesync.Coordinator, *config.ProviderFile, error) {
	pf, err := config.LoadProviderFile(r.cfg.Sync.ProvidersFile)
	if err != nil {
		return nil, nil, err
	}
	loc, err := r.cfg.Sync.Location()
	if err != nil {
		return nil, nil, err
	}

	deps := livesync.Deps{
		Games:      r.repo,
		Ledger:     r.ledger,
		Reconciler: reconcile.NewPlanner(r.repo, r.ledger),
		Runs:       r.repo,
		Metrics:    sink,
	}
	if c != nil {
		deps.Cache = c
	}
	if a := r.archive(ctx); a != nil {
		deps.Archive = a
	}

	primary, secondary := sources(pf, loc, r.logger)
	coord, err := livesync.NewCoordinator(r.cfg.Sync, deps, primary, secondary, r.logger)
	if err != nil {
		return nil, nil, err
	}
	coord.SetStaleness(pf.Staleness(r.cfg.Sync.Staleness()))
	return coord, pf, nil
}
