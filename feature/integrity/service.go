package integrity

import (
	"context"
	"errors"
	"time"

	"sports-pipeline/core/ledger"
	"sports-pipeline/core/reconcile"
	"sports-pipeline/core/storage"
	"sports-pipeline/core/store"
	"sports-pipeline/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNotConfigured is returned by a check whose dependency is absent.
var ErrNotConfigured = errors.New("check not configured")

// Service runs integrity checks.
type Service struct {
	db      *gorm.DB
	client  storage.Client
	bucket  string
	planner *reconcile.Planner
	window  time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates an integrity service. client and planner may be nil; their checks
// then report ErrNotConfigured.
func NewService(db *gorm.DB, client storage.Client, bucket string, planner *reconcile.Planner, window time.Duration, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		client:  client,
		bucket:  bucket,
		planner: planner,
		window:  window,
		logger:  logger,
		now:     time.Now,
	}
}

// Models returns the gorm models whose tables the schema check inspects.
func Models() []any {
	return []any{&store.Game{}, &store.SyncRun{}, &ledger.IdempotencyRecord{}}
}

// CheckSchema validates the database schema against the models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	if s.db == nil {
		return nil, ErrNotConfigured
	}
	return checks.CheckSchema(s.db, Models()...)
}

// CheckArchive inspects the snapshot archive.
func (s *Service) CheckArchive(ctx context.Context) (*checks.ArchiveReport, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}
	return checks.CheckArchive(ctx, s.client, s.bucket)
}

// CheckLedger compares writes within window with the ledger. A non-positive window uses
// the service default.
func (s *Service) CheckLedger(ctx context.Context, window time.Duration) (*checks.LedgerReport, error) {
	if s.planner == nil {
		return nil, ErrNotConfigured
	}
	if window <= 0 {
		window = s.window
	}
	return checks.CheckLedger(ctx, s.planner, s.now().Add(-window))
}
