package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sports-pipeline/core/models"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// missingChunk bounds the IN list of one Missing query.
const missingChunk = 500

// GormLedger stores records in the idempotency_records table.
type GormLedger struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormLedger creates a ledger over db. db may be a transaction handle.
func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db, now: time.Now}
}

// Migrate creates or updates the ledger table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&IdempotencyRecord{})
}

// WithTx returns a ledger bound to tx that shares this ledger's clock.
func (l *GormLedger) WithTx(tx *gorm.DB) *GormLedger {
	return &GormLedger{db: tx, now: l.now}
}

// Has reports whether key has a record.
func (l *GormLedger) Has(ctx context.Context, key models.IdempotencyKey) (bool, error) {
	var n int64
	err := l.db.WithContext(ctx).
		Model(&IdempotencyRecord{}).
		Where("provider = ? AND external_id = ? AND sequence = ?", key.Provider, key.ExternalID, key.Sequence).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("ledger lookup %s: %w", key, err)
	}
	return n > 0, nil
}

// Record creates the record for key. It returns ErrConflict when the key already exists.
func (l *GormLedger) Record(ctx context.Context, key models.IdempotencyKey, outcome models.WriteOutcome) error {
	rec := IdempotencyRecord{
		Provider:   key.Provider,
		ExternalID: key.ExternalID,
		Sequence:   key.Sequence,
		Outcome:    outcome,
		AppliedAt:  l.now().UTC(),
	}
	if err := l.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", ErrConflict, key)
		}
		return fmt.Errorf("ledger record %s: %w", key, err)
	}
	return nil
}

// Missing implements BatchChecker.
func (l *GormLedger) Missing(ctx context.Context, keys []models.IdempotencyKey) ([]models.IdempotencyKey, error) {
	type stream struct{ provider, externalID string }

	byProvider := make(map[string][]string)
	seen := make(map[stream]bool)
	for _, k := range keys {
		s := stream{k.Provider, k.ExternalID}
		if !seen[s] {
			seen[s] = true
			byProvider[k.Provider] = append(byProvider[k.Provider], k.ExternalID)
		}
	}

	present := make(map[models.IdempotencyKey]struct{})
	for provider, ids := range byProvider {
		for start := 0; start < len(ids); start += missingChunk {
			end := min(start+missingChunk, len(ids))
			var rows []IdempotencyRecord
			err := l.db.WithContext(ctx).
				Select("provider", "external_id", "sequence").
				Where("provider = ? AND external_id IN ?", provider, ids[start:end]).
				Find(&rows).Error
			if err != nil {
				return nil, fmt.Errorf("ledger batch lookup: %w", err)
			}
			for _, r := range rows {
				present[r.Key()] = struct{}{}
			}
		}
	}

	var missing []models.IdempotencyKey
	for _, k := range keys {
		if _, ok := present[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing, nil
}

// Prune deletes records applied before cutoff and returns how many were removed.
func (l *GormLedger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := l.db.WithContext(ctx).Where("applied_at < ?", cutoff.UTC()).Delete(&IdempotencyRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("ledger prune: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Count returns the number of records.
func (l *GormLedger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.db.WithContext(ctx).Model(&IdempotencyRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("ledger count: %w", err)
	}
	return n, nil
}

// isDuplicate reports whether err is a primary-key or unique violation from any supported driver.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
