package ledger

import (
	"context"
	"errors"
	"time"

	"sports-pipeline/core/models"
)

// ErrConflict is returned by Record when the key already exists.
var ErrConflict = errors.New("idempotency record already exists")

// Ledger is the durable set of applied idempotency keys.
type Ledger interface {
	Has(ctx context.Context, key models.IdempotencyKey) (bool, error)
	Record(ctx context.Context, key models.IdempotencyKey, outcome models.WriteOutcome) error
}

// BatchChecker is implemented by ledgers that can check many keys in one round trip.
type BatchChecker interface {
	// Missing returns the subset of keys that have no record, in input order.
	Missing(ctx context.Context, keys []models.IdempotencyKey) ([]models.IdempotencyKey, error)
}

// IdempotencyRecord is the persisted ledger row. It is never updated after creation.
type IdempotencyRecord struct {
	Provider   string              `gorm:"primaryKey;size:64"`
	ExternalID string              `gorm:"primaryKey;size:128"`
	Sequence   int64               `gorm:"primaryKey;autoIncrement:false"`
	Outcome    models.WriteOutcome `gorm:"size:16;not null"`
	AppliedAt  time.Time           `gorm:"index;not null"`
}

// TableName pins the table name regardless of naming strategy.
func (IdempotencyRecord) TableName() string {
	return "idempotency_records"
}

// Key returns the idempotency key of the record.
func (r IdempotencyRecord) Key() models.IdempotencyKey {
	return models.IdempotencyKey{Provider: r.Provider, ExternalID: r.ExternalID, Sequence: r.Sequence}
}
