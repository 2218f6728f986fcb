package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sports-pipeline/core/models"
)

// MemoryLedger is a process-local Ledger for tests and dry runs.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[models.IdempotencyKey]IdempotencyRecord
}

// NewMemoryLedger creates an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[models.IdempotencyKey]IdempotencyRecord)}
}

// Has implements Ledger.
func (m *MemoryLedger) Has(_ context.Context, key models.IdempotencyKey) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[key]
	return ok, nil
}

// Record implements Ledger.
func (m *MemoryLedger) Record(_ context.Context, key models.IdempotencyKey, outcome models.WriteOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[key]; ok {
		return fmt.Errorf("%w: %s", ErrConflict, key)
	}
	m.records[key] = IdempotencyRecord{
		Provider:   key.Provider,
		ExternalID: key.ExternalID,
		Sequence:   key.Sequence,
		Outcome:    outcome,
		AppliedAt:  time.Now().UTC(),
	}
	return nil
}

// Missing implements BatchChecker.
func (m *MemoryLedger) Missing(_ context.Context, keys []models.IdempotencyKey) ([]models.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var missing []models.IdempotencyKey
	for _, k := range keys {
		if _, ok := m.records[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing, nil
}

// Outcome returns the recorded outcome for key.
func (m *MemoryLedger) Outcome(key models.IdempotencyKey) (models.WriteOutcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[key]
	return r.Outcome, ok
}

// Len returns the number of records.
func (m *MemoryLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
