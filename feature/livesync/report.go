package livesync

import (
	"time"

	"sports-pipeline/core/store"

	"go.uber.org/zap"
)

// AttemptReport is one provider fetch of a run.
type AttemptReport struct {
	Choice     string  `json:"choice"`
	ProviderID string  `json:"provider_id"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// RunReport summarizes one sync run.
type RunReport struct {
	RunID      string          `json:"run_id"`
	Trigger    string          `json:"trigger"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Outcome    Outcome         `json:"outcome"`
	Provider   string          `json:"provider,omitempty"`
	Choice     string          `json:"choice,omitempty"`
	Window     string          `json:"window,omitempty"`
	Attempts   []AttemptReport `json:"attempts,omitempty"`
	ArchiveKey string          `json:"archive_key,omitempty"`

	Fetched         int `json:"fetched"`
	Applied         int `json:"applied"`
	Duplicates      int `json:"duplicates"`
	Superseded      int `json:"superseded"`
	Reconciled      int `json:"reconciled"`
	NormalizeFailed int `json:"normalize_failed"`
	WriteFailed     int `json:"write_failed"`
	MaybeApplied    int `json:"maybe_applied"`
	LedgerPending   int `json:"ledger_pending"`
	Skipped         int `json:"skipped"`

	// Errors holds the recoverable per-record failures, capped at maxReportedErrors.
	Errors []string `json:"errors,omitempty"`
	// Error is the fatal failure of a failed run.
	Error string `json:"error,omitempty"`
}

const maxReportedErrors = 50

// Duration is the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *RunReport) addError(err error) {
	if len(r.Errors) < maxReportedErrors {
		r.Errors = append(r.Errors, err.Error())
	}
}

func (r *RunReport) merge(s writeStats) {
	r.Applied += s.applied
	r.Duplicates += s.duplicates
	r.Superseded += s.superseded
	r.Reconciled += s.reconciled
	r.WriteFailed += s.failed
	r.MaybeApplied += s.maybeApplied
	r.LedgerPending += s.ledgerPending
	r.Skipped += s.skipped
	for _, err := range s.errs {
		r.addError(err)
	}
}

// Fields returns the run summary as log fields.
func (r *RunReport) Fields() []zap.Field {
	return []zap.Field{
		zap.String("run_id", r.RunID),
		zap.String("outcome", string(r.Outcome)),
		zap.String("provider", r.Provider),
		zap.Int("applied", r.Applied),
		zap.Int("duplicates", r.Duplicates),
		zap.Int("normalize_failed", r.NormalizeFailed),
		zap.Int("write_failed", r.WriteFailed),
		zap.Int("reconciled", r.Reconciled),
		zap.Int("superseded", r.Superseded),
		zap.Int("maybe_applied", r.MaybeApplied),
		zap.Duration("duration", r.Duration()),
	}
}

// SyncRun converts the report to its persisted form.
func (r *RunReport) SyncRun() *store.SyncRun {
	return &store.SyncRun{
		ID:              r.RunID,
		StartedAt:       r.StartedAt.UTC(),
		FinishedAt:      r.FinishedAt.UTC(),
		Trigger:         r.Trigger,
		Outcome:         string(r.Outcome),
		Provider:        r.Provider,
		Choice:          r.Choice,
		Fetched:         r.Fetched,
		Applied:         r.Applied,
		Duplicates:      r.Duplicates,
		Superseded:      r.Superseded,
		Reconciled:      r.Reconciled,
		NormalizeFailed: r.NormalizeFailed,
		WriteFailed:     r.WriteFailed,
		MaybeApplied:    r.MaybeApplied,
		LedgerPending:   r.LedgerPending,
		Skipped:         r.Skipped,
		Error:           r.Error,
	}
}
