package reconcile

import "sports-pipeline/core/models"

// Result is the reconciliation state of one game row.
type Result struct {
	// GameID is the persisted row.
	GameID string `json:"game_id"`

	// Key is the applied key carried by the row.
	Key models.IdempotencyKey `json:"key"`

	// LedgerPresent reports whether the ledger has a record for Key.
	LedgerPresent bool `json:"ledger_present"`
}

// ActionType represents the type of repair action.
type ActionType string

const (
	// ActionRecordLedger creates the missing ledger record for an applied write.
	ActionRecordLedger ActionType = "record_ledger"
)

// Action represents a planned repair.
type Action struct {
	Type   ActionType            `json:"type"`
	GameID string                `json:"game_id"`
	Key    models.IdempotencyKey `json:"key"`
	Reason string                `json:"reason"`
}

// Plan contains reconciliation results and planned actions.
type Plan struct {
	Results []Result    `json:"results"`
	Actions []Action    `json:"actions"`
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate counts for a plan.
type PlanSummary struct {
	// Scanned is the number of game rows inside the window.
	Scanned int `json:"scanned"`

	// LedgerMissing counts rows whose applied key has no ledger record.
	LedgerMissing int `json:"ledger_missing"`

	// RecordActions counts planned record_ledger actions.
	RecordActions int `json:"record_actions"`
}

// Options controls whether a plan is applied.
type Options struct {
	// DryRun prevents any mutation if true.
	DryRun bool

	// Confirmed must be true for mutations to execute.
	Confirmed bool
}

// ApplyResult reports what ApplyPlan did.
type ApplyResult struct {
	// Recorded counts ledger records created.
	Recorded int `json:"recorded"`

	// AlreadyPresent counts keys another writer recorded first.
	AlreadyPresent int `json:"already_present"`
}
