package checks

import (
	"context"
	"fmt"
	"time"

	"sports-pipeline/core/reconcile"
)

// LedgerReport compares recent game writes with the idempotency ledger.
type LedgerReport struct {
	Since         time.Time          `json:"since"`
	Scanned       int                `json:"scanned"`
	LedgerMissing int                `json:"ledger_missing"`
	Consistent    bool               `json:"consistent"`
	Sample        []reconcile.Action `json:"sample"`
}

const ledgerSampleSize = 10

// CheckLedger plans, without applying, the reconciliation of rows updated since.
func CheckLedger(ctx context.Context, planner *reconcile.Planner, since time.Time) (*LedgerReport, error) {
	plan, err := planner.Plan(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to plan ledger check: %w", err)
	}
	return &LedgerReport{
		Since:         since,
		Scanned:       plan.Summary.Scanned,
		LedgerMissing: plan.Summary.LedgerMissing,
		Consistent:    plan.Summary.LedgerMissing == 0,
		Sample:        plan.Actions[:min(len(plan.Actions), ledgerSampleSize)],
	}, nil
}
