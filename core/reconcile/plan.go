package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sports-pipeline/core/ledger"
	"sports-pipeline/core/models"
)

const reasonLedgerMissing = "write present, ledger missing"

// BuildPlan compares the applied markers of rows updated since the given time against
// the ledger. It does NOT execute actions; use ApplyPlan for that.
func BuildPlan(ctx context.Context, src Source, l ledger.Ledger, since time.Time) (*Plan, error) {
	markers, err := src.AppliedMarkers(ctx, since)
	if err != nil {
		return nil, err
	}

	keys := make([]models.IdempotencyKey, 0, len(markers))
	for _, m := range markers {
		keys = append(keys, m.Key)
	}

	missing, err := missingKeys(ctx, l, keys)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Results: make([]Result, 0, len(markers)),
		Actions: []Action{},
	}
	plan.Summary.Scanned = len(markers)
	for _, m := range markers {
		_, isMissing := missing[m.Key]
		plan.Results = append(plan.Results, Result{GameID: m.GameID, Key: m.Key, LedgerPresent: !isMissing})
		if !isMissing {
			continue
		}
		plan.Summary.LedgerMissing++
		plan.Actions = append(plan.Actions, Action{
			Type:   ActionRecordLedger,
			GameID: m.GameID,
			Key:    m.Key,
			Reason: reasonLedgerMissing,
		})
		plan.Summary.RecordActions++
	}
	return plan, nil
}

// missingKeys uses the ledger's batch check when available and falls back to one lookup
// per key.
func missingKeys(ctx context.Context, l ledger.Ledger, keys []models.IdempotencyKey) (map[models.IdempotencyKey]struct{}, error) {
	out := make(map[models.IdempotencyKey]struct{})
	if len(keys) == 0 {
		return out, nil
	}

	if batch, ok := l.(ledger.BatchChecker); ok {
		missing, err := batch.Missing(ctx, keys)
		if err != nil {
			return nil, err
		}
		for _, k := range missing {
			out[k] = struct{}{}
		}
		return out, nil
	}

	for _, k := range keys {
		has, err := l.Has(ctx, k)
		if err != nil {
			return nil, err
		}
		if !has {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

// ApplyPlan executes the actions in a plan.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
// It stops at the first unexpected ledger error; the remaining actions stay retryable.
func ApplyPlan(ctx context.Context, l ledger.Ledger, plan *Plan, opts Options) (ApplyResult, error) {
	var res ApplyResult
	if !opts.Confirmed || opts.DryRun {
		return res, nil
	}

	for _, action := range plan.Actions {
		if action.Type != ActionRecordLedger {
			continue
		}
		err := l.Record(ctx, action.Key, models.OutcomeReconciled)
		switch {
		case err == nil:
			res.Recorded++
		case errors.Is(err, ledger.ErrConflict):
			res.AlreadyPresent++
		default:
			return res, fmt.Errorf("record %s for game %s: %w", action.Key, action.GameID, err)
		}
	}
	return res, nil
}

// ReconcileAndApply is a convenience wrapper that plans and optionally applies actions.
func ReconcileAndApply(ctx context.Context, src Source, l ledger.Ledger, since time.Time, opts Options) (*Plan, ApplyResult, error) {
	plan, err := BuildPlan(ctx, src, l, since)
	if err != nil {
		return nil, ApplyResult{}, err
	}
	res, err := ApplyPlan(ctx, l, plan, opts)
	return plan, res, err
}
