package reconcile

import (
	"context"
	"time"

	"sports-pipeline/core/ledger"

	"golang.org/x/sync/singleflight"
)

// Planner builds and applies reconciliation plans for one source and ledger.
type Planner struct {
	src    Source
	ledger ledger.Ledger
	sf     singleflight.Group
}

// NewPlanner creates a Planner.
func NewPlanner(src Source, l ledger.Ledger) *Planner {
	return &Planner{src: src, ledger: l}
}

// Plan builds the plan for rows updated since the given time. Concurrent calls for the
// same window share one build.
func (p *Planner) Plan(ctx context.Context, since time.Time) (*Plan, error) {
	key := since.UTC().Format(time.RFC3339Nano)
	result, err, _ := p.sf.Do(key, func() (interface{}, error) {
		return BuildPlan(ctx, p.src, p.ledger, since)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Plan), nil
}

// Run plans and, when opts allow, applies.
func (p *Planner) Run(ctx context.Context, since time.Time, opts Options) (*Plan, ApplyResult, error) {
	plan, err := p.Plan(ctx, since)
	if err != nil {
		return nil, ApplyResult{}, err
	}
	res, err := ApplyPlan(ctx, p.ledger, plan, opts)
	return plan, res, err
}
