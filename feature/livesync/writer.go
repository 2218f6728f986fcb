package livesync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"sports-pipeline/core/ledger"
	"sports-pipeline/core/models"
	"sports-pipeline/core/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AtomicStore is a store that can commit a game write and its ledger record together.
// store.Repository implements it.
type AtomicStore interface {
	Atomically(ctx context.Context, fn func(w store.GameWriter, l ledger.Ledger) error) error
}

type writeStats struct {
	applied       int
	duplicates    int
	superseded    int
	reconciled    int
	failed        int
	maybeApplied  int
	ledgerPending int
	skipped       int
	errs          []error
}

func (s *writeStats) add(o writeStats) {
	s.applied += o.applied
	s.duplicates += o.duplicates
	s.superseded += o.superseded
	s.reconciled += o.reconciled
	s.failed += o.failed
	s.maybeApplied += o.maybeApplied
	s.ledgerPending += o.ledgerPending
	s.skipped += o.skipped
	s.errs = append(s.errs, o.errs...)
}

func (s *writeStats) count(outcome models.WriteOutcome) {
	switch outcome {
	case models.OutcomeApplied:
		s.applied++
	case models.OutcomeSuperseded:
		s.superseded++
	case models.OutcomeReconciled:
		s.reconciled++
	}
}

// Writer applies normalized events through the ledger.
type Writer struct {
	games       store.GameWriter
	ledger      ledger.Ledger
	atomic      AtomicStore
	concurrency int
	logger      *zap.Logger
}

// NewWriter creates a writer. When atomic is true and games implements AtomicStore, each
// write and its ledger record commit in one transaction. Otherwise the write goes first
// and the ledger record second.
func NewWriter(games store.GameWriter, l ledger.Ledger, atomic bool, concurrency int, logger *zap.Logger) *Writer {
	w := &Writer{games: games, ledger: l, concurrency: max(concurrency, 1), logger: logger}
	if atomic {
		if a, ok := games.(AtomicStore); ok {
			w.atomic = a
		}
	}
	return w
}

// Atomic reports whether writes commit together with their ledger record.
func (w *Writer) Atomic() bool {
	return w.atomic != nil
}

// streams splits sorted events into runs sharing (provider, externalId).
func streams(events []models.GameEvent) [][]models.GameEvent {
	var out [][]models.GameEvent
	start := 0
	for i := 1; i <= len(events); i++ {
		if i == len(events) ||
			events[i].ExternalID != events[start].ExternalID ||
			events[i].Provider != events[start].Provider {
			out = append(out, events[start:i])
			start = i
		}
	}
	return out
}

// Write applies events, which must be sorted by (externalId, sequence). Streams are
// written in parallel; events of one stream are written in order.
func (w *Writer) Write(ctx context.Context, events []models.GameEvent) writeStats {
	var (
		mu    sync.Mutex
		total writeStats
	)

	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)
	for _, stream := range streams(events) {
		g.Go(func() error {
			var local writeStats
			for _, ev := range stream {
				if ctx.Err() != nil {
					local.skipped++
					continue
				}
				w.writeOne(ctx, ev, &local)
			}
			mu.Lock()
			total.add(local)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return total
}

func (w *Writer) writeOne(ctx context.Context, ev models.GameEvent, s *writeStats) {
	key := ev.Key()

	seen, err := w.ledger.Has(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			s.skipped++
			return
		}
		w.fail(ctx, key, fmt.Errorf("ledger check: %w", err), s)
		return
	}
	if seen {
		s.duplicates++
		w.logger.Debug("Duplicate event suppressed", zap.String("key", key.String()))
		return
	}

	if w.atomic != nil {
		w.writeAtomic(ctx, ev, s)
		return
	}
	w.writeThenRecord(ctx, ev, s)
}

func (w *Writer) writeAtomic(ctx context.Context, ev models.GameEvent, s *writeStats) {
	key := ev.Key()
	var outcome models.WriteOutcome
	err := w.atomic.Atomically(ctx, func(games store.GameWriter, l ledger.Ledger) error {
		var err error
		outcome, err = games.UpsertGame(ctx, ev)
		if err != nil {
			return err
		}
		return l.Record(ctx, key, outcome)
	})
	switch {
	case err == nil:
		s.count(outcome)
	case errors.Is(err, ledger.ErrConflict):
		// A concurrent writer recorded the key first; its commit carries the effect.
		s.duplicates++
	default:
		w.fail(ctx, key, err, s)
	}
}

func (w *Writer) writeThenRecord(ctx context.Context, ev models.GameEvent, s *writeStats) {
	key := ev.Key()
	outcome, err := w.games.UpsertGame(ctx, ev)
	if err != nil {
		w.fail(ctx, key, err, s)
		return
	}

	err = w.ledger.Record(ctx, key, outcome)
	switch {
	case err == nil:
		s.count(outcome)
	case errors.Is(err, ledger.ErrConflict):
		s.duplicates++
	case ctx.Err() != nil:
		s.maybeApplied++
	default:
		// The row carries the key, so the reconciliation pass will record it.
		s.count(outcome)
		s.ledgerPending++
		w.logger.Warn("Ledger record pending reconciliation", zap.String("key", key.String()), zap.Error(err))
	}
}

// fail classifies an event failure. Failures caused by run cancellation have an unknown
// outcome and are left for the next run's ledger check.
func (w *Writer) fail(ctx context.Context, key models.IdempotencyKey, err error, s *writeStats) {
	if ctx.Err() != nil {
		s.maybeApplied++
		w.logger.Warn("Write interrupted, outcome unknown", zap.String("key", key.String()), zap.Error(err))
		return
	}
	s.failed++
	s.errs = append(s.errs, fmt.Errorf("%w: %s: %w", ErrWriteFailure, key, err))
	w.logger.Error("Event write failed", zap.String("key", key.String()), zap.Error(err))
}
