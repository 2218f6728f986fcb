package livesync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"sports-pipeline/core/ledger"
	"sports-pipeline/core/logger"
	"sports-pipeline/core/metrics"
	"sports-pipeline/core/normalize"
	"sports-pipeline/core/provider"
	"sports-pipeline/core/reconcile"
	"sports-pipeline/core/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Source is one provider together with the normalizer for its payloads.
type Source struct {
	Client     provider.Client
	Normalizer *normalize.Normalizer
}

type sources struct {
	primary   Source
	secondary *Source
}

// Invalidator drops cached read results. cache.Coordinator implements it.
type Invalidator interface {
	InvalidatePrefix(prefix string) int
}

// Archiver stores raw snapshots. storage.Archive implements it.
type Archiver interface {
	Put(ctx context.Context, providerID, date, runID string, raw []byte) (string, error)
}

// RunLog persists run reports. store.Repository implements it.
type RunLog interface {
	SaveRun(ctx context.Context, run *store.SyncRun) error
	RecentRuns(ctx context.Context, limit int) ([]store.SyncRun, error)
}

// Deps are the collaborators of a Coordinator. Games and Ledger are required.
type Deps struct {
	Games      store.GameWriter
	Ledger     ledger.Ledger
	Reconciler *reconcile.Planner
	Cache      Invalidator
	Archive    Archiver
	Runs       RunLog
	Metrics    metrics.Sink
}

// invalidatedPrefixes are the cache keys derived from game rows.
var invalidatedPrefixes = []string{"games:", "standings:", "conferences"}

// Coordinator runs sync jobs. At most one run is active at a time.
type Coordinator struct {
	cfg    Config
	deps   Deps
	loc    *time.Location
	writer *Writer
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	sources   atomic.Pointer[sources]
	staleness atomic.Int64
	active    atomic.Bool
	state     atomic.Int32
	dropped   atomic.Int64
	last      atomic.Pointer[RunReport]
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock overrides the clock.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithRunIDs overrides run id generation.
func WithRunIDs(next func() string) Option {
	return func(c *Coordinator) { c.newID = next }
}

// NewCoordinator creates a coordinator. secondary may be nil.
func NewCoordinator(cfg Config, deps Deps, primary Source, secondary *Source, logger *zap.Logger, opts ...Option) (*Coordinator, error) {
	if deps.Games == nil || deps.Ledger == nil {
		return nil, errors.New("livesync: games store and ledger are required")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}

	c := &Coordinator{
		cfg:    cfg,
		deps:   deps,
		loc:    loc,
		writer: NewWriter(deps.Games, deps.Ledger, cfg.AtomicWrites, cfg.WriteConcurrency, logger),
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.SetSources(primary, secondary)
	c.SetStaleness(cfg.Staleness())
	return c, nil
}

// SetSources swaps the providers used by the next run.
func (c *Coordinator) SetSources(primary Source, secondary *Source) {
	c.sources.Store(&sources{primary: primary, secondary: secondary})
}

// SetStaleness swaps the staleness threshold used by the next run.
func (c *Coordinator) SetStaleness(d time.Duration) {
	c.staleness.Store(int64(d))
}

// Staleness returns the current staleness threshold.
func (c *Coordinator) Staleness() time.Duration {
	return time.Duration(c.staleness.Load())
}

// State returns the current phase.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Active reports whether a run is in progress.
func (c *Coordinator) Active() bool {
	return c.active.Load()
}

// Dropped returns the number of triggers dropped because a run was active.
func (c *Coordinator) Dropped() int64 {
	return c.dropped.Load()
}

// LastReport returns the most recent run report, or nil.
func (c *Coordinator) LastReport() *RunReport {
	return c.last.Load()
}

// Location returns the reference time zone.
func (c *Coordinator) Location() *time.Location {
	return c.loc
}

// Trigger runs one sync for today's window. It returns ErrRunOverlap without running
// when another run is active.
func (c *Coordinator) Trigger(ctx context.Context, trigger string) (*RunReport, error) {
	return c.TriggerWindow(ctx, trigger, provider.TodayWindow(c.now(), c.loc))
}

// TriggerWindow runs one sync for the given window.
func (c *Coordinator) TriggerWindow(ctx context.Context, trigger string, w provider.Window) (*RunReport, error) {
	return c.guarded(ctx, trigger, func(ctx context.Context, report *RunReport) (*provider.Snapshot, *normalize.Normalizer, error) {
		report.Window = w.Date
		return c.fetch(ctx, report, w)
	})
}

// Replay runs the normalize and write phases over a stored snapshot, such as an archived
// one, using the normalizer of the source it came from.
func (c *Coordinator) Replay(ctx context.Context, snap *provider.Snapshot, norm *normalize.Normalizer) (*RunReport, error) {
	return c.guarded(ctx, "replay", func(_ context.Context, report *RunReport) (*provider.Snapshot, *normalize.Normalizer, error) {
		report.Choice = "replay"
		return snap, norm, nil
	})
}

type fetchFunc func(ctx context.Context, report *RunReport) (*provider.Snapshot, *normalize.Normalizer, error)

func (c *Coordinator) guarded(ctx context.Context, trigger string, fetch fetchFunc) (*RunReport, error) {
	if !c.active.CompareAndSwap(false, true) {
		n := c.dropped.Add(1)
		c.logger.Warn("Sync trigger dropped, run already active",
			zap.String("trigger", trigger),
			zap.Int64("dropped_total", n),
		)
		c.emit("sync_overlap_drops_total", 1, map[string]string{"trigger": trigger})
		return nil, ErrRunOverlap
	}
	defer c.active.Store(false)
	return c.run(ctx, trigger, fetch), nil
}

func (c *Coordinator) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Coordinator) run(parent context.Context, trigger string, fetch fetchFunc) *RunReport {
	ctx, cancel := context.WithTimeout(parent, c.cfg.MaxRun())
	defer cancel()
	defer c.setState(StateIdle)

	report := &RunReport{RunID: c.newID(), Trigger: trigger, StartedAt: c.now()}
	log := logger.ForRun(c.logger, report.RunID)
	log.Info("Sync run started", zap.String("trigger", trigger))

	c.setState(StateFetching)
	snap, norm, err := fetch(ctx, report)
	if err != nil {
		c.setState(StateFailed)
		report.Outcome = OutcomeFailed
		report.Error = err.Error()
		c.finish(log, report)
		return report
	}
	report.Provider = snap.ProviderID
	report.Fetched = len(snap.Games)
	c.archive(ctx, log, report, snap)

	c.setState(StateNormalizing)
	res := norm.Normalize(snap)
	report.NormalizeFailed = len(res.Errors)
	for _, nerr := range res.Errors {
		log.Warn("Record failed to normalize", zap.Error(nerr))
		report.addError(nerr)
	}

	c.setState(StateWriting)
	c.reconcile(ctx, log, report)
	report.merge(c.writer.Write(ctx, res.Events))

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled):
		report.Outcome = OutcomeCanceled
		report.Error = ctx.Err().Error()
	case report.NormalizeFailed > 0 || report.WriteFailed > 0 || report.LedgerPending > 0:
		report.Outcome = OutcomePartial
	default:
		report.Outcome = OutcomeCompleted
	}

	if report.Applied > 0 && c.deps.Cache != nil {
		for _, prefix := range invalidatedPrefixes {
			c.deps.Cache.InvalidatePrefix(prefix)
		}
	}
	c.finish(log, report)
	return report
}

func (c *Coordinator) fetch(ctx context.Context, report *RunReport, w provider.Window) (*provider.Snapshot, *normalize.Normalizer, error) {
	src := c.sources.Load()
	if src.primary.Client == nil {
		return nil, nil, ErrNoProvider
	}
	var secondary provider.Client
	if src.secondary != nil && src.secondary.Client != nil {
		secondary = src.secondary.Client
	}

	sel, err := provider.Select(ctx, src.primary.Client, secondary, w, c.Staleness())
	if sel != nil {
		for _, a := range sel.Attempts {
			ar := AttemptReport{
				Choice:     a.Choice.String(),
				ProviderID: a.ProviderID,
				DurationMS: float64(a.Duration) / float64(time.Millisecond),
			}
			if a.Err != nil {
				ar.Error = a.Err.Error()
			}
			report.Attempts = append(report.Attempts, ar)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	report.Choice = sel.Choice.String()
	if sel.Choice == provider.Secondary {
		return sel.Snapshot, src.secondary.Normalizer, nil
	}
	return sel.Snapshot, src.primary.Normalizer, nil
}

func (c *Coordinator) archive(ctx context.Context, log *zap.Logger, report *RunReport, snap *provider.Snapshot) {
	if !c.cfg.ArchiveSnapshots || c.deps.Archive == nil || len(snap.Raw) == 0 || report.Trigger == "replay" {
		return
	}
	date := report.Window
	if date == "" {
		date = snap.FetchedAt.In(c.loc).Format(time.DateOnly)
	}
	key, err := c.deps.Archive.Put(ctx, snap.ProviderID, date, report.RunID, snap.Raw)
	if err != nil {
		log.Warn("Snapshot archive failed", zap.Error(err))
		return
	}
	report.ArchiveKey = key
}

// reconcile records ledger entries for rows whose write committed without one.
func (c *Coordinator) reconcile(ctx context.Context, log *zap.Logger, report *RunReport) {
	if c.deps.Reconciler == nil {
		return
	}
	since := c.now().Add(-c.cfg.ReconcileWindow())
	_, res, err := c.deps.Reconciler.Run(ctx, since, reconcile.Options{Confirmed: true})
	report.Reconciled += res.Recorded
	if err != nil {
		log.Warn("Reconciliation pass failed", zap.Error(err))
		return
	}
	if res.Recorded > 0 {
		log.Info("Reconciled ledger records", zap.Int("recorded", res.Recorded))
	}
}

func (c *Coordinator) finish(log *zap.Logger, report *RunReport) {
	report.FinishedAt = c.now()
	c.last.Store(report)

	if c.deps.Runs != nil {
		// The run context may be expired; the run log gets its own short budget.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.deps.Runs.SaveRun(ctx, report.SyncRun()); err != nil {
			log.Warn("Failed to save run report", zap.Error(err))
		}
		cancel()
	}

	tags := map[string]string{"outcome": string(report.Outcome), "provider": report.Provider}
	c.emit("sync_runs_total", 1, tags)
	c.emit("sync_events_applied_total", float64(report.Applied), nil)
	c.emit("sync_events_duplicate_total", float64(report.Duplicates), nil)
	c.emit("sync_events_normalize_failed_total", float64(report.NormalizeFailed), nil)
	c.emit("sync_events_write_failed_total", float64(report.WriteFailed), nil)
	c.emit("sync_last_run_duration_seconds", report.Duration().Seconds(), nil)

	fields := report.Fields()
	switch report.Outcome {
	case OutcomeFailed:
		log.Error("Sync run failed", append(fields, zap.String("error", report.Error))...)
	case OutcomeCompleted:
		log.Info("Sync run finished", fields...)
	default:
		log.Warn("Sync run finished with errors", fields...)
	}
}

func (c *Coordinator) emit(name string, value float64, tags map[string]string) {
	c.deps.Metrics.Emit(metrics.Event{Name: name, Value: value, Tags: tags, Timestamp: c.now()})
}

// String describes the coordinator's providers for logs.
func (c *Coordinator) String() string {
	src := c.sources.Load()
	if src.primary.Client == nil {
		return "livesync(no provider)"
	}
	if src.secondary == nil || src.secondary.Client == nil {
		return fmt.Sprintf("livesync(%s)", src.primary.Client.ID())
	}
	return fmt.Sprintf("livesync(%s, fallback %s)", src.primary.Client.ID(), src.secondary.Client.ID())
}
