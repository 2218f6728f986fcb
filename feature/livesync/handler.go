package livesync

import (
	"context"
	"errors"
	"time"

	"sports-pipeline/core/logger"
	"sports-pipeline/core/reconcile"
	"sports-pipeline/core/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusView is the body of GET /sync/status.
type StatusView struct {
	State      State           `json:"state"`
	Active     bool            `json:"active"`
	Dropped    int64           `json:"dropped_triggers"`
	Staleness  string          `json:"staleness_threshold"`
	Providers  string          `json:"providers"`
	LastRun    *RunReport      `json:"last_run,omitempty"`
	RecentRuns []store.SyncRun `json:"recent_runs,omitempty"`
}

// ReconcileView is the body of POST /sync/reconcile.
type ReconcileView struct {
	DryRun  bool                  `json:"dry_run"`
	Summary reconcile.PlanSummary `json:"summary"`
	Actions []reconcile.Action    `json:"actions"`
	Result  reconcile.ApplyResult `json:"result"`
}

// Handler handles HTTP requests for the sync job.
type Handler struct {
	coord  *Coordinator
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(coord *Coordinator, logger *zap.Logger) *Handler {
	return &Handler{coord: coord, logger: logger}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Get("/status", h.HandleStatus)
	group.Post("/trigger", h.HandleTrigger)
	group.Post("/reconcile", h.HandleReconcile)
}

// HandleStatus reports the coordinator state and recent runs.
// @Summary Sync Status
// @Description Current run phase, dropped trigger count, last run report and the persisted run log.
// @Tags sync
// @Produce json
// @Param limit query int false "Number of recent runs (default 10)"
// @Success 200 {object} StatusView "Status"
// @Router /sync/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	view := StatusView{
		State:     h.coord.State(),
		Active:    h.coord.Active(),
		Dropped:   h.coord.Dropped(),
		Staleness: h.coord.Staleness().String(),
		Providers: h.coord.String(),
		LastRun:   h.coord.LastReport(),
	}
	if runs := h.coord.deps.Runs; runs != nil {
		recent, err := runs.RecentRuns(c.UserContext(), c.QueryInt("limit", 10))
		if err != nil {
			logger.WithRayID(h.logger, c).Warn("Failed to list sync runs", zap.Error(err))
		}
		view.RecentRuns = recent
	}
	return c.JSON(view)
}

// HandleTrigger runs one sync and returns its report.
// @Summary Trigger Sync
// @Description Runs a sync for today's window. Returns 409 when a run is already active; the trigger is dropped, not queued.
// @Tags sync
// @Produce json
// @Success 200 {object} RunReport "Run report"
// @Failure 409 {object} map[string]string "Run already active"
// @Router /sync/trigger [post]
func (h *Handler) HandleTrigger(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	l.Info("Manual sync triggered")

	// The run outlives a disconnecting client; MaxRun bounds it.
	report, err := h.coord.Trigger(context.Background(), "manual")
	if errors.Is(err, ErrRunOverlap) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Manual sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleReconcile runs the reconciliation pass on demand.
// @Summary Reconcile Ledger
// @Description Records ledger entries for game rows whose write committed without one. Use dry_run=true to only plan.
// @Tags sync
// @Produce json
// @Param dry_run query bool false "Plan only"
// @Param hours query int false "Look-back window in hours (default sync.reconcile_window_hours)"
// @Success 200 {object} ReconcileView "Plan and result"
// @Failure 501 {object} map[string]string "Reconciliation not configured"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /sync/reconcile [post]
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.logger, c)
	planner := h.coord.deps.Reconciler
	if planner == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "reconciliation not configured"})
	}

	window := h.coord.cfg.ReconcileWindow()
	if hours := c.QueryInt("hours", 0); hours > 0 {
		window = time.Duration(hours) * time.Hour
	}
	dryRun := c.QueryBool("dry_run", false)

	plan, res, err := planner.Run(c.UserContext(), h.coord.now().Add(-window), reconcile.Options{DryRun: dryRun, Confirmed: !dryRun})
	if err != nil {
		l.Error("Reconciliation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	l.Info("Reconciliation finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("ledger_missing", plan.Summary.LedgerMissing),
		zap.Int("recorded", res.Recorded),
	)
	return c.JSON(ReconcileView{DryRun: dryRun, Summary: plan.Summary, Actions: plan.Actions, Result: res})
}
