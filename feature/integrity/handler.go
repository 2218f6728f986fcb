package integrity

import (
	"errors"
	"time"

	"sports-pipeline/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/archive", h.HandleArchiveCheck)
	group.Get("/ledger", h.HandleLedgerCheck)
}

func section(report any, err error) any {
	if errors.Is(err, ErrNotConfigured) {
		return fiber.Map{"status": "skipped"}
	}
	if err != nil {
		return fiber.Map{"status": "error", "error": err.Error()}
	}
	return report
}

func errorStatus(err error) int {
	if errors.Is(err, ErrNotConfigured) {
		return fiber.StatusNotImplemented
	}
	return fiber.StatusInternalServerError
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs the schema, archive and ledger checks. Unconfigured checks are reported as skipped.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.Context()
	schema, err := h.service.CheckSchema()
	schemaSection := section(schema, err)
	archive, err := h.service.CheckArchive(ctx)
	archiveSection := section(archive, err)
	ledgerReport, err := h.service.CheckLedger(ctx, 0)
	ledgerSection := section(ledgerReport, err)

	return c.JSON(fiber.Map{
		"schema":  schemaSection,
		"archive": archiveSection,
		"ledger":  ledgerSection,
	})
}

// HandleSchemaCheck validates the database schema.
// @Summary Check Database Schema
// @Description Verifies that every column of the pipeline's models exists in the connected database.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckSchema()
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Schema check failed", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Matched {
		logger.WithRayID(h.service.logger, c).Warn("Schema mismatch detected", zap.Strings("errors", report.Errors))
	}
	return c.JSON(report)
}

// HandleArchiveCheck inspects the snapshot archive.
// @Summary Check Snapshot Archive
// @Description Counts archived snapshots per provider and lists keys outside the expected layout.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.ArchiveReport
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 501 {object} map[string]string "Archive not configured"
// @Router /integrity/archive [get]
func (h *Handler) HandleArchiveCheck(c *fiber.Ctx) error {
	report, err := h.service.CheckArchive(c.Context())
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Archive check failed", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}

// HandleLedgerCheck compares recent writes with the ledger.
// @Summary Check Idempotency Ledger
// @Description Plans, without applying, the reconciliation of rows updated inside the window.
// @Tags integrity
// @Produce json
// @Param hours query int false "Look-back window in hours"
// @Success 200 {object} checks.LedgerReport
// @Failure 400 {object} map[string]string "Invalid window"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 501 {object} map[string]string "Reconciler not configured"
// @Router /integrity/ledger [get]
func (h *Handler) HandleLedgerCheck(c *fiber.Ctx) error {
	hours := c.QueryInt("hours", 0)
	if hours < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "hours must not be negative"})
	}
	report, err := h.service.CheckLedger(c.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		logger.WithRayID(h.service.logger, c).Error("Ledger check failed", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
