package games

import (
	"errors"

	"sports-pipeline/core/cache"
	"sports-pipeline/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for game queries.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the read routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/games/today", h.HandleGamesToday)
	app.Get("/games/date/:date", h.HandleGamesOn)
	app.Get("/standings/:conference", h.HandleStandings)
	app.Get("/conferences", h.HandleConferences)
}

func (h *Handler) fail(c *fiber.Ctx, err error) error {
	l := logger.WithRayID(h.service.logger, c)
	switch {
	case errors.Is(err, ErrInvalidDate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, cache.ErrLoaderFailed):
		l.Error("Query hydration failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		l.Error("Query failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// HandleGamesToday lists today's games.
// @Summary Today's Games
// @Description Games of the current day in the reference time zone.
// @Tags games
// @Produce json
// @Success 200 {object} DayGames "Games"
// @Failure 503 {object} map[string]string "Origin unavailable"
// @Router /games/today [get]
func (h *Handler) HandleGamesToday(c *fiber.Ctx) error {
	res, err := h.service.GamesToday(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleGamesOn lists the games of one day.
// @Summary Games By Date
// @Tags games
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} DayGames "Games"
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 503 {object} map[string]string "Origin unavailable"
// @Router /games/date/{date} [get]
func (h *Handler) HandleGamesOn(c *fiber.Ctx) error {
	res, err := h.service.GamesOn(c.UserContext(), c.Params("date"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleStandings returns a conference table.
// @Summary Conference Standings
// @Tags games
// @Produce json
// @Param conference path string true "Conference (e.g. 'sec')"
// @Success 200 {object} ConferenceStandings "Standings"
// @Failure 503 {object} map[string]string "Origin unavailable"
// @Router /standings/{conference} [get]
func (h *Handler) HandleStandings(c *fiber.Ctx) error {
	res, err := h.service.Standings(c.UserContext(), c.Params("conference"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(res)
}

// HandleConferences lists the conferences.
// @Summary Conferences
// @Tags games
// @Produce json
// @Success 200 {array} string "Conferences"
// @Failure 503 {object} map[string]string "Origin unavailable"
// @Router /conferences [get]
func (h *Handler) HandleConferences(c *fiber.Ctx) error {
	res, err := h.service.Conferences(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"conferences": res})
}
