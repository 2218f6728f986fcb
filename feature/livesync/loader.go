package livesync

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	coord   *Coordinator
	handler *Handler
}

// NewFeature creates the sync feature over an existing coordinator.
func NewFeature(coord *Coordinator, logger *zap.Logger) *Feature {
	return &Feature{coord: coord, handler: NewHandler(coord, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "livesync"
}

// IsEnabled reports whether a coordinator is configured.
func (f *Feature) IsEnabled() bool {
	return f.coord != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
