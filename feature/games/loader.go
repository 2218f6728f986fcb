package games

import (
	"time"

	"sports-pipeline/core/cache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the read feature.
func NewFeature(reader Reader, c *cache.Coordinator, ttl cache.Config, loc *time.Location, logger *zap.Logger) *Feature {
	svc := NewService(reader, c, ttl, loc, logger)
	return &Feature{service: svc, handler: NewHandler(svc)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "games"
}

// IsEnabled reports whether the store is available.
func (f *Feature) IsEnabled() bool {
	return f.service.reader != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
