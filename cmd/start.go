package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"sports-pipeline/core/cache"
	"sports-pipeline/core/config"
	"sports-pipeline/core/loader"
	"sports-pipeline/core/logger"
	"sports-pipeline/core/metrics"
	"sports-pipeline/core/middleware/auth"
	"sports-pipeline/core/middleware/rayid"
	"sports-pipeline/feature/games"
	"sports-pipeline/feature/integrity"
	"sports-pipeline/feature/livesync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "sports-pipeline/docs/swagger"
)

// @title Sports Pipeline API
// @version 1.0
// @description Live game data, standings and sync control.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server and the sync scheduler",
	Long:  `Starts the read API, the scheduled sync job, the cache sweeper and the providers file watcher.`,
	Run: func(cmd *cobra.Command, args []string) {
		svc, err := loadServices()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := svc.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)
		cfg := svc.cfg

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		var wg sync.WaitGroup

		// 1. Metrics recorder (non-blocking sink for every component)
		recorder := metrics.NewRecorder(4096)
		wg.Add(1)
		go func() {
			defer wg.Done()
			recorder.Run(ctx)
		}()

		// 2. Read cache
		cacheStore := cache.NewMemoryStore()
		cacheCoord := cache.NewCoordinator(cacheStore, cfg.Cache.HydrateTimeout(), logg, cache.WithMetrics(recorder))
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.RunSweeper(ctx, cacheStore, cfg.Cache.SweepInterval(), logg)
		}()

		// 3. Sync coordinator + scheduler + providers watch
		coord, _, err := svc.coordinator(ctx, cacheCoord, recorder)
		if err != nil {
			logg.Fatal("Failed to build sync coordinator", zap.Error(err))
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			coord.Schedule(ctx, cfg.Sync.Interval())
		}()
		go func() {
			defer wg.Done()
			err := config.WatchProviderFile(ctx, cfg.Sync.ProvidersFile, logg, func(pf *config.ProviderFile) {
				primary, secondary := sources(pf, coord.Location(), logg)
				coord.SetSources(primary, secondary)
				coord.SetStaleness(pf.Staleness(cfg.Sync.Staleness()))
				logg.Info("Sync providers swapped",
					zap.Stringer("coordinator", coord),
					zap.Duration("staleness", coord.Staleness()),
				)
			})
			if err != nil {
				logg.Warn("Providers file watch disabled", zap.Error(err))
			}
		}()

		// 4. HTTP server
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           cfg.Server.ReadTimeout(),
		})

		mgr := loader.NewManager(logg)
		mgr.Register(games.NewFeature(svc.repo, cacheCoord, cfg.Cache, coord.Location(), logg))
		mgr.Register(livesync.NewFeature(coord, logg))
		mgr.Register(integrity.NewFeature(svc.integrity(ctx)))

		// RayID first so every later log line carries it
		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Debug("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Public endpoints
		app.Get("/healthz", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok", "sync_state": coord.State().String()})
		})
		app.Get("/metrics", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, metrics.ContentType())
			return recorder.WriteText(c)
		})
		app.Get("/swagger/*", swagger.HandlerDefault)

		if !cfg.Server.AuthEnabled() {
			logg.Warn("API key not set, endpoints are unauthenticated")
		}
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("addr", cfg.Server.Addr()))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Error("Server stopped", zap.Error(err))
				stop()
			}
		}()

		<-ctx.Done()
		logg.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout()); err != nil {
			logg.Warn("Server shutdown incomplete", zap.Error(err))
		}
		wg.Wait()
		logg.Info("Shutdown complete", zap.Int64("dropped_metric_events", recorder.Dropped()))
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
