package livesync

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"sports-pipeline/core/ledger"
	"sports-pipeline/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T, cfg Config, deps Deps) (*fiber.App, *Coordinator) {
	t.Helper()
	primary := &stubClient{id: "espn", snap: snapshot("espn", 10, game("G1", 1))}
	coord := newCoordinator(t, cfg, deps, source(primary), nil)
	app := fiber.New()
	NewHandler(coord, zap.NewNop()).RegisterRoutes(app)
	return app, coord
}

func TestHandleTrigger(t *testing.T) {
	app, _ := setupTestApp(t, testConfig(), Deps{Games: &recordingStore{}, Ledger: ledger.NewMemoryLedger()})

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/trigger", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var report RunReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, "manual", report.Trigger)
}

func TestHandleTrigger_Overlap(t *testing.T) {
	app, coord := setupTestApp(t, testConfig(), Deps{Games: &recordingStore{}, Ledger: ledger.NewMemoryLedger()})
	coord.active.Store(true)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/trigger", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.EqualValues(t, 1, coord.Dropped())
}

func TestHandleStatus(t *testing.T) {
	repo := setupRepository(t)
	app, coord := setupTestApp(t, testConfig(), Deps{Games: repo, Ledger: ledger.NewGormLedger(repo.DB()), Runs: repo})
	_, err := coord.Trigger(context.Background(), "test")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/sync/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, false, body["active"])
	assert.Equal(t, "2m0s", body["staleness_threshold"])
	assert.NotNil(t, body["last_run"])
	assert.Len(t, body["recent_runs"], 1)
}

func TestHandleReconcile(t *testing.T) {
	t.Run("NotConfigured", func(t *testing.T) {
		app, _ := setupTestApp(t, testConfig(), Deps{Games: &recordingStore{}, Ledger: ledger.NewMemoryLedger()})

		resp, err := app.Test(httptest.NewRequest("POST", "/sync/reconcile", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotImplemented, resp.StatusCode)
	})

	t.Run("DryRunThenApply", func(t *testing.T) {
		repo := setupRepository(t)
		l := ledger.NewGormLedger(repo.DB())
		// Writes go to a throwaway ledger so every row is ledger-missing.
		cfg := testConfig()
		cfg.AtomicWrites = false
		app, coord := setupTestApp(t, cfg, Deps{Games: repo, Ledger: ledger.NewMemoryLedger(), Reconciler: reconcile.NewPlanner(repo, l)})
		_, err := coord.Trigger(context.Background(), "test")
		require.NoError(t, err)

		resp, err := app.Test(httptest.NewRequest("POST", "/sync/reconcile?dry_run=true", nil))
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var view ReconcileView
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		assert.True(t, view.DryRun)
		assert.Equal(t, 1, view.Summary.LedgerMissing)
		assert.Equal(t, 0, view.Result.Recorded)

		resp, err = app.Test(httptest.NewRequest("POST", "/sync/reconcile", nil))
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		assert.Equal(t, 1, view.Result.Recorded)

		count, err := l.Count(context.Background())
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func TestLoader(t *testing.T) {
	coord := newCoordinator(t, testConfig(), Deps{Games: &recordingStore{}, Ledger: ledger.NewMemoryLedger()}, Source{}, nil)
	feature := NewFeature(coord, zap.NewNop())

	assert.Equal(t, "livesync", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}
