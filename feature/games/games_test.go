package games

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sports-pipeline/core/cache"
	"sports-pipeline/core/database"
	"sports-pipeline/core/models"
	"sports-pipeline/core/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingReader counts origin reads per query.
type countingReader struct {
	Reader
	games, standings, conferences atomic.Int32
	fail                          error
}

func (c *countingReader) GamesByDate(ctx context.Context, date string) ([]store.Game, error) {
	c.games.Add(1)
	if c.fail != nil {
		return nil, c.fail
	}
	return c.Reader.GamesByDate(ctx, date)
}

func (c *countingReader) Standings(ctx context.Context, conference string) ([]store.StandingRow, error) {
	c.standings.Add(1)
	// Slow enough for concurrent callers to pile up on one hydration.
	time.Sleep(50 * time.Millisecond)
	return c.Reader.Standings(ctx, conference)
}

func (c *countingReader) Conferences(ctx context.Context) ([]string, error) {
	c.conferences.Add(1)
	return c.Reader.Conferences(ctx)
}

var chicago, _ = time.LoadLocation("America/Chicago")

func final(ext, home, away string, hs, as int) models.GameEvent {
	start := time.Date(2024, 11, 2, 14, 30, 0, 0, chicago)
	return models.GameEvent{
		ExternalID: ext,
		Provider:   "espn",
		Sequence:   1,
		GameID:     "cfb-2024-11-02-" + ext,
		ObservedAt: time.Now().UTC(),
		Payload: models.GamePayload{
			Sport:      "cfb",
			Season:     2024,
			Conference: "sec",
			HomeTeam:   home,
			AwayTeam:   away,
			HomeScore:  hs,
			AwayScore:  as,
			Status:     models.StatusFinal,
			StartTime:  start.UTC(),
			GameDate:   "2024-11-02",
		},
	}
}

func setupService(t *testing.T) (*Service, *countingReader, *cache.Coordinator) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))
	repo := store.NewRepository(db)

	ctx := context.Background()
	for _, ev := range []models.GameEvent{
		final("g1", "Georgia", "Texas", 30, 15),
		final("g2", "Alabama", "LSU", 42, 13),
	} {
		_, err := repo.UpsertGame(ctx, ev)
		require.NoError(t, err)
	}

	reader := &countingReader{Reader: repo}
	coord := cache.NewCoordinator(cache.NewMemoryStore(), time.Second, zap.NewNop())
	ttl := cache.Config{GamesTTLSeconds: 30, StandingsTTLSeconds: 300, ConferencesTTLSeconds: 3600}
	svc := NewService(reader, coord, ttl, chicago, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 11, 3, 3, 0, 0, 0, time.UTC) }
	return svc, reader, coord
}

func TestService_GamesTodayUsesReferenceZone(t *testing.T) {
	svc, reader, _ := setupService(t)

	assert.Equal(t, "2024-11-02", svc.Today())
	res, err := svc.GamesToday(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Games, 2)

	_, err = svc.GamesOn(context.Background(), "2024-11-02")
	require.NoError(t, err)
	assert.EqualValues(t, 1, reader.games.Load())
}

func TestService_InvalidDate(t *testing.T) {
	svc, reader, _ := setupService(t)

	_, err := svc.GamesOn(context.Background(), "11/02/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.EqualValues(t, 0, reader.games.Load())
}

func TestService_StandingsSingleFlight(t *testing.T) {
	svc, reader, _ := setupService(t)

	const callers = 50
	var wg sync.WaitGroup
	results := make([]*ConferenceStandings, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Standings(context.Background(), "SEC")
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, reader.standings.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	require.Len(t, results[0].Rows, 4)
	assert.Equal(t, "Alabama", results[0].Rows[0].Team)
}

func TestService_InvalidationForcesReload(t *testing.T) {
	svc, reader, coord := setupService(t)
	ctx := context.Background()

	_, err := svc.Conferences(ctx)
	require.NoError(t, err)
	_, err = svc.Conferences(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reader.conferences.Load())

	coord.InvalidatePrefix("conferences")
	confs, err := svc.Conferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sec"}, confs)
	assert.EqualValues(t, 2, reader.conferences.Load())
}

func TestService_FailuresAreNotCached(t *testing.T) {
	svc, reader, _ := setupService(t)
	reader.fail = errors.New("db down")

	_, err := svc.GamesOn(context.Background(), "2024-11-02")
	assert.ErrorIs(t, err, cache.ErrLoaderFailed)

	reader.fail = nil
	res, err := svc.GamesOn(context.Background(), "2024-11-02")
	require.NoError(t, err)
	assert.Len(t, res.Games, 2)
	assert.EqualValues(t, 2, reader.games.Load())
}

func setupTestApp(t *testing.T) (*fiber.App, *countingReader) {
	svc, reader, _ := setupService(t)
	app := fiber.New()
	NewHandler(svc).RegisterRoutes(app)
	return app, reader
}

func TestHandlers(t *testing.T) {
	app, _ := setupTestApp(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"Today", "/games/today", 200},
		{"ByDate", "/games/date/2024-11-02", 200},
		{"BadDate", "/games/date/yesterday", 400},
		{"Standings", "/standings/sec", 200},
		{"Conferences", "/conferences", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestHandleGamesOn_Body(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/games/date/2024-11-02", nil))
	require.NoError(t, err)

	var body DayGames
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2024-11-02", body.Date)
	require.Len(t, body.Games, 2)
	assert.Equal(t, "sec", body.Games[0].Conference)
}

func TestHandleGamesOn_OriginFailure(t *testing.T) {
	app, reader := setupTestApp(t)
	reader.fail = errors.New("db down")

	resp, err := app.Test(httptest.NewRequest("GET", "/games/date/2024-11-02", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestLoader(t *testing.T) {
	coord := cache.NewCoordinator(cache.NewMemoryStore(), time.Second, zap.NewNop())
	feature := NewFeature(&countingReader{}, coord, cache.Config{}, chicago, zap.NewNop())

	assert.Equal(t, "games", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))
}
