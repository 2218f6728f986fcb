package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"sports-pipeline/core/ledger"
	"sports-pipeline/core/models"

	"gorm.io/gorm"
)

// maxUpsertAttempts bounds re-evaluation when the row changes under a write.
const maxUpsertAttempts = 5

// ErrUpsertContention means the row kept changing between read and write.
var ErrUpsertContention = errors.New("game row changed concurrently")

// GameWriter is the write capability the sync job needs.
type GameWriter interface {
	UpsertGame(ctx context.Context, ev models.GameEvent) (models.WriteOutcome, error)
}

// Repository is the gorm-backed persisted store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a repository over db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the game, run log and ledger tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Game{}, &SyncRun{}); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	if err := ledger.Migrate(db); err != nil {
		return fmt.Errorf("migrate ledger: %w", err)
	}
	return nil
}

// DB returns the underlying handle.
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Atomically runs fn in one transaction with a writer and a ledger bound to it. Any error
// returned by fn rolls back both.
func (r *Repository) Atomically(ctx context.Context, fn func(w GameWriter, l ledger.Ledger) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx}, ledger.NewGormLedger(tx))
	})
}

// UpsertGame applies ev to its game row.
//
// Within one stream (provider, externalId) a lower sequence never overwrites a higher one
// and the same sequence is reported as already present. Across streams the event with the
// later observedAt wins.
func (r *Repository) UpsertGame(ctx context.Context, ev models.GameEvent) (models.WriteOutcome, error) {
	db := r.db.WithContext(ctx)

	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		var existing Game
		err := db.Where("id = ?", ev.GameID).Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row := gameFromEvent(ev)
			if err := db.Create(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue
				}
				return "", fmt.Errorf("insert game %s: %w", ev.GameID, err)
			}
			return models.OutcomeApplied, nil
		}
		if err != nil {
			return "", fmt.Errorf("load game %s: %w", ev.GameID, err)
		}

		if outcome, skip := decide(existing, ev); skip {
			return outcome, nil
		}

		res := db.Model(&Game{}).
			Where("id = ? AND last_provider = ? AND last_external_id = ? AND last_sequence = ?",
				existing.ID, existing.LastProvider, existing.LastExternalID, existing.LastSequence).
			Updates(updatesFromEvent(ev))
		if res.Error != nil {
			return "", fmt.Errorf("update game %s: %w", ev.GameID, res.Error)
		}
		if res.RowsAffected == 1 {
			return models.OutcomeApplied, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUpsertContention, ev.GameID)
}

// decide returns the outcome for ev against the current row when no write is needed.
func decide(existing Game, ev models.GameEvent) (models.WriteOutcome, bool) {
	sameStream := existing.LastProvider == ev.Provider && existing.LastExternalID == ev.ExternalID
	if sameStream {
		switch {
		case ev.Sequence == existing.LastSequence:
			return models.OutcomeReconciled, true
		case ev.Sequence < existing.LastSequence:
			return models.OutcomeSuperseded, true
		default:
			return "", false
		}
	}
	if !ev.ObservedAt.After(existing.LastObservedAt) {
		return models.OutcomeSuperseded, true
	}
	return "", false
}

func gameFromEvent(ev models.GameEvent) Game {
	p := ev.Payload
	return Game{
		ID:             ev.GameID,
		Sport:          p.Sport,
		Season:         p.Season,
		Conference:     p.Conference,
		HomeTeam:       p.HomeTeam,
		AwayTeam:       p.AwayTeam,
		HomeScore:      p.HomeScore,
		AwayScore:      p.AwayScore,
		Status:         p.Status,
		StartTime:      p.StartTime.UTC(),
		GameDate:       p.GameDate,
		LastProvider:   ev.Provider,
		LastExternalID: ev.ExternalID,
		LastSequence:   ev.Sequence,
		LastObservedAt: ev.ObservedAt.UTC(),
	}
}

// updatesFromEvent lists every column explicitly so zero scores are written too.
func updatesFromEvent(ev models.GameEvent) map[string]any {
	p := ev.Payload
	return map[string]any{
		"sport":            p.Sport,
		"season":           p.Season,
		"conference":       p.Conference,
		"home_team":        p.HomeTeam,
		"away_team":        p.AwayTeam,
		"home_score":       p.HomeScore,
		"away_score":       p.AwayScore,
		"status":           p.Status,
		"start_time":       p.StartTime.UTC(),
		"game_date":        p.GameDate,
		"last_provider":    ev.Provider,
		"last_external_id": ev.ExternalID,
		"last_sequence":    ev.Sequence,
		"last_observed_at": ev.ObservedAt.UTC(),
		"updated_at":       time.Now().UTC(),
	}
}

// AppliedMarkers lists the applied keys of every row updated at or after since.
func (r *Repository) AppliedMarkers(ctx context.Context, since time.Time) ([]Marker, error) {
	var rows []Game
	err := r.db.WithContext(ctx).
		Select("id", "last_provider", "last_external_id", "last_sequence").
		Where("updated_at >= ?", since.UTC()).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list applied markers: %w", err)
	}
	markers := make([]Marker, 0, len(rows))
	for _, g := range rows {
		markers = append(markers, Marker{GameID: g.ID, Key: g.LastKey()})
	}
	return markers, nil
}

// GameByID returns one game.
func (r *Repository) GameByID(ctx context.Context, id string) (*Game, error) {
	var g Game
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// GamesByDate returns the games played on date (YYYY-MM-DD, reference zone) ordered by
// start time.
func (r *Repository) GamesByDate(ctx context.Context, date string) ([]Game, error) {
	games := []Game{}
	err := r.db.WithContext(ctx).
		Where("game_date = ?", date).
		Order("start_time, id").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("list games for %s: %w", date, err)
	}
	return games, nil
}

// Conferences returns the distinct non-empty conferences, sorted.
func (r *Repository) Conferences(ctx context.Context) ([]string, error) {
	conferences := []string{}
	err := r.db.WithContext(ctx).
		Model(&Game{}).
		Where("conference <> ''").
		Distinct().
		Order("conference").
		Pluck("conference", &conferences).Error
	if err != nil {
		return nil, fmt.Errorf("list conferences: %w", err)
	}
	return conferences, nil
}

// Standings computes the conference table from its final games.
// Rows are ordered by win percentage, then wins, then team name.
func (r *Repository) Standings(ctx context.Context, conference string) ([]StandingRow, error) {
	var games []Game
	err := r.db.WithContext(ctx).
		Where("conference = ? AND status = ?", conference, models.StatusFinal).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("load standings for %s: %w", conference, err)
	}

	byTeam := make(map[string]*StandingRow)
	row := func(team string) *StandingRow {
		if s, ok := byTeam[team]; ok {
			return s
		}
		s := &StandingRow{Team: team}
		byTeam[team] = s
		return s
	}
	for _, g := range games {
		home, away := row(g.HomeTeam), row(g.AwayTeam)
		home.PointsFor += g.HomeScore
		home.PointsAgainst += g.AwayScore
		away.PointsFor += g.AwayScore
		away.PointsAgainst += g.HomeScore
		switch {
		case g.HomeScore > g.AwayScore:
			home.Wins++
			away.Losses++
		case g.HomeScore < g.AwayScore:
			away.Wins++
			home.Losses++
		default:
			home.Ties++
			away.Ties++
		}
	}

	rows := make([]StandingRow, 0, len(byTeam))
	for _, s := range byTeam {
		if played := s.Wins + s.Losses + s.Ties; played > 0 {
			s.WinPct = (float64(s.Wins) + 0.5*float64(s.Ties)) / float64(played)
		}
		rows = append(rows, *s)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].WinPct != rows[j].WinPct {
			return rows[i].WinPct > rows[j].WinPct
		}
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].Team < rows[j].Team
	})
	return rows, nil
}

// SaveRun persists one run report.
func (r *Repository) SaveRun(ctx context.Context, run *SyncRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("save sync run %s: %w", run.ID, err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (r *Repository) RecentRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	runs := []SyncRun{}
	err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("list sync runs: %w", err)
	}
	return runs, nil
}
