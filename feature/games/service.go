package games

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sports-pipeline/core/cache"
	"sports-pipeline/core/normalize"
	"sports-pipeline/core/store"

	"go.uber.org/zap"
)

// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("invalid date")

// Reader loads query results from the persisted store. store.Repository implements it.
type Reader interface {
	GamesByDate(ctx context.Context, date string) ([]store.Game, error)
	Standings(ctx context.Context, conference string) ([]store.StandingRow, error)
	Conferences(ctx context.Context) ([]string, error)
}

// DayGames is the game list of one calendar day.
type DayGames struct {
	Date  string       `json:"date"`
	Games []store.Game `json:"games"`
}

// ConferenceStandings is one conference table.
type ConferenceStandings struct {
	Conference string              `json:"conference"`
	Rows       []store.StandingRow `json:"rows"`
}

// Service serves read queries through the cache.
type Service struct {
	reader Reader
	cache  *cache.Coordinator
	ttl    cache.Config
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a new Service. loc is the reference time zone that decides "today".
func NewService(reader Reader, c *cache.Coordinator, ttl cache.Config, loc *time.Location, logger *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{reader: reader, cache: c, ttl: ttl, loc: loc, now: time.Now, logger: logger}
}

// Today returns the current date in the reference time zone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(time.DateOnly)
}

// GamesOn returns the games of date (YYYY-MM-DD).
func (s *Service) GamesOn(ctx context.Context, date string) (*DayGames, error) {
	if _, err := time.ParseInLocation(time.DateOnly, date, s.loc); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return cache.Get(ctx, s.cache, cache.Key("games", date), s.ttl.GamesTTL(), func(ctx context.Context) (*DayGames, error) {
		games, err := s.reader.GamesByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		return &DayGames{Date: date, Games: games}, nil
	})
}

// GamesToday returns today's games.
func (s *Service) GamesToday(ctx context.Context) (*DayGames, error) {
	return s.GamesOn(ctx, s.Today())
}

// Standings returns the table of a conference. The name is matched by slug, so "SEC"
// and "sec" share one cache entry.
func (s *Service) Standings(ctx context.Context, conference string) (*ConferenceStandings, error) {
	slug := normalize.Slug(conference)
	return cache.Get(ctx, s.cache, cache.Key("standings", slug), s.ttl.StandingsTTL(), func(ctx context.Context) (*ConferenceStandings, error) {
		rows, err := s.reader.Standings(ctx, slug)
		if err != nil {
			return nil, err
		}
		return &ConferenceStandings{Conference: slug, Rows: rows}, nil
	})
}

// Conferences returns every conference with at least one game.
func (s *Service) Conferences(ctx context.Context) ([]string, error) {
	return cache.Get(ctx, s.cache, cache.Key("conferences"), s.ttl.ConferencesTTL(), s.reader.Conferences)
}
