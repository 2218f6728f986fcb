package store

import (
	"time"

	"sports-pipeline/core/models"
)

// Game is the persisted state of one game.
type Game struct {
	ID         string            `gorm:"primaryKey;size:160" json:"id"`
	Sport      string            `gorm:"size:64;index" json:"sport"`
	Season     int               `json:"season"`
	Conference string            `gorm:"size:64;index" json:"conference"`
	HomeTeam   string            `gorm:"size:128" json:"home_team"`
	AwayTeam   string            `gorm:"size:128" json:"away_team"`
	HomeScore  int               `json:"home_score"`
	AwayScore  int               `json:"away_score"`
	Status     models.GameStatus `gorm:"size:16" json:"status"`
	StartTime  time.Time         `json:"start_time"`
	GameDate   string            `gorm:"size:10;index" json:"game_date"`

	LastProvider   string    `gorm:"size:64" json:"-"`
	LastExternalID string    `gorm:"size:128" json:"-"`
	LastSequence   int64     `json:"-"`
	LastObservedAt time.Time `json:"-"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName pins the table name.
func (Game) TableName() string { return "games" }

// LastKey returns the idempotency key of the event last applied to the row.
func (g Game) LastKey() models.IdempotencyKey {
	return models.IdempotencyKey{Provider: g.LastProvider, ExternalID: g.LastExternalID, Sequence: g.LastSequence}
}

// SyncRun is one persisted sync run report.
type SyncRun struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	StartedAt       time.Time `gorm:"index" json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	Trigger         string    `gorm:"size:16" json:"trigger"`
	Outcome         string    `gorm:"size:16" json:"outcome"`
	Provider        string    `gorm:"size:64" json:"provider"`
	Choice          string    `gorm:"size:16" json:"choice"`
	Fetched         int       `json:"fetched"`
	Applied         int       `json:"applied"`
	Duplicates      int       `json:"duplicates"`
	Superseded      int       `json:"superseded"`
	Reconciled      int       `json:"reconciled"`
	NormalizeFailed int       `json:"normalize_failed"`
	WriteFailed     int       `json:"write_failed"`
	MaybeApplied    int       `json:"maybe_applied"`
	LedgerPending   int       `json:"ledger_pending"`
	Skipped         int       `json:"skipped"`
	Error           string    `gorm:"type:text" json:"error,omitempty"`
}

// TableName pins the table name.
func (SyncRun) TableName() string { return "sync_runs" }

// Marker is the applied key carried by a game row.
type Marker struct {
	GameID string
	Key    models.IdempotencyKey
}

// StandingRow is one team's record within a conference.
type StandingRow struct {
	Team          string  `json:"team"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     int     `json:"points_for"`
	PointsAgainst int     `json:"points_against"`
	WinPct        float64 `json:"win_pct"`
}
