package models

import (
	"fmt"
	"time"
)

// GameStatus is the normalized lifecycle state of a game.
type GameStatus string

const (
	StatusScheduled  GameStatus = "scheduled"
	StatusInProgress GameStatus = "in_progress"
	StatusFinal      GameStatus = "final"
	StatusPostponed  GameStatus = "postponed"
	StatusCanceled   GameStatus = "canceled"
)

// IdempotencyKey uniquely identifies one ingestible effect.
type IdempotencyKey struct {
	Provider   string `json:"provider"`
	ExternalID string `json:"external_id"`
	Sequence   int64  `json:"sequence"`
}

// String renders the key as provider|externalId|sequence.
func (k IdempotencyKey) String() string {
	return fmt.Sprintf("%s|%s|%d", k.Provider, k.ExternalID, k.Sequence)
}

// GamePayload is the canonical game state carried by an event.
type GamePayload struct {
	Sport      string     `json:"sport"`
	Season     int        `json:"season"`
	Conference string     `json:"conference"`
	HomeTeam   string     `json:"home_team"`
	AwayTeam   string     `json:"away_team"`
	HomeScore  int        `json:"home_score"`
	AwayScore  int        `json:"away_score"`
	Status     GameStatus `json:"status"`
	StartTime  time.Time  `json:"start_time"`
	// GameDate is the calendar date of StartTime in the reference time zone (YYYY-MM-DD).
	GameDate string `json:"game_date"`
}

// GameEvent is the canonical unit of ingestible change.
// Sequence is issued by the provider and is non-decreasing per (Provider, ExternalID).
type GameEvent struct {
	ExternalID string      `json:"external_id"`
	Provider   string      `json:"provider"`
	Sequence   int64       `json:"sequence"`
	GameID     string      `json:"game_id"`
	Payload    GamePayload `json:"payload"`
	ObservedAt time.Time   `json:"observed_at"`
}

// Key returns the idempotency key of the event.
func (e GameEvent) Key() IdempotencyKey {
	return IdempotencyKey{Provider: e.Provider, ExternalID: e.ExternalID, Sequence: e.Sequence}
}

// WriteOutcome records what a write did to the persisted store.
type WriteOutcome string

const (
	// OutcomeApplied means the game row changed.
	OutcomeApplied WriteOutcome = "applied"
	// OutcomeSuperseded means a newer sequence of the same stream was already applied.
	OutcomeSuperseded WriteOutcome = "superseded"
	// OutcomeReconciled means the row already carried this key but the ledger did not.
	OutcomeReconciled WriteOutcome = "reconciled"
)
