package normalize

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"sports-pipeline/core/models"
	"sports-pipeline/core/provider"
	"sports-pipeline/core/utils"
)

// NormalizationError reports one record that could not be normalized.
type NormalizationError struct {
	Provider   string
	Index      int
	ExternalID string
	Err        error
}

func (e *NormalizationError) Error() string {
	if e.ExternalID != "" {
		return fmt.Sprintf("normalize %s record %d (%s): %v", e.Provider, e.Index, e.ExternalID, e.Err)
	}
	return fmt.Sprintf("normalize %s record %d: %v", e.Provider, e.Index, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

var (
	errNotAnObject       = errors.New("record is not a JSON object")
	errMissingExternalID = errors.New("missing external id")
	errMissingSequence   = errors.New("missing or invalid sequence")
	errMissingStartTime  = errors.New("missing or invalid start time")
	errMissingTeams      = errors.New("missing home or away team")
)

// Result is the outcome of normalizing one snapshot.
type Result struct {
	// Events are ordered by (ExternalID, Sequence) ascending.
	Events []models.GameEvent
	Errors []*NormalizationError
}

// Normalizer converts the records of one provider.
type Normalizer struct {
	fields FieldMap
	loc    *time.Location
}

// New creates a Normalizer. loc is the reference time zone used for game dates and for
// start times given without a zone.
func New(fields FieldMap, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{fields: fields.withDefaults(), loc: loc}
}

// Normalize converts every record of snap.
func (n *Normalizer) Normalize(snap *provider.Snapshot) Result {
	var res Result
	for i, raw := range snap.Games {
		ev, err := n.event(snap, raw)
		if err != nil {
			res.Errors = append(res.Errors, &NormalizationError{
				Provider:   snap.ProviderID,
				Index:      i,
				ExternalID: utils.ToString(lookup(raw, n.fields.ExternalID)),
				Err:        err,
			})
			continue
		}
		res.Events = append(res.Events, ev)
	}
	SortEvents(res.Events)
	return res
}

// SortEvents orders events by (ExternalID, Sequence) ascending. Equal keys keep their
// snapshot order.
func SortEvents(events []models.GameEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].ExternalID != events[j].ExternalID {
			return events[i].ExternalID < events[j].ExternalID
		}
		return events[i].Sequence < events[j].Sequence
	})
}

func (n *Normalizer) event(snap *provider.Snapshot, raw provider.RawGame) (models.GameEvent, error) {
	if raw == nil {
		return models.GameEvent{}, errNotAnObject
	}
	f := n.fields

	externalID := utils.ToString(lookup(raw, f.ExternalID))
	if externalID == "" {
		return models.GameEvent{}, errMissingExternalID
	}

	seq, ok := utils.ToInt64(lookup(raw, f.Sequence))
	if !ok || seq < 0 {
		return models.GameEvent{}, errMissingSequence
	}

	start, ok := utils.ToTime(lookup(raw, f.StartTime), n.loc)
	if !ok {
		return models.GameEvent{}, errMissingStartTime
	}

	home := utils.ToString(lookup(raw, f.HomeTeam))
	away := utils.ToString(lookup(raw, f.AwayTeam))
	if home == "" || away == "" {
		return models.GameEvent{}, errMissingTeams
	}

	status, err := Status(utils.ToString(lookup(raw, f.Status)))
	if err != nil {
		return models.GameEvent{}, err
	}

	sport := Slug(utils.ToString(lookup(raw, f.Sport)))
	if sport == "" {
		sport = Slug(f.DefaultSport)
	}

	observedAt := snap.FetchedAt
	if t, ok := utils.ToTime(lookup(raw, f.ObservedAt), time.UTC); ok {
		observedAt = t
	}

	gameDate := start.In(n.loc).Format(time.DateOnly)
	season := utils.ToInt(lookup(raw, f.Season))
	if season == 0 {
		season = start.In(n.loc).Year()
	}

	return models.GameEvent{
		ExternalID: externalID,
		Provider:   snap.ProviderID,
		Sequence:   seq,
		GameID:     GameID(sport, gameDate, away, home),
		ObservedAt: observedAt.UTC(),
		Payload: models.GamePayload{
			Sport:      sport,
			Season:     season,
			Conference: Slug(utils.ToString(lookup(raw, f.Conference))),
			HomeTeam:   home,
			AwayTeam:   away,
			HomeScore:  utils.ToInt(lookup(raw, f.HomeScore)),
			AwayScore:  utils.ToInt(lookup(raw, f.AwayScore)),
			Status:     status,
			StartTime:  start.UTC(),
			GameDate:   gameDate,
		},
	}, nil
}

// GameID derives the provider-independent game identifier, so that the same game reported
// by two providers maps to one persisted row.
//
//	GameID("cfb", "2024-11-02", "Texas", "Georgia") == "cfb-2024-11-02-texas-at-georgia"
func GameID(sport, gameDate, away, home string) string {
	id := gameDate + "-" + Slug(away) + "-at-" + Slug(home)
	if sport != "" {
		id = sport + "-" + id
	}
	return id
}
