package normalize

import "strings"

// FieldMap names the record path of every canonical field. Empty entries use the defaults.
type FieldMap struct {
	ExternalID string `yaml:"external_id"`
	Sequence   string `yaml:"sequence"`
	Sport      string `yaml:"sport"`
	Season     string `yaml:"season"`
	Conference string `yaml:"conference"`
	HomeTeam   string `yaml:"home_team"`
	AwayTeam   string `yaml:"away_team"`
	HomeScore  string `yaml:"home_score"`
	AwayScore  string `yaml:"away_score"`
	Status     string `yaml:"status"`
	StartTime  string `yaml:"start_time"`
	// ObservedAt is optional. Without it the snapshot fetch time is used.
	ObservedAt string `yaml:"observed_at"`
	// DefaultSport is used when a record carries no sport.
	DefaultSport string `yaml:"default_sport"`
}

// DefaultFieldMap returns the field names used when a provider declares none.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		ExternalID: "id",
		Sequence:   "sequence",
		Sport:      "sport",
		Season:     "season",
		Conference: "conference",
		HomeTeam:   "home_team",
		AwayTeam:   "away_team",
		HomeScore:  "home_score",
		AwayScore:  "away_score",
		Status:     "status",
		StartTime:  "start_time",
	}
}

// withDefaults fills empty paths from DefaultFieldMap.
func (f FieldMap) withDefaults() FieldMap {
	d := DefaultFieldMap()
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	return FieldMap{
		ExternalID:   pick(f.ExternalID, d.ExternalID),
		Sequence:     pick(f.Sequence, d.Sequence),
		Sport:        pick(f.Sport, d.Sport),
		Season:       pick(f.Season, d.Season),
		Conference:   pick(f.Conference, d.Conference),
		HomeTeam:     pick(f.HomeTeam, d.HomeTeam),
		AwayTeam:     pick(f.AwayTeam, d.AwayTeam),
		HomeScore:    pick(f.HomeScore, d.HomeScore),
		AwayScore:    pick(f.AwayScore, d.AwayScore),
		Status:       pick(f.Status, d.Status),
		StartTime:    pick(f.StartTime, d.StartTime),
		ObservedAt:   f.ObservedAt,
		DefaultSport: f.DefaultSport,
	}
}

// lookup resolves a dotted path inside a decoded JSON object.
func lookup(record map[string]any, path string) any {
	if path == "" {
		return nil
	}
	var cur any = record
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[part]
	}
	return cur
}
