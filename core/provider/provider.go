package provider

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrProviderUnavailable means the provider could not return a usable snapshot.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrProviderTimeout means the provider did not answer in time.
	ErrProviderTimeout = errors.New("provider timeout")
	// ErrProviderStale means the provider's own last update is older than the threshold.
	ErrProviderStale = errors.New("provider data stale")
)

// RawGame is one provider-specific game record, decoded from JSON with numbers kept as
// json.Number.
type RawGame map[string]any

// Snapshot is one provider's view of in-scope games at fetch time.
type Snapshot struct {
	ProviderID string
	FetchedAt  time.Time
	// AgeSeconds is the time since the provider's own last update. Negative when the
	// provider did not report one.
	AgeSeconds float64
	// Games keeps the provider's order. A nil entry is a record that was not a JSON object.
	Games []RawGame
	// Raw is the response body as received.
	Raw []byte
}

// Window bounds a fetch to one calendar day in the reference time zone.
type Window struct {
	Date     string
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// TodayWindow returns the window for the calendar day containing now in loc.
func TodayWindow(now time.Time, loc *time.Location) Window {
	return DayWindow(now.In(loc).Format(time.DateOnly), loc)
}

// DayWindow returns the window for date (YYYY-MM-DD) in loc. An unparseable date yields
// the zero-length window at the epoch.
func DayWindow(date string, loc *time.Location) Window {
	start, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return Window{Date: date, Location: loc}
	}
	return Window{
		Date:     date,
		Start:    start,
		End:      start.AddDate(0, 0, 1),
		Location: loc,
	}
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Client fetches snapshots from one provider.
type Client interface {
	ID() string
	FetchSnapshot(ctx context.Context, w Window) (*Snapshot, error)
}
