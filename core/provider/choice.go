package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Choice identifies which provider served a run.
type Choice int

const (
	Primary Choice = iota
	Secondary
)

func (c Choice) String() string {
	switch c {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	default:
		return fmt.Sprintf("choice(%d)", int(c))
	}
}

// IsStale reports whether s is older than threshold. A snapshot without a reported age is
// stale. A non-positive threshold disables the check.
func IsStale(s *Snapshot, threshold time.Duration) bool {
	if threshold <= 0 {
		return false
	}
	if s.AgeSeconds < 0 {
		return true
	}
	return s.AgeSeconds > threshold.Seconds()
}

// Attempt is the outcome of asking one provider.
type Attempt struct {
	Choice     Choice
	ProviderID string
	Duration   time.Duration
	Err        error
}

// Selection is the snapshot chosen for a run.
type Selection struct {
	Choice   Choice
	Snapshot *Snapshot
	Attempts []Attempt
}

// Select asks primary first and falls back to secondary when primary fails or is stale.
// When neither yields a fresh snapshot the returned error joins both failures.
// secondary may be nil.
func Select(ctx context.Context, primary, secondary Client, w Window, threshold time.Duration) (*Selection, error) {
	sel := &Selection{}

	clients := []struct {
		choice Choice
		client Client
	}{{Primary, primary}, {Secondary, secondary}}

	var errs []error
	for _, c := range clients {
		if c.client == nil {
			continue
		}
		start := time.Now()
		snap, err := c.client.FetchSnapshot(ctx, w)
		if err == nil && IsStale(snap, threshold) {
			err = fmt.Errorf("%w: %s age %.0fs exceeds %s", ErrProviderStale, c.client.ID(), snap.AgeSeconds, threshold)
		}
		sel.Attempts = append(sel.Attempts, Attempt{
			Choice:     c.choice,
			ProviderID: c.client.ID(),
			Duration:   time.Since(start),
			Err:        err,
		})
		if err == nil {
			sel.Choice = c.choice
			sel.Snapshot = snap
			return sel, nil
		}
		errs = append(errs, fmt.Errorf("%s provider %s: %w", c.choice, c.client.ID(), err))
		if ctx.Err() != nil {
			break
		}
	}

	if len(errs) == 0 {
		return sel, fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}
	return sel, errors.Join(errs...)
}
