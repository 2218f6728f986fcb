package livesync

import (
	"fmt"
	"time"
)

// Config holds configuration for the sync job.
type Config struct {
	// IntervalSeconds is the scheduler period.
	IntervalSeconds int `mapstructure:"interval_seconds" default:"60"`
	// StalenessSeconds is the threshold T above which a provider's snapshot is stale.
	// Zero disables the check.
	StalenessSeconds int `mapstructure:"staleness_seconds" default:"120"`
	// MaxRunSeconds cancels a run that takes longer.
	MaxRunSeconds int `mapstructure:"max_run_seconds" default:"45"`
	// ReferenceTimezone fixes the calendar day used for "today's games".
	ReferenceTimezone string `mapstructure:"reference_timezone" default:"America/Chicago"`
	// WriteConcurrency is the number of streams written in parallel.
	WriteConcurrency int `mapstructure:"write_concurrency" default:"4"`
	// AtomicWrites commits the game write and the ledger record in one transaction.
	AtomicWrites bool `mapstructure:"atomic_writes" default:"true"`
	// ArchiveSnapshots uploads the raw chosen snapshot to object storage.
	ArchiveSnapshots bool `mapstructure:"archive_snapshots" default:"false"`
	// ReconcileWindowHours is the look-back of the reconciliation pass.
	ReconcileWindowHours int `mapstructure:"reconcile_window_hours" default:"48"`
	// ProvidersFile is the YAML file defining the primary and secondary providers.
	ProvidersFile string `mapstructure:"providers_file" default:"providers.yaml"`
}

// Interval returns the scheduler period.
func (c Config) Interval() time.Duration {
	return secondsOr(c.IntervalSeconds, 60)
}

// Staleness returns the staleness threshold T. The default comes from the struct tag at
// load time, so zero here is an explicit choice and is kept.
func (c Config) Staleness() time.Duration {
	return time.Duration(max(c.StalenessSeconds, 0)) * time.Second
}

// MaxRun returns the maximum run duration.
func (c Config) MaxRun() time.Duration {
	return secondsOr(c.MaxRunSeconds, 45)
}

// ReconcileWindow returns the look-back of the reconciliation pass.
func (c Config) ReconcileWindow() time.Duration {
	if c.ReconcileWindowHours <= 0 {
		return 48 * time.Hour
	}
	return time.Duration(c.ReconcileWindowHours) * time.Hour
}

// Location loads the reference time zone.
func (c Config) Location() (*time.Location, error) {
	name := c.ReferenceTimezone
	if name == "" {
		name = "America/Chicago"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load reference timezone %q: %w", name, err)
	}
	return loc, nil
}

func secondsOr(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
