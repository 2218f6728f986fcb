package cache

import "time"

// Config holds configuration for the read cache.
type Config struct {
	// HydrateTimeoutMs bounds a single loader call. Waiters fail with ErrLoaderFailed after it.
	HydrateTimeoutMs int `mapstructure:"hydrate_timeout_ms" default:"5000"`
	// SweepIntervalSeconds is how often expired entries are evicted from memory.
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds" default:"30"`
	// GamesTTLSeconds is the TTL of game-list queries.
	GamesTTLSeconds int `mapstructure:"games_ttl_seconds" default:"30"`
	// StandingsTTLSeconds is the TTL of standings queries.
	StandingsTTLSeconds int `mapstructure:"standings_ttl_seconds" default:"300"`
	// ConferencesTTLSeconds is the TTL of the conference list.
	ConferencesTTLSeconds int `mapstructure:"conferences_ttl_seconds" default:"3600"`
}

// HydrateTimeout returns the loader timeout.
func (c Config) HydrateTimeout() time.Duration {
	if c.HydrateTimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.HydrateTimeoutMs) * time.Millisecond
}

// SweepInterval returns the eviction period.
func (c Config) SweepInterval() time.Duration {
	return seconds(c.SweepIntervalSeconds)
}

// GamesTTL returns the TTL of game-list queries.
func (c Config) GamesTTL() time.Duration {
	return seconds(c.GamesTTLSeconds)
}

// StandingsTTL returns the TTL of standings queries.
func (c Config) StandingsTTL() time.Duration {
	return seconds(c.StandingsTTLSeconds)
}

// ConferencesTTL returns the TTL of the conference list.
func (c Config) ConferencesTTL() time.Duration {
	return seconds(c.ConferencesTTLSeconds)
}

// seconds converts a configured second count. Negative values mean zero, which for TTLs
// means always revalidate.
func seconds(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Second
}
