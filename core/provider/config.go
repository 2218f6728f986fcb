package provider

// Config describes one upstream provider.
type Config struct {
	// ID is the stable provider identifier used in idempotency keys.
	ID string `yaml:"id"`
	// BaseURL is the snapshot endpoint.
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
	// APIKeyHeader is the request header carrying the API key.
	APIKeyHeader string `yaml:"api_key_header"`
	// TimeoutSeconds bounds one FetchSnapshot call, retries included.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `yaml:"max_retries"`
	// GamesField is the envelope field holding the game list. Defaults to "games".
	GamesField string `yaml:"games_field"`
	// UpdatedAtField is the envelope field holding the provider's last update time.
	// Defaults to "updated_at".
	UpdatedAtField string `yaml:"updated_at_field"`
}

func (c Config) withDefaults() Config {
	if c.GamesField == "" {
		c.GamesField = defaultGamesField
	}
	if c.UpdatedAtField == "" {
		c.UpdatedAtField = defaultUpdatedAt
	}
	if c.APIKeyHeader == "" {
		c.APIKeyHeader = "X-API-Key"
	}
	return c
}
