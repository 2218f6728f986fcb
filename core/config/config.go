package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"sports-pipeline/core/cache"
	"sports-pipeline/core/database"
	"sports-pipeline/core/logger"
	"sports-pipeline/core/server"
	"sports-pipeline/core/storage"
	"sports-pipeline/feature/livesync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the pipeline configuration, one section per component.
type Config struct {
	Server   server.Config   `mapstructure:"server"`
	Storage  storage.Config  `mapstructure:"storage"`
	Log      logger.Config   `mapstructure:"log"`
	Database database.Config `mapstructure:"database"`
	Sync     livesync.Config `mapstructure:"sync"`
	Cache    cache.Config    `mapstructure:"cache"`
}

// LoadConfig reads the configuration in increasing precedence: struct defaults, an optional
// config.yaml in dir, an optional .env in dir, and the process environment.
func LoadConfig(dir string) (*Config, error) {
	// A missing .env is normal in production.
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()
	registerDefaults(v, reflect.TypeOf(Config{}), "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config.yaml: %w", err)
		}
	}

	// SYNC_INTERVAL_SECONDS -> sync.interval_seconds
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the components cannot run with. Zero durations are allowed
// because every component substitutes its own default for them.
func (c *Config) Validate() error {
	var errs []error
	drivers := []string{database.DriverMySQL, database.DriverPostgres, database.DriverSQLite}
	if !slices.Contains(drivers, c.Database.Driver) {
		errs = append(errs, fmt.Errorf("database.driver %q: want one of %s", c.Database.Driver, strings.Join(drivers, ", ")))
	}
	if !slices.Contains([]string{"json", "console"}, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format %q: want json or console", c.Log.Format))
	}
	if c.Sync.WriteConcurrency < 0 {
		errs = append(errs, errors.New("sync.write_concurrency must not be negative"))
	}
	if c.Sync.StalenessSeconds < 0 {
		errs = append(errs, errors.New("sync.staleness_seconds must not be negative"))
	}
	if _, err := c.Sync.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Sync.ArchiveSnapshots && c.Storage.Bucket == "" {
		errs = append(errs, errors.New("storage.bucket is required when sync.archive_snapshots is set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// registerDefaults walks the mapstructure tree and registers every leaf's `default` tag.
// Registering empty defaults too makes every key visible to AutomaticEnv.
func registerDefaults(v *viper.Viper, t reflect.Type, prefix string) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct {
			registerDefaults(v, field.Type, key)
			continue
		}
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
