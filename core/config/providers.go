package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"sports-pipeline/core/normalize"
	"sports-pipeline/core/provider"

	"gopkg.in/yaml.v3"
)

// ProviderDef is one provider entry of the providers file.
type ProviderDef struct {
	provider.Config `yaml:",inline"`
	// Fields maps canonical game fields to the provider's record paths.
	Fields normalize.FieldMap `yaml:"fields"`
}

// ProviderFile is the providers YAML document.
//
//	staleness_seconds: 120
//	primary:
//	  id: espn
//	  base_url: https://example.invalid/scoreboard
//	  fields: {external_id: id, sequence: seq}
//	secondary:
//	  id: sportradar
//	  base_url: https://example.invalid/live
type ProviderFile struct {
	// StalenessSeconds overrides sync.staleness_seconds when positive.
	StalenessSeconds int          `yaml:"staleness_seconds"`
	Primary          ProviderDef  `yaml:"primary"`
	Secondary        *ProviderDef `yaml:"secondary"`
}

// Staleness returns the file's threshold, or fallback when the file sets none.
func (f *ProviderFile) Staleness(fallback time.Duration) time.Duration {
	if f.StalenessSeconds > 0 {
		return time.Duration(f.StalenessSeconds) * time.Second
	}
	return fallback
}

// Validate checks that the file is usable.
func (f *ProviderFile) Validate() error {
	var errs []error
	if f.Primary.ID == "" || f.Primary.BaseURL == "" {
		errs = append(errs, errors.New("primary provider needs id and base_url"))
	}
	if f.Secondary != nil {
		if f.Secondary.ID == "" || f.Secondary.BaseURL == "" {
			errs = append(errs, errors.New("secondary provider needs id and base_url"))
		}
		if f.Secondary.ID != "" && f.Secondary.ID == f.Primary.ID {
			errs = append(errs, fmt.Errorf("primary and secondary share id %q", f.Primary.ID))
		}
	}
	if f.StalenessSeconds < 0 {
		errs = append(errs, errors.New("staleness_seconds must not be negative"))
	}
	return errors.Join(errs...)
}

// LoadProviderFile reads and validates the providers file at path.
func LoadProviderFile(path string) (*ProviderFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	var f ProviderFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse providers file %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid providers file %s: %w", path, err)
	}
	return &f, nil
}
