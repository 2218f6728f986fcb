// Package loader registers the HTTP features of the pipeline service.
//
// Each feature implements the Feature interface:
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// The Manager keeps the registration order and mounts every enabled feature in
// LoadAll. Disabled features are skipped and logged. The first Load error aborts
// loading and is returned wrapped with the feature name.
package loader
