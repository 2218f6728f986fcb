package reconcile

import (
	"context"
	"time"

	"sports-pipeline/core/store"
)

// Source lists the applied markers of persisted rows.
// store.Repository implements it.
type Source interface {
	// AppliedMarkers returns the marker of every row updated at or after since.
	AppliedMarkers(ctx context.Context, since time.Time) ([]store.Marker, error)
}
