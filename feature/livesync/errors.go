package livesync

import "errors"

var (
	// ErrWriteFailure marks an event whose write or ledger check failed. The run continues.
	ErrWriteFailure = errors.New("write failure")
	// ErrRunOverlap is returned by Trigger when a run is already active. The trigger is dropped.
	ErrRunOverlap = errors.New("sync run already active")
	// ErrNoProvider means no primary provider is configured.
	ErrNoProvider = errors.New("no provider configured")
)
