package livesync

// State is the coordinator's run phase.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateNormalizing
	StateWriting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateNormalizing:
		return "normalizing"
	case StateWriting:
		return "writing"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is how a run ended.
type Outcome string

const (
	// OutcomeCompleted means every fetched record was normalized and written.
	OutcomeCompleted Outcome = "completed"
	// OutcomePartial means some records failed to normalize or write, or a ledger record
	// is pending reconciliation.
	OutcomePartial Outcome = "partial"
	// OutcomeCanceled means the run hit its maximum duration during the write phase.
	OutcomeCanceled Outcome = "canceled"
	// OutcomeFailed means no provider produced a usable snapshot. Nothing was written.
	OutcomeFailed Outcome = "failed"
)
