package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGameEvent_Key(t *testing.T) {
	ev := GameEvent{
		ExternalID: "G1",
		Provider:   "primary",
		Sequence:   3,
		GameID:     "g-1",
		ObservedAt: time.Now(),
	}

	key := ev.Key()
	assert.Equal(t, IdempotencyKey{Provider: "primary", ExternalID: "G1", Sequence: 3}, key)
	assert.Equal(t, "primary|G1|3", key.String())
}
