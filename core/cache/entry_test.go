package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntry_Live(t *testing.T) {
	base := time.Date(2024, 11, 2, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ttl  time.Duration
		at   time.Duration
		live bool
	}{
		{name: "fresh", ttl: 30 * time.Second, at: 0, live: true},
		{name: "at expiry", ttl: 30 * time.Second, at: 30 * time.Second, live: true},
		{name: "past expiry", ttl: 30 * time.Second, at: 31 * time.Second, live: false},
		{name: "zero ttl", ttl: 0, at: 0, live: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{Key: "k", StoredAt: base, ExpiresAt: base.Add(tt.ttl)}
			assert.Equal(t, tt.live, e.Live(base.Add(tt.at)))
		})
	}
}
