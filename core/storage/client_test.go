package storage_test

import (
	"testing"
	"time"

	"sports-pipeline/core/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		useSSL   bool
	}{
		{"Bare host", "localhost:9000", false},
		{"HTTP scheme stripped", "http://localhost:9000", false},
		{"HTTPS scheme stripped", "https://s3.amazonaws.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(storage.Config{
				Endpoint:       tt.endpoint,
				AccessKey:      "archive",
				SecretKey:      "archive-secret",
				UseSSL:         tt.useSSL,
				Bucket:         "sports-snapshots",
				Region:         "us-east-1",
				TimeoutSeconds: 5,
			})
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestConfig_Timeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, storage.Config{}.Timeout())
	assert.Equal(t, 5*time.Second, storage.Config{TimeoutSeconds: 5}.Timeout())
}
