package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var chicago = mustLoad("America/Chicago")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func newTestClient(url string, retries int, opts ...HTTPOption) *HTTPClient {
	cfg := Config{ID: "espn", BaseURL: url, MaxRetries: retries, TimeoutSeconds: 2}
	opts = append([]HTTPOption{WithBackoff(time.Millisecond)}, opts...)
	return NewHTTPClient(cfg, zap.NewNop(), opts...)
}

func TestHTTPClient_FetchSnapshot(t *testing.T) {
	fetchedAt := time.Date(2024, 11, 2, 20, 0, 0, 0, time.UTC)
	var gotQuery, gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("date")
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"updated_at": "2024-11-02T19:59:30Z",
			"games": [
				{"id": "G1", "seq": 2, "home": "Georgia", "away": "Texas"},
				"garbage",
				{"id": "G2", "seq": 1}
			]
		}`))
	}))
	defer srv.Close()

	t.Setenv("ESPN_KEY", "secret")
	client := NewHTTPClient(Config{ID: "espn", BaseURL: srv.URL, APIKeyEnv: "ESPN_KEY"}, zap.NewNop(),
		WithNow(func() time.Time { return fetchedAt }))

	snap, err := client.FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))
	require.NoError(t, err)

	assert.Equal(t, "2024-11-02", gotQuery)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "espn", snap.ProviderID)
	assert.Equal(t, fetchedAt, snap.FetchedAt)
	assert.InDelta(t, 30, snap.AgeSeconds, 0.001)
	require.Len(t, snap.Games, 2)
	assert.Equal(t, "G1", snap.Games[0]["id"])
	assert.NotEmpty(t, snap.Raw)
}

func TestHTTPClient_AgeFromLastModified(t *testing.T) {
	fetchedAt := time.Date(2024, 11, 2, 20, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", fetchedAt.Add(-5*time.Minute).Format(http.TimeFormat))
		_, _ = w.Write([]byte(`{"games": []}`))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL, 0, WithNow(func() time.Time { return fetchedAt })).
		FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))
	require.NoError(t, err)
	assert.InDelta(t, 300, snap.AgeSeconds, 0.001)
}

func TestHTTPClient_UnknownAge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"games": []}`))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL, 0).FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))
	require.NoError(t, err)
	assert.Less(t, snap.AgeSeconds, float64(0))
	assert.True(t, IsStale(snap, time.Minute))
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"updated_at": 1730577600, "games": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_RetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"games": []}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1).FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.ErrorContains(t, err, "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 2).FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewHTTPClient(Config{ID: "slow", BaseURL: srv.URL, TimeoutSeconds: 1}, zap.NewNop())
	_, err := client.FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))

	assert.ErrorIs(t, err, ErrProviderTimeout)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
}

func TestHTTPClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"games": {"not": "a list"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 0).FetchSnapshot(context.Background(), DayWindow("2024-11-02", chicago))
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 11, 2, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 2*time.Second, parseRetryAfter("2", now))
	assert.Equal(t, 10*time.Second, parseRetryAfter(now.Add(10*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, maxRetryAfter, parseRetryAfter("3600", now))
	assert.Zero(t, parseRetryAfter("", now))
	assert.Zero(t, parseRetryAfter("soon", now))
}

func TestDecodeSnapshot(t *testing.T) {
	fetched := time.Date(2024, 11, 2, 18, 0, 0, 0, time.UTC)
	body := []byte(`{"events":[{"id":"g1"}],"ts":"2024-11-02T17:59:00Z"}`)

	snap, err := DecodeSnapshot(Config{ID: "archive", GamesField: "events", UpdatedAtField: "ts"}, body, fetched)
	require.NoError(t, err)
	assert.Equal(t, "archive", snap.ProviderID)
	require.Len(t, snap.Games, 1)
	assert.Equal(t, "g1", snap.Games[0]["id"])
	assert.InDelta(t, 60, snap.AgeSeconds, 0.001)

	_, err = DecodeSnapshot(Config{ID: "archive"}, []byte("not json"), fetched)
	assert.Error(t, err)
}

func TestDecodeSnapshot_KeepsNonObjectRecords(t *testing.T) {
	body := []byte(`{"games":[42,"garbage",{"id":"g3"}]}`)

	snap, err := DecodeSnapshot(Config{ID: "espn"}, body, time.Now())
	require.NoError(t, err)
	require.Len(t, snap.Games, 3)
	assert.Nil(t, snap.Games[0])
	assert.Nil(t, snap.Games[1])
	assert.Equal(t, "g3", snap.Games[2]["id"])
	assert.Equal(t, -1.0, snap.AgeSeconds)
}
