package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"sports-pipeline/core/utils"

	"go.uber.org/zap"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultBackoff    = 250 * time.Millisecond
	maxBackoff        = 5 * time.Second
	maxRetryAfter     = 30 * time.Second
	maxResponseBytes  = 32 << 20
	defaultGamesField = "games"
	defaultUpdatedAt  = "updated_at"
)

// HTTPClient fetches snapshots from a JSON HTTP endpoint.
//
// The endpoint receives date, start and end query parameters and returns an envelope
// object holding the game list and the provider's last update time.
type HTTPClient struct {
	cfg     Config
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
	now     func() time.Time
	backoff time.Duration
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.http = c }
}

// WithBackoff sets the initial retry backoff.
func WithBackoff(d time.Duration) HTTPOption {
	return func(h *HTTPClient) { h.backoff = d }
}

// WithNow overrides the clock used for FetchedAt and age computation.
func WithNow(now func() time.Time) HTTPOption {
	return func(h *HTTPClient) { h.now = now }
}

// NewHTTPClient creates a client for cfg. The API key is read from cfg.APIKeyEnv.
func NewHTTPClient(cfg Config, logger *zap.Logger, opts ...HTTPOption) *HTTPClient {
	cfg = cfg.withDefaults()
	h := &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{},
		logger:  logger.With(zap.String("provider", cfg.ID)),
		now:     time.Now,
		backoff: defaultBackoff,
	}
	if cfg.APIKeyEnv != "" {
		h.apiKey = os.Getenv(cfg.APIKeyEnv)
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ID implements Client.
func (h *HTTPClient) ID() string {
	return h.cfg.ID
}

func (h *HTTPClient) timeout() time.Duration {
	if h.cfg.TimeoutSeconds > 0 {
		return time.Duration(h.cfg.TimeoutSeconds) * time.Second
	}
	return defaultTimeout
}

// FetchSnapshot implements Client.
func (h *HTTPClient) FetchSnapshot(ctx context.Context, w Window) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout())
	defer cancel()

	body, header, err := h.fetchWithRetry(ctx, w)
	if err != nil {
		return nil, err
	}

	fetchedAt := h.now().UTC()
	snap, err := h.decode(body, header, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, h.cfg.ID, err)
	}
	return snap, nil
}

// retryableError marks a failure worth another attempt.
type retryableError struct {
	err        error
	retryAfter time.Duration
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func (h *HTTPClient) fetchWithRetry(ctx context.Context, w Window) ([]byte, http.Header, error) {
	attempts := h.cfg.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	delay := h.backoff
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, header, err := h.fetchOnce(ctx, w)
		if err == nil {
			return body, header, nil
		}
		lastErr = err

		var retryable *retryableError
		if !errors.As(err, &retryable) || attempt == attempts || ctx.Err() != nil {
			break
		}

		wait := delay
		if retryable.retryAfter > 0 {
			wait = retryable.retryAfter
		}
		h.logger.Warn("Provider request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
		delay = min(delay*2, maxBackoff)
	}

	return nil, nil, h.classify(ctx, lastErr)
}

// classify maps a final failure onto the provider error taxonomy.
func (h *HTTPClient) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s: %w", ErrProviderTimeout, h.cfg.ID, h.timeout(), err)
	}
	return fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, h.cfg.ID, err)
}

func (h *HTTPClient) fetchOnce(ctx context.Context, w Window) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.cfg.BaseURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("date", w.Date)
	if !w.Start.IsZero() {
		q.Set("start", w.Start.Format(time.RFC3339))
		q.Set("end", w.End.Format(time.RFC3339))
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set(h.cfg.APIKeyHeader, h.apiKey)
	}

	resp, err := h.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, err
		}
		return nil, nil, &retryableError{err: fmt.Errorf("http get: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, &retryableError{err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, resp.Header, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, nil, &retryableError{
			err:        fmt.Errorf("unexpected status %d", resp.StatusCode),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), h.now()),
		}
	default:
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(v); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(v); err == nil {
		d = at.Sub(now)
	}
	if d < 0 {
		return 0
	}
	return min(d, maxRetryAfter)
}

func (h *HTTPClient) decode(body []byte, header http.Header, fetchedAt time.Time) (*Snapshot, error) {
	return decodeSnapshot(h.cfg, h.logger, body, header, fetchedAt)
}

// DecodeSnapshot decodes a stored provider payload, such as an archived snapshot, using
// the envelope fields of cfg. Age is measured against fetchedAt.
func DecodeSnapshot(cfg Config, body []byte, fetchedAt time.Time) (*Snapshot, error) {
	return decodeSnapshot(cfg.withDefaults(), zap.NewNop(), body, http.Header{}, fetchedAt)
}

func decodeSnapshot(cfg Config, logger *zap.Logger, body []byte, header http.Header, fetchedAt time.Time) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var envelope map[string]any
	if err := dec.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	list, ok := envelope[cfg.GamesField].([]any)
	if !ok && envelope[cfg.GamesField] != nil {
		return nil, fmt.Errorf("field %q is not a list", cfg.GamesField)
	}

	snap := &Snapshot{
		ProviderID: cfg.ID,
		FetchedAt:  fetchedAt,
		AgeSeconds: -1,
		Games:      make([]RawGame, 0, len(list)),
		Raw:        body,
	}
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			logger.Warn("Non-object game record", zap.Int("index", i))
		}
		snap.Games = append(snap.Games, RawGame(obj))
	}

	updatedAt, ok := utils.ToTime(envelope[cfg.UpdatedAtField], time.UTC)
	if !ok {
		if lm, err := http.ParseTime(header.Get("Last-Modified")); err == nil {
			updatedAt, ok = lm, true
		}
	}
	if ok {
		snap.AgeSeconds = max(fetchedAt.Sub(updatedAt).Seconds(), 0)
	}
	return snap, nil
}
