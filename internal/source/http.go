package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default request rate (requests per second).
	DefaultRateLimit = 2.0

	// DefaultRetries is how many times a retryable failure is retried.
	DefaultRetries = 3

	// DefaultBackoff is the delay before the first retry; it doubles each time.
	DefaultBackoff = 500 * time.Millisecond

	// MaxBackoff caps the delay between retries.
	MaxBackoff = 30 * time.Second

	// CacheBusterParam is the query parameter that defeats intermediate caches.
	CacheBusterParam = "cache"
)

// HTTPSource fetches a bibliography over HTTP(S) with rate limiting and retries.
type HTTPSource struct {
	url        *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// HTTPOption configures an HTTPSource.
type HTTPOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.httpClient.Timeout = d
	}
}

// WithRateLimit sets the maximum request rate in requests per second.
func WithRateLimit(rps float64) HTTPOption {
	return func(s *HTTPSource) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetries sets how many retries follow a retryable failure.
func WithRetries(n int) HTTPOption {
	return func(s *HTTPSource) {
		if n < 0 {
			n = 0
		}
		s.retries = n
	}
}

// WithBackoff sets the initial retry delay (for testing).
func WithBackoff(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.backoff = d
	}
}

// WithLogger sets the logger used for retry messages.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(s *HTTPSource) {
		s.logger = l
	}
}

// NewHTTPSource creates an HTTP source for rawURL.
func NewHTTPSource(rawURL string, opts ...HTTPOption) (*HTTPSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing source URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrUnsupported, rawURL)
	}

	s := &HTTPSource{
		url:        u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		retries:    DefaultRetries,
		backoff:    DefaultBackoff,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *HTTPSource) String() string {
	return s.url.String()
}

// Fetch downloads the document, retrying network failures, 429 and 5xx
// responses with exponential backoff.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		data, err := s.fetchOnce(ctx)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsRetryable(err) || attempt >= s.retries {
			return nil, err
		}

		delay := s.retryDelay(attempt)
		s.logger.Warn("fetch failed, retrying",
			"source", s.url.String(), "attempt", attempt+1, "delay", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// retryDelay returns the wait before retry attempt+1: backoff doubled per
// attempt, capped at MaxBackoff.
func (s *HTTPSource) retryDelay(attempt int) time.Duration {
	delay := s.backoff
	for i := 0; i < attempt && delay < MaxBackoff; i++ {
		delay *= 2
	}
	if delay > MaxBackoff {
		delay = MaxBackoff
	}
	return delay
}

// fetchOnce performs a single GET with a fresh cache-busting parameter.
func (s *HTTPSource) fetchOnce(ctx context.Context) ([]byte, error) {
	u := *s.url
	q := u.Query()
	q.Set(CacheBusterParam, strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, application/x-bibtex, */*")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        s.url.String(),
		}
	}

	data, err := readDocument(resp.Body)
	if err != nil {
		if err == ErrEmptyBody || err == ErrTooLarge {
			return nil, err
		}
		return nil, fmt.Errorf("%w: reading body: %v", ErrNetwork, err)
	}

	s.logger.Debug("fetched bibliography", "source", s.url.String(), "bytes", len(data))
	return data, nil
}
