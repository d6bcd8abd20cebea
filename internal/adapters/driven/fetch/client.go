package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/filmsync/internal/core/domain"
	"github.com/custodia-labs/filmsync/internal/core/ports/driven"
	"github.com/custodia-labs/filmsync/internal/logger"
	"github.com/custodia-labs/filmsync/internal/metrics"
)

// Verify interface compliance.
var _ driven.PageFetcher = (*Client)(nil)

const (
	// MaxBodySize caps how much of a page is read.
	MaxBodySize = 16 << 20

	// maxRedirects matches the net/http default.
	maxRedirects = 10

	userAgent = "filmsync (+https://github.com/custodia-labs/filmsync)"
)

// Config holds fetcher configuration.
type Config struct {
	Origin            string
	RequestsPerSecond float64
	Burst             int
	MaxTries          int
	BackoffUnit       time.Duration
	Timeout           time.Duration
}

// ConfigFromSettings builds a Config from the stored fetch settings.
func ConfigFromSettings(s domain.FetchSettings) Config {
	return Config{
		Origin:            s.Origin,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             s.Burst,
		MaxTries:          s.MaxTries,
		BackoffUnit:       s.BackoffUnit,
		Timeout:           s.Timeout,
	}
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its redirect policy is
// overridden so redirects cannot leave the origin.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithSleep replaces the wait between retries.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// Client fetches pages from a single allow-listed origin over HTTPS.
type Client struct {
	origin      string
	maxTries    int
	backoffUnit time.Duration
	http        *http.Client
	limiter     *RateLimiter
	sleep       func(context.Context, time.Duration) error
}

// NewClient creates a fetcher. Zero values in cfg fall back to the
// defaults in domain.DefaultFetchSettings.
func NewClient(cfg Config, opts ...Option) *Client {
	defaults := domain.DefaultFetchSettings()
	if cfg.Origin == "" {
		cfg.Origin = defaults.Origin
	}
	if cfg.MaxTries <= 0 {
		cfg.MaxTries = defaults.MaxTries
	}
	if cfg.BackoffUnit <= 0 {
		cfg.BackoffUnit = defaults.BackoffUnit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	c := &Client{
		origin:      strings.ToLower(cfg.Origin),
		maxTries:    cfg.MaxTries,
		backoffUnit: cfg.BackoffUnit,
		http:        &http.Client{Timeout: cfg.Timeout},
		limiter:     NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.CheckRedirect = c.checkRedirect
	return c
}

// Origin returns the allow-listed host.
func (c *Client) Origin() string {
	return c.origin
}

// Fetch GETs a page and returns its body. Transient transport faults are
// retried with waits of 2, 4, 8 and 16 backoff units; once every try is
// used the error wraps domain.ErrExceededRetries.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	target, err := c.resolve(rawURL)
	if err != nil {
		metrics.FetchRequestsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < c.maxTries; attempt++ {
		if attempt > 0 {
			wait := c.backoff(attempt - 1)
			logger.Debug("fetch: retrying %s in %s (try %d of %d)", target, wait, attempt+1, c.maxTries)
			metrics.FetchRetriesTotal.Inc()
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
		}

		body, err := c.get(ctx, target)
		if err == nil {
			metrics.FetchRequestsTotal.WithLabelValues("success").Inc()
			return body, nil
		}
		if !IsRetryable(err) {
			metrics.FetchRequestsTotal.WithLabelValues("terminal").Inc()
			return nil, err
		}

		metrics.FetchRequestsTotal.WithLabelValues("retryable").Inc()
		logger.Warn("fetch: transient error on %s: %v", target, err)
		lastErr = err
	}

	return nil, fmt.Errorf("fetch %s: %w after %d tries: %w", target, domain.ErrExceededRetries, c.maxTries, lastErr)
}

// backoff returns the wait after the given failed try, counted from zero.
func (c *Client) backoff(failed int) time.Duration {
	return c.backoffUnit << (failed + 1)
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.limiter.Backoff(retryAfter(resp.Header.Get("Retry-After")))
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: target}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// resolve turns a path into an absolute URL on the origin and rejects
// anything that points elsewhere.
func (c *Client) resolve(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, domain.ErrInvalidInput)
	}
	if u.Host == "" && u.Scheme == "" {
		u.Scheme = "https"
		u.Host = c.origin
		if !strings.HasPrefix(u.Path, "/") {
			u.Path = "/" + u.Path
		}
	}
	if err := c.allowed(u); err != nil {
		return "", err
	}
	return u.String(), nil
}

func (c *Client) allowed(u *url.URL) error {
	if u.Scheme != "https" || strings.ToLower(u.Host) != c.origin {
		return fmt.Errorf("%s: %w", u.Redacted(), domain.ErrOriginNotAllowed)
	}
	return nil
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}
	return c.allowed(req.URL)
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(header string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(header))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
