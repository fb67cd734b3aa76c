package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default fetcher settings. Conservative values chosen for politeness
// against an institutional portal that was not built for crawlers.
const (
	// DefaultRetryMax is the total number of attempts per request.
	DefaultRetryMax = 3

	// DefaultBackoffBase is the initial retry delay. Doubles per attempt.
	DefaultBackoffBase = 2 * time.Second

	// DefaultBackoffCap bounds the retry delay after doubling.
	DefaultBackoffCap = 30 * time.Second

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits response bodies to prevent memory
	// exhaustion from an unexpectedly large page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Limiter is the rate-limiting dependency. Satisfied by
// ratelimit.Limiter; an interface so fetcher tests can count acquisitions.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// SleepFunc waits for d or until the context is cancelled. Injectable so
// retry tests run without real time passing.
type SleepFunc func(ctx context.Context, d time.Duration) error

// defaultSleep is the production SleepFunc.
func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Request describes one upstream page request. The portal is navigated by
// form submission, so POST with form data is as common as GET.
type Request struct {
	// Method is the HTTP method, GET or POST.
	Method string

	// URL is the request URL.
	URL string

	// Form is the form data for POST requests. Ignored for GET.
	Form url.Values

	// UnitID keys the debug artifact if this request permanently fails.
	UnitID string
}

// Fetcher issues rate-limited, retrying HTTP requests.
type Fetcher struct {
	// client is the underlying HTTP client.
	client *http.Client

	// limiter gates every request. No bypass path exists.
	limiter Limiter

	// artifacts stores response bodies of permanently failed fetches.
	artifacts *ArtifactStore

	// retryMax is the total attempt budget per request.
	retryMax int

	// backoffBase is the initial retry delay.
	backoffBase time.Duration

	// backoffCap bounds the retry delay.
	backoffCap time.Duration

	// userAgent identifies the tool and a contact point.
	userAgent string

	// maxBodySize limits response body reads.
	maxBodySize int64

	// sleep waits between retries. Injectable for tests.
	sleep SleepFunc

	// logger for structured logging.
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithRetryMax sets the total attempt budget per request.
func WithRetryMax(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.retryMax = n
		}
	}
}

// WithBackoff sets the initial retry delay and its cap.
func WithBackoff(base, cap time.Duration) Option {
	return func(f *Fetcher) {
		f.backoffBase = base
		f.backoffCap = cap
	}
}

// WithUserAgent sets the identifying User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithSleep sets a custom sleep function. Used by tests to avoid real
// backoff delays.
func WithSleep(sleep SleepFunc) Option {
	return func(f *Fetcher) {
		f.sleep = sleep
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher. The limiter and artifact store are required
// collaborators; everything else has conservative defaults.
func New(limiter Limiter, artifacts *ArtifactStore, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: DefaultTimeout},
		limiter:     limiter,
		artifacts:   artifacts,
		retryMax:    DefaultRetryMax,
		backoffBase: DefaultBackoffBase,
		backoffCap:  DefaultBackoffCap,
		userAgent:   "TransferMap/1.0 (+https://github.com/transfermap/transfermap)",
		maxBodySize: DefaultMaxBodySize,
		sleep:       defaultSleep,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs the request with retries and returns the response body.
// Transient failures (timeout, 5xx, connection reset, 429) are retried up
// to the attempt budget with exponential backoff plus jitter; fatal
// failures return immediately. On permanent failure the last response
// body (or an empty placeholder) is written to a debug artifact and a
// classified *Error is returned.
func (f *Fetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	// Backoff delays are computed as data by the backoff policy and slept
	// through the injectable sleep func, so retry timing is testable.
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.backoffBase
	policy.Multiplier = 2
	policy.MaxInterval = f.backoffCap
	policy.RandomizationFactor = 0.5
	policy.MaxElapsedTime = 0
	policy.Reset()

	var lastBody []byte
	var lastStatus int
	var lastErr error
	var class Class

	for attempt := 1; attempt <= f.retryMax; attempt++ {
		if err := f.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		body, status, retryAfter, err := f.attempt(ctx, req)
		if err == nil {
			return body, nil
		}

		lastBody, lastStatus, lastErr = body, status, err
		class = classify(err, status)

		if class == ClassFatal {
			f.logger.Warn("fetch failed permanently",
				"url", req.URL,
				"unit", req.UnitID,
				"status", status,
				"error", err,
			)
			return nil, f.fail(class, req, lastStatus, attempt, lastBody, lastErr)
		}

		if attempt == f.retryMax {
			break
		}

		delay := policy.NextBackOff()
		if class == ClassRateLimited && retryAfter > delay {
			delay = retryAfter
		}

		f.logger.Debug("fetch attempt failed, retrying",
			"url", req.URL,
			"unit", req.UnitID,
			"attempt", attempt,
			"status", status,
			"delay", delay,
			"error", err,
		)

		if err := f.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("retry backoff: %w", err)
		}
	}

	f.logger.Warn("fetch failed after exhausting retries",
		"url", req.URL,
		"unit", req.UnitID,
		"attempts", f.retryMax,
		"status", lastStatus,
		"error", lastErr,
	)
	return nil, f.fail(class, req, lastStatus, f.retryMax, lastBody, lastErr)
}

// attempt issues one HTTP request. Returns the body on success, or the
// body (possibly nil), status, parsed Retry-After, and an error on failure.
func (f *Fetcher) attempt(ctx context.Context, req Request) ([]byte, int, time.Duration, error) {
	var httpReq *http.Request
	var err error

	switch req.Method {
	case http.MethodPost:
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, req.URL,
			strings.NewReader(req.Form.Encode()))
		if httpReq != nil {
			httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	}
	if err != nil {
		return nil, 0, 0, fmt.Errorf("invalid request: %w", err)
	}

	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if readErr != nil {
		return nil, resp.StatusCode, 0, readErr
	}

	if resp.StatusCode >= 400 {
		return body, resp.StatusCode, parseRetryAfter(resp), fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, resp.StatusCode, 0, nil
}

// fail writes the debug artifact and builds the structured error. The
// artifact is written even when no body was received: an empty placeholder
// still records that the fetch failed.
func (f *Fetcher) fail(class Class, req Request, status, attempts int, body []byte, err error) error {
	artifactPath := ""
	if f.artifacts != nil {
		path, saveErr := f.artifacts.Save(req.UnitID, body)
		if saveErr != nil {
			f.logger.Error("failed to save debug artifact",
				"unit", req.UnitID,
				"error", saveErr,
			)
		} else {
			artifactPath = path
			f.logger.Info("debug artifact saved", "unit", req.UnitID, "path", path)
		}
	}

	return &Error{
		Class:        class,
		URL:          req.URL,
		StatusCode:   status,
		Attempts:     attempts,
		ArtifactPath: artifactPath,
		Err:          err,
	}
}

// classify assigns a failure class from the error and status code.
// Timeouts, connection errors, and 5xx are transient; 429 is rate
// limited; malformed requests and other 4xx are fatal.
func classify(err error, status int) Class {
	switch {
	case status == http.StatusTooManyRequests:
		return ClassRateLimited
	case status >= 500:
		return ClassTransient
	case status >= 400:
		return ClassFatal
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() || urlErr.Temporary() {
			return ClassTransient
		}
		// DNS failures, refused and reset connections arrive as
		// *url.Error without the timeout flag; they are still transient
		// from the crawl's point of view.
		return ClassTransient
	}

	if strings.Contains(err.Error(), "invalid request") {
		return ClassFatal
	}

	return ClassTransient
}

// parseRetryAfter reads a Retry-After header as a delay. Only the
// delta-seconds form is honored; HTTP-date values are ignored.
func parseRetryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
