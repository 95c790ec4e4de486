// Package fetch downloads remote-rendered content (formula images, attachment
// thumbnails, inline images) over HTTP with retries.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/yaklabco/forummark/internal/logging"
)

// Defaults for an HTTPFetcher.
const (
	DefaultRetryMax     = 2
	DefaultRetryWaitMin = 500 * time.Millisecond
	DefaultRetryWaitMax = 5 * time.Second
	DefaultMaxBytes     = 8 << 20
	DefaultUserAgent    = "forummark"
)

var (
	// ErrStatus is returned when the server answers with a non-2xx status.
	ErrStatus = errors.New("unexpected status")

	// ErrTooLarge is returned when a body exceeds the size limit.
	ErrTooLarge = errors.New("response too large")
)

// Options configures an HTTPFetcher.
type Options struct {
	// RetryMax is the number of retries after the first attempt.
	RetryMax int

	// RetryWaitMin and RetryWaitMax bound the backoff between attempts.
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// MaxBytes caps the response body. Zero means DefaultMaxBytes.
	MaxBytes int64

	// UserAgent is sent with every request.
	UserAgent string

	// Transport overrides the underlying round tripper.
	Transport http.RoundTripper

	// Logger receives fetch and retry diagnostics. Nil means the logger
	// carried by each request's context.
	Logger *log.Logger
}

// HTTPFetcher fetches URLs with a retrying HTTP client.
type HTTPFetcher struct {
	client    *retryablehttp.Client
	maxBytes  int64
	userAgent string
	logger    *log.Logger
}

// New creates an HTTPFetcher.
func New(opts Options) *HTTPFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	if client.RetryWaitMin <= 0 {
		client.RetryWaitMin = DefaultRetryWaitMin
	}
	if client.RetryWaitMax < client.RetryWaitMin {
		client.RetryWaitMax = max(DefaultRetryWaitMax, client.RetryWaitMin)
	}
	if opts.Transport != nil {
		client.HTTPClient.Transport = opts.Transport
	}
	client.Logger = nil
	if opts.Logger != nil {
		client.Logger = leveledLogger{opts.Logger}
	}
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	f := &HTTPFetcher{
		client:    client,
		maxBytes:  opts.MaxBytes,
		userAgent: opts.UserAgent,
		logger:    opts.Logger,
	}
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			f.loggerFor(req.Context()).Debug("retrying fetch",
				logging.FieldURL, req.URL.String(),
				"attempt", attempt)
		}
	}
	if f.maxBytes <= 0 {
		f.maxBytes = DefaultMaxBytes
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	return f
}

// Fetch downloads url and returns its body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: %w: %s", url, ErrStatus, resp.Status)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w: %d bytes", url, ErrTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("fetch %s: %w: over %d bytes", url, ErrTooLarge, f.maxBytes)
	}

	f.loggerFor(ctx).Debug("fetched", logging.FieldURL, url, logging.FieldBytes, len(data))
	return data, nil
}

func (f *HTTPFetcher) loggerFor(ctx context.Context) *log.Logger {
	if f.logger != nil {
		return f.logger
	}
	return logging.FromContext(ctx)
}

// leveledLogger adapts a charm logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger *log.Logger
}

func (l leveledLogger) Error(msg string, keyvals ...interface{}) { l.logger.Error(msg, keyvals...) }
func (l leveledLogger) Info(msg string, keyvals ...interface{})  { l.logger.Info(msg, keyvals...) }
func (l leveledLogger) Debug(msg string, keyvals ...interface{}) { l.logger.Debug(msg, keyvals...) }
func (l leveledLogger) Warn(msg string, keyvals ...interface{})  { l.logger.Warn(msg, keyvals...) }
