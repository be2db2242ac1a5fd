package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"feedhub/internal/domain/entity"
	"feedhub/internal/resilience/circuitbreaker"
	"feedhub/internal/resilience/retry"
	"feedhub/internal/usecase/fetch"
)

const (
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB
	defaultUserAgent   = "feedhub/1.0"
)

// Option configures a fetcher.
type Option func(*options)

type options struct {
	userAgent   string
	maxBodySize int64
	breakers    *circuitbreaker.Registry
	retry       retry.Config
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithMaxBodySize caps the number of bytes read from a response.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithBreakers routes every request through the breaker of its host.
func WithBreakers(r *circuitbreaker.Registry) Option {
	return func(o *options) { o.breakers = r }
}

// WithRetry retries transient failures of a single GET with backoff. The
// breaker sees one outcome per fetch, after the retries.
func WithRetry(cfg retry.Config) Option {
	return func(o *options) { o.retry = cfg }
}

func buildOptions(opts []Option) options {
	o := options{userAgent: defaultUserAgent, maxBodySize: defaultMaxBodySize, retry: retry.Disabled()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// guarded runs fn through the host breaker when one is configured.
func (o options) guarded(rawURL string, fn func() ([]entity.Entry, error)) ([]entity.Entry, error) {
	if o.breakers == nil {
		return fn()
	}
	res, err := o.breakers.ForURL(rawURL).Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return nil, err
	}
	return res.([]entity.Entry), nil
}

// get performs a GET, retried per the retry schedule, and returns at most
// maxBodySize bytes of the body.
func (o options) get(ctx context.Context, client *http.Client, rawURL, accept string) ([]byte, error) {
	if err := entity.ValidateURL(rawURL); err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrInvalidURL, err)
	}

	var body []byte
	err := retry.WithBackoff(ctx, o.retry, func() error {
		var err error
		body, err = o.getOnce(ctx, client, rawURL, accept)
		return err
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (o options) getOnce(ctx context.Context, client *http.Client, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fetch.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", o.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &fetch.HTTPStatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > o.maxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes", fetch.ErrBodyTooLarge, o.maxBodySize)
	}
	return body, nil
}
