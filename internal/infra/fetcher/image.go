// Package fetcher looks up the social-preview image of an article page.
// It is the network half of the image fallback chain: the feed itself had
// no usable image, so the article page is fetched and its og:image (or an
// equivalent tag) is read.
package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"

	"feedhub/internal/resilience/circuitbreaker"
	"feedhub/internal/usecase/fetch"
)

// previewSelectors are tried in order; the first non-empty value wins.
var previewSelectors = []struct {
	selector string
	attr     string
}{
	{`meta[property="og:image"]`, "content"},
	{`meta[property="og:image:url"]`, "content"},
	{`meta[property="og:image:secure_url"]`, "content"},
	{`meta[name="twitter:image"]`, "content"},
	{`meta[name="twitter:image:src"]`, "content"},
	{`meta[property="twitter:image"]`, "content"},
	{`link[rel="image_src"]`, "href"},
}

// ImageFetcher implements fetch.ImageLookup.
type ImageFetcher struct {
	client   *http.Client
	cfg      ImageFetchConfig
	breakers *circuitbreaker.Registry
	limiter  *HostLimiter
}

// NewImageFetcher builds an ImageFetcher with its own HTTP client. breakers
// may be nil; a nil limiter is replaced by one built from cfg.
func NewImageFetcher(cfg ImageFetchConfig, breakers *circuitbreaker.Registry, limiter *HostLimiter) *ImageFetcher {
	if limiter == nil {
		limiter = NewHostLimiter(cfg.RatePerHost, cfg.Burst)
	}
	f := &ImageFetcher{cfg: cfg, breakers: breakers, limiter: limiter}
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", fetch.ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.cfg.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target: %w", err)
			}
			return nil
		},
	}
	return f
}

// LookupImage returns the absolute preview image URL of pageURL, or
// fetch.ErrNoImage when the page declares none.
func (f *ImageFetcher) LookupImage(ctx context.Context, pageURL string) (string, error) {
	if err := validateURL(pageURL, f.cfg.DenyPrivateIPs); err != nil {
		return "", err
	}
	if err := f.limiter.Wait(ctx, pageURL); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	if f.breakers == nil {
		return f.doLookup(ctx, pageURL)
	}
	res, err := f.breakers.ForURL(pageURL).Execute(func() (interface{}, error) {
		return f.doLookup(ctx, pageURL)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (f *ImageFetcher) doLookup(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", fetch.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &fetch.HTTPStatusError{StatusCode: resp.StatusCode, URL: pageURL}
	}

	// A truncated page still carries its <head>, so oversized bodies are
	// cut rather than rejected.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	base := resp.Request.URL
	if img := previewImage(body, base); img != "" {
		return img, nil
	}
	if img := readabilityImage(body, base); img != "" {
		return img, nil
	}
	return "", fetch.ErrNoImage
}

func previewImage(body []byte, base *url.URL) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, p := range previewSelectors {
		v := strings.TrimSpace(doc.Find(p.selector).First().AttrOr(p.attr, ""))
		if abs := absolute(v, base); abs != "" {
			return abs
		}
	}
	return ""
}

// readabilityImage falls back to the lead image readability picks for the
// article body.
func readabilityImage(body []byte, base *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return ""
	}
	return absolute(article.Image, base)
}

func absolute(raw string, base *url.URL) string {
	if raw == "" || strings.HasPrefix(raw, "data:") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
