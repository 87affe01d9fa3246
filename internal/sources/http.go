package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds a single HTTP fetch when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBytes caps a listing body.
	DefaultMaxBytes = 10 * 1024 * 1024

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "nearby/1.0"
)

// HTTPFetcher fetches listings over HTTP(S).
type HTTPFetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewHTTPFetcher creates a new HTTPFetcher. Zero values fall back to the
// package defaults.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64, userAgent string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// Fetch performs a GET request against location.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Explicitly ignore close error
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: location, Status: resp.Status}
	}

	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("response size %d bytes exceeds limit of %d bytes", resp.ContentLength, f.maxBytes)
	}

	// +1 so an oversized body is detectable
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response exceeds limit of %d bytes", f.maxBytes)
	}

	return body, nil
}
