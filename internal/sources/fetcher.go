// Package sources keeps the registry of hotel listing sources and the
// transports that fetch them.
package sources

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks -source=fetcher.go Fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
	schemeS3    = "s3"
	schemeFile  = "file"
)

// Fetcher retrieves the raw bytes stored at a source location.
type Fetcher interface {
	// Fetch returns the body found at location.
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// ErrUnsupportedScheme is returned when no fetcher handles a location's scheme.
var ErrUnsupportedScheme = errors.New("unsupported source scheme")

// HTTPError is returned when a source answers with a non-200 status.
type HTTPError struct {
	StatusCode int
	URL        string
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Status)
}

// SchemeFetcher dispatches to a Fetcher by the location's URL scheme.
type SchemeFetcher struct {
	fetchers map[string]Fetcher
}

// NewSchemeFetcher creates an empty SchemeFetcher.
func NewSchemeFetcher() *SchemeFetcher {
	return &SchemeFetcher{fetchers: make(map[string]Fetcher)}
}

// Handle routes the given schemes to f.
func (s *SchemeFetcher) Handle(f Fetcher, schemes ...string) *SchemeFetcher {
	for _, scheme := range schemes {
		s.fetchers[strings.ToLower(scheme)] = f
	}
	return s
}

// Fetch implements Fetcher.
func (s *SchemeFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid source location: %w", err)
	}

	f, ok := s.fetchers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return f.Fetch(ctx, location)
}

// NewDefaultFetcher routes http and https to web, s3 to store and file to
// local. A nil fetcher leaves its schemes unsupported.
func NewDefaultFetcher(web *HTTPFetcher, store *S3Fetcher, local *FileFetcher) *SchemeFetcher {
	s := NewSchemeFetcher()
	if web != nil {
		s.Handle(web, schemeHTTP, schemeHTTPS)
	}
	if store != nil {
		s.Handle(store, schemeS3)
	}
	if local != nil {
		s.Handle(local, schemeFile)
	}
	return s
}
