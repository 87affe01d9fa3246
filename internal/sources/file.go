package sources

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
)

// FileFetcher reads file:// locations from the local filesystem.
type FileFetcher struct {
	maxBytes int64
}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher(maxBytes int64) *FileFetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileFetcher{maxBytes: maxBytes}
}

// Fetch reads the file named by location.
func (f *FileFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid file location: %w", err)
	}
	if u.Scheme != schemeFile {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(file, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("source file exceeds limit of %d bytes", f.maxBytes)
	}
	return body, nil
}
