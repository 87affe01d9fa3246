package sources

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Options configures the S3-compatible endpoint behind s3:// locations.
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	MaxBytes  int64
}

// S3Fetcher fetches s3://bucket/key locations from an S3-compatible store.
type S3Fetcher struct {
	client   *minio.Client
	maxBytes int64
}

// NewS3Fetcher connects to the configured endpoint. Without keys, requests are
// sent unsigned, which is enough for public buckets.
func NewS3Fetcher(opts S3Options) (*S3Fetcher, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}

	creds := credentials.NewStatic("", "", "", credentials.SignatureAnonymous)
	if opts.AccessKey != "" || opts.SecretKey != "" {
		creds = credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, "")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &S3Fetcher{client: client, maxBytes: maxBytes}, nil
}

// Fetch reads the object named by an s3://bucket/key location.
func (f *S3Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := parseS3Location(location)
	if err != nil {
		return nil, err
	}

	object, err := f.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer func() {
		_ = object.Close()
	}()

	// Errors from GetObject surface on the first read.
	body, err := io.ReadAll(io.LimitReader(object, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("object %s/%s exceeds limit of %d bytes", bucket, key, f.maxBytes)
	}
	return body, nil
}

func parseS3Location(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 location: %w", err)
	}
	if u.Scheme != schemeS3 {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 location must be s3://bucket/key, got %q", location)
	}
	return bucket, key, nil
}
