package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tidwall/gjson"

	apperrors "github.com/alex-user-go/nearby/internal/errors"
	"github.com/alex-user-go/nearby/internal/obs"
	"github.com/alex-user-go/nearby/internal/search/types"
	"github.com/alex-user-go/nearby/internal/sources"
)

// Retriever fetches the raw listing of the active source.
type Retriever struct {
	fetcher sources.Fetcher
	timeout time.Duration
	metrics *obs.Metrics
	logger  *slog.Logger
}

// NewRetriever creates a new Retriever. A non-positive timeout falls back to
// sources.DefaultTimeout.
func NewRetriever(fetcher sources.Fetcher, timeout time.Duration, metrics *obs.Metrics, logger *slog.Logger) *Retriever {
	if timeout <= 0 {
		timeout = sources.DefaultTimeout
	}
	return &Retriever{
		fetcher: fetcher,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchListing performs a single fetch against the registry's active source
// and extracts the listing from its {success, message} envelope.
func (r *Retriever) FetchListing(ctx context.Context, registry *sources.Registry, order types.Order) ([]types.RawHotel, error) {
	if order == "" {
		return nil, apperrors.Required("Order")
	}

	location, err := registry.ActiveLocation()
	if err != nil {
		return nil, err
	}
	source := registry.Active()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	body, err := r.fetcher.Fetch(ctx, location)
	r.metrics.ObserveFetch(source, time.Since(start))
	if err != nil {
		r.metrics.IncSourceErrors(source)
		r.logger.Error("source fetch failed", "source", source, "location", location, "error", err)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Retrieve(fmt.Errorf("source %q timed out after %s: %w", source, r.timeout, err))
		}
		return nil, apperrors.Retrieve(err)
	}

	listing, err := decodeListing(body)
	if err != nil {
		r.metrics.IncSourceErrors(source)
		r.logger.Warn("source returned no data", "source", source, "bytes", len(body))
		return nil, err
	}

	r.logger.Debug("fetched listing", "source", source, "records", len(listing), "duration_ms", time.Since(start).Milliseconds())
	return listing, nil
}

// decodeListing validates the envelope and reads each positional record.
// Tuple elements may be JSON strings or numbers.
func decodeListing(body []byte) ([]types.RawHotel, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperrors.NoData()
	}
	if success := gjson.GetBytes(body, "success"); !success.Exists() || !success.Bool() {
		return nil, apperrors.NoData()
	}

	message := gjson.GetBytes(body, "message")
	listing := make([]types.RawHotel, 0)
	if !message.IsArray() {
		return listing, nil
	}

	message.ForEach(func(_, item gjson.Result) bool {
		if !item.IsArray() {
			return true
		}
		fields := item.Array()
		listing = append(listing, types.RawHotel{
			Name:      field(fields, 0),
			Latitude:  field(fields, 1),
			Longitude: field(fields, 2),
			Price:     field(fields, 3),
		})
		return true
	})
	return listing, nil
}

func field(fields []gjson.Result, i int) string {
	if i >= len(fields) {
		return ""
	}
	return fields[i].String()
}
