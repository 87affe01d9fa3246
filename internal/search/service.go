// Package search runs the nearby-hotel pipeline: resolve the source, fetch its
// listing, measure each hotel's distance from the origin, order the results
// and cut one page.
package search

import (
	"context"
	"log/slog"
	"strings"

	apperrors "github.com/alex-user-go/nearby/internal/errors"
	"github.com/alex-user-go/nearby/internal/geo"
	"github.com/alex-user-go/nearby/internal/obs"
	"github.com/alex-user-go/nearby/internal/search/types"
	"github.com/alex-user-go/nearby/internal/sources"
)

// DefaultLimit is the page size of a search that does not ask for one.
const DefaultLimit = 15

// Query holds the inputs of a single search.
type Query struct {
	Latitude  string
	Longitude string
	OrderBy   string
	// Page is 0-based.
	Page  int
	Limit int
	// Structured selects the JSON page over the inline listing.
	Structured bool
	// SelectSource, when set, names the source to use for this search.
	SelectSource string
	// AddSources are merged into a per-search copy of the registry.
	AddSources map[string]string
}

// NewQuery returns a Query for the given origin with default ordering and
// paging.
func NewQuery(latitude, longitude string) Query {
	return Query{
		Latitude:  latitude,
		Longitude: longitude,
		OrderBy:   string(types.OrderProximity),
		Limit:     DefaultLimit,
	}
}

// Result is the outcome of a search.
type Result struct {
	Order  types.Order
	Source string
	// Hotels is the full ordered listing.
	Hotels []types.Hotel
	Page   types.Page
}

// Service answers nearby-hotel searches against a source registry.
type Service struct {
	registry  *sources.Registry
	retriever *Retriever
	distance  geo.DistanceFunc
	metrics   *obs.Metrics
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDistance overrides the distance function. The default is
// geo.DistanceBetween.
func WithDistance(fn geo.DistanceFunc) Option {
	return func(s *Service) {
		if fn != nil {
			s.distance = fn
		}
	}
}

// NewService creates a new Service. The registry is never modified by a
// search; per-search additions go to a copy.
func NewService(registry *sources.Registry, retriever *Retriever, metrics *obs.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		retriever: retriever,
		distance:  geo.DistanceBetween,
		metrics:   metrics,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the shared source registry.
func (s *Service) Registry() *sources.Registry {
	return s.registry
}

// Search validates the origin, fetches the active source and returns the
// ordered listing with the requested page.
func (s *Service) Search(ctx context.Context, q Query) (result *Result, err error) {
	order := types.ParseOrder(q.OrderBy)
	defer func() {
		outcome := obs.OutcomeOK
		if err != nil {
			outcome = obs.OutcomeError
		}
		s.metrics.ObserveSearch(string(order), outcome)
	}()

	origin, err := parseOrigin(q.Latitude, q.Longitude)
	if err != nil {
		return nil, err
	}

	registry := s.registry.Clone()
	if len(q.AddSources) > 0 {
		accepted, err := registry.Register(q.AddSources)
		if err != nil {
			return nil, err
		}
		if skipped := len(q.AddSources) - len(accepted); skipped > 0 {
			s.logger.Warn("skipped invalid sources", "skipped", skipped, "accepted", accepted)
		}
	}
	if q.SelectSource != "" && !registry.Select(q.SelectSource) {
		s.logger.Warn("unknown source, keeping active", "requested", q.SelectSource, "active", registry.Active())
	}

	raws, err := s.retriever.FetchListing(ctx, registry, order)
	if err != nil {
		return nil, err
	}

	normalizer := Normalizer{Origin: origin, Distance: s.distance}
	hotels := Sort(order, normalizer.NormalizeAll(raws))
	page := Paginate(q.Page, q.Limit, hotels)

	s.logger.Info("search completed",
		"source", registry.Active(),
		"orderby", order,
		"hotels", len(hotels),
		"page", page.Page,
		"pages", page.TotalPages)

	return &Result{
		Order:  order,
		Source: registry.Active(),
		Hotels: hotels,
		Page:   page,
	}, nil
}

// parseOrigin checks both coordinates before anything is fetched.
func parseOrigin(latitude, longitude string) (geo.Point, error) {
	var origin geo.Point
	for _, c := range []struct {
		label string
		raw   string
		dst   *float64
	}{
		{"Latitude", latitude, &origin.Lat},
		{"Longitude", longitude, &origin.Lon},
	} {
		if strings.TrimSpace(c.raw) == "" {
			return geo.Point{}, apperrors.Required(c.label)
		}
		v, ok := parseCoordinate(c.raw)
		if !ok {
			return geo.Point{}, apperrors.Invalid(c.label + " must be a number")
		}
		*c.dst = v
	}
	return origin, nil
}
