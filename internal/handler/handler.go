// Package handler exposes the search pipeline over HTTP.
package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/alex-user-go/nearby/internal/errors"
	"github.com/alex-user-go/nearby/internal/middleware"
	"github.com/alex-user-go/nearby/internal/obs"
	"github.com/alex-user-go/nearby/internal/present"
	"github.com/alex-user-go/nearby/internal/search"
	"github.com/alex-user-go/nearby/internal/search/ratelimit"
)

// Handler handles HTTP requests.
type Handler struct {
	service      *search.Service
	formatter    present.Formatter
	rateLimiter  *ratelimit.Limiter
	metrics      *obs.Metrics
	logger       *slog.Logger
	defaultLimit int
}

// New creates a new Handler. A non-positive defaultLimit falls back to
// search.DefaultLimit.
func New(
	service *search.Service,
	formatter present.Formatter,
	rateLimiter *ratelimit.Limiter,
	metrics *obs.Metrics,
	logger *slog.Logger,
	defaultLimit int,
) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = search.DefaultLimit
	}
	return &Handler{
		service:      service,
		formatter:    formatter,
		rateLimiter:  rateLimiter,
		metrics:      metrics,
		logger:       logger,
		defaultLimit: defaultLimit,
	}
}

// SearchHandler handles /search requests.
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.IncRequests()
	logger := middleware.Logger(r.Context(), h.logger)

	ip := ExtractIP(r)
	if !h.rateLimiter.Allow(ip) {
		logger.Warn("rate limit exceeded", "ip", ip)
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	query, err := ParseSearchParams(r, h.defaultLimit)
	if err != nil {
		logger.Debug("invalid request parameters", "error", err, "ip", ip)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Search(r.Context(), query)
	if err != nil {
		status := StatusFor(err)
		logger.Error("search failed",
			"error", err,
			"kind", apperrors.KindOf(err),
			"status", status,
			"ip", ip,
		)
		writeError(w, status, err.Error())
		return
	}

	// Render fully first so a formatting failure still gets an error status.
	var body bytes.Buffer
	if err := present.Write(&body, result, query.Structured, h.formatter); err != nil {
		logger.Error("failed to render response", "error", err)
		writeError(w, StatusFor(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", present.ContentType(query.Structured))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body.Bytes()); err != nil {
		// Can't change status after WriteHeader, just log
		logger.Error("failed to write response", "error", err)
	}
}

// SourcesHandler lists the registered sources and the active one.
func (h *Handler) SourcesHandler(w http.ResponseWriter, r *http.Request) {
	registry := h.service.Registry()
	w.Header().Set("Content-Type", present.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"active":  registry.Active(),
		"sources": registry.Sources(),
	}); err != nil {
		middleware.Logger(r.Context(), h.logger).Error("failed to encode sources", "error", err)
	}
}

// ParseSearchParams parses query parameters into a search.Query. The origin is
// passed through as given; the search validates it.
func ParseSearchParams(r *http.Request, defaultLimit int) (search.Query, error) {
	values := r.URL.Query()

	query := search.NewQuery(values.Get("lat"), values.Get("lon"))
	query.Limit = defaultLimit
	if orderBy := strings.TrimSpace(values.Get("orderby")); orderBy != "" {
		query.OrderBy = orderBy
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return search.Query{}, fmt.Errorf("page must be an integer")
		}
		query.Page = page
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return search.Query{}, fmt.Errorf("limit must be a positive integer")
		}
		query.Limit = limit
	}

	if raw := strings.TrimSpace(values.Get("json")); raw != "" {
		structured, err := strconv.ParseBool(raw)
		if err != nil {
			return search.Query{}, fmt.Errorf("json must be a boolean")
		}
		query.Structured = structured
	}

	query.SelectSource = strings.TrimSpace(values.Get("source"))
	query.AddSources = parseSources(values)

	return query, nil
}

// parseSources collects sources[name]=url pairs. Keys that are not in bracket
// form are ignored; empty or numeric names are left for the registry to reject.
func parseSources(values map[string][]string) map[string]string {
	var out map[string]string
	for key, vals := range values {
		name, ok := strings.CutPrefix(key, "sources[")
		if !ok || !strings.HasSuffix(name, "]") || len(vals) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[strings.TrimSuffix(name, "]")] = vals[len(vals)-1]
	}
	return out
}

// StatusFor maps a search error to an HTTP status.
func StatusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.Validation:
		return http.StatusBadRequest
	case apperrors.Retrieval:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ExtractIP extracts the client IP from the request.
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", present.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
