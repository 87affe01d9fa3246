package handler_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apperrors "github.com/alex-user-go/nearby/internal/errors"
	"github.com/alex-user-go/nearby/internal/handler"
	"github.com/alex-user-go/nearby/internal/obs"
	"github.com/alex-user-go/nearby/internal/present"
	"github.com/alex-user-go/nearby/internal/search"
	"github.com/alex-user-go/nearby/internal/search/ratelimit"
	"github.com/alex-user-go/nearby/internal/sources"
	"github.com/alex-user-go/nearby/internal/sources/mocks"
)

const (
	hotelsURL  = "https://example.com/hotels.json"
	lisbonBody = `{"success":true,"message":[["Hotel A","38.71","-9.14","100"],["Hotel B","38.72","-9.12","80"]]}`
)

// euroFormatter renders amounts as "<amount> EUR".
type euroFormatter struct{}

func (euroFormatter) Format(amount float64) (string, error) {
	return strconv.FormatFloat(amount, 'f', -1, 64) + " EUR", nil
}

type failingFormatter struct{}

func (failingFormatter) Format(float64) (string, error) {
	return "", apperrors.Format(errors.New("boom"))
}

func newHandler(t *testing.T, fetcher sources.Fetcher, formatter present.Formatter, limiter *ratelimit.Limiter) *handler.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := obs.NewMetrics(logger)
	registry := sources.NewRegistry(map[string]string{"hotels": hotelsURL}, "hotels")
	retriever := search.NewRetriever(fetcher, time.Second, metrics, logger)
	service := search.NewService(registry, retriever, metrics, logger)
	return handler.New(service, formatter, limiter, metrics, logger, 0)
}

func TestHandler_SearchHandler(t *testing.T) {
	tests := []struct {
		name        string
		queryParams string
		fetch       bool
		fetchBody   string
		fetchErr    error
		exhaust     bool
		wantStatus  int
		wantType    string
		wantError   string
		wantBody    string
	}{
		{
			name:        "structured search",
			queryParams: "lat=38.7071&lon=-9.13549&orderby=price_per_night&json=true",
			fetch:       true,
			fetchBody:   lisbonBody,
			wantStatus:  http.StatusOK,
			wantType:    present.ContentTypeJSON,
		},
		{
			name:        "inline search",
			queryParams: "lat=38.7071&lon=-9.13549&orderby=price_per_night",
			fetch:       true,
			fetchBody:   lisbonBody,
			wantStatus:  http.StatusOK,
			wantType:    present.ContentTypeText,
			wantBody:    " • Hotel B, 1.97 KM, 80 EUR • Hotel A, 0.51 KM, 100 EUR",
		},
		{
			name:        "missing latitude",
			queryParams: "lon=-9.13549",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Latitude is required",
		},
		{
			name:        "non-numeric longitude",
			queryParams: "lat=38.7071&lon=west",
			wantStatus:  http.StatusBadRequest,
			wantError:   "Longitude must be a number",
		},
		{
			name:        "invalid page",
			queryParams: "lat=38.7071&lon=-9.13549&page=two",
			wantStatus:  http.StatusBadRequest,
			wantError:   "page must be an integer",
		},
		{
			name:        "invalid limit",
			queryParams: "lat=38.7071&lon=-9.13549&limit=0",
			wantStatus:  http.StatusBadRequest,
			wantError:   "limit must be a positive integer",
		},
		{
			name:        "invalid json flag",
			queryParams: "lat=38.7071&lon=-9.13549&json=maybe",
			wantStatus:  http.StatusBadRequest,
			wantError:   "json must be a boolean",
		},
		{
			name:        "unsuccessful envelope",
			queryParams: "lat=38.7071&lon=-9.13549",
			fetch:       true,
			fetchBody:   `{"success":false}`,
			wantStatus:  http.StatusBadGateway,
			wantError:   "No data found",
		},
		{
			name:        "transport failure",
			queryParams: "lat=38.7071&lon=-9.13549",
			fetch:       true,
			fetchErr:    errors.New("connection refused"),
			wantStatus:  http.StatusBadGateway,
			wantError:   "connection refused",
		},
		{
			name:        "rate limit exceeded",
			queryParams: "lat=38.7071&lon=-9.13549",
			exhaust:     true,
			wantStatus:  http.StatusTooManyRequests,
			wantError:   "rate limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			fetcher := mocks.NewMockFetcher(ctrl)
			if tt.fetch {
				var body []byte
				if tt.fetchBody != "" {
					body = []byte(tt.fetchBody)
				}
				fetcher.EXPECT().Fetch(gomock.Any(), hotelsURL).Return(body, tt.fetchErr)
			}

			limiter := ratelimit.New(10, time.Minute)
			defer limiter.Close()

			ip := "192.168.1.1"
			if tt.exhaust {
				for range 10 {
					limiter.Allow(ip)
				}
			}

			h := newHandler(t, fetcher, euroFormatter{}, limiter)

			req := httptest.NewRequest(http.MethodGet, "/search?"+tt.queryParams, nil)
			req.RemoteAddr = ip + ":12345"
			w := httptest.NewRecorder()

			h.SearchHandler(w, req)

			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantError != "" {
				var errResp map[string]string
				require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
				assert.Equal(t, tt.wantError, errResp["error"])
				return
			}

			assert.Equal(t, tt.wantType, w.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			if tt.wantType == present.ContentTypeJSON {
				var resp present.Response
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, 1, resp.Page)
				assert.Equal(t, 1, resp.Pages)
				require.Len(t, resp.Data, 2)
				assert.Equal(t, "Hotel B", resp.Data[0].Name)
				assert.Equal(t, "Hotel A", resp.Data[1].Name)
			}
		})
	}
}

func TestHandler_SearchHandler_FormatterError(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), hotelsURL).Return([]byte(lisbonBody), nil)

	limiter := ratelimit.New(10, time.Minute)
	defer limiter.Close()

	h := newHandler(t, fetcher, failingFormatter{}, limiter)
	req := httptest.NewRequest(http.MethodGet, "/search?lat=38.7071&lon=-9.13549", nil)
	w := httptest.NewRecorder()
	h.SearchHandler(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var errResp map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
	assert.Equal(t, "Formatter error", errResp["error"])
}

func TestHandler_SearchHandler_AddedSourcesMustBeRemote(t *testing.T) {
	for name, location := range map[string]string{
		"local file":   "file:///etc/hostname",
		"s3 object":    "s3://private-bucket/listing.json",
		"missing file": "file:///nope",
	} {
		t.Run(name, func(t *testing.T) {
			// Only the configured source may be fetched.
			ctrl := gomock.NewController(t)
			fetcher := mocks.NewMockFetcher(ctrl)
			fetcher.EXPECT().Fetch(gomock.Any(), hotelsURL).Return([]byte(lisbonBody), nil)

			limiter := ratelimit.New(10, time.Minute)
			defer limiter.Close()

			h := newHandler(t, fetcher, euroFormatter{}, limiter)
			target := "/search?lat=38.7071&lon=-9.13549&json=1&source=x&sources%5Bx%5D=" + url.QueryEscape(location)
			w := httptest.NewRecorder()
			h.SearchHandler(w, httptest.NewRequest(http.MethodGet, target, nil))

			require.Equal(t, http.StatusOK, w.Code)
			var resp present.Response
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Len(t, resp.Data, 2)
		})
	}
}

func TestHandler_SourcesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	limiter := ratelimit.New(10, time.Minute)
	defer limiter.Close()

	h := newHandler(t, mocks.NewMockFetcher(ctrl), euroFormatter{}, limiter)
	w := httptest.NewRecorder()
	h.SourcesHandler(w, httptest.NewRequest(http.MethodGet, "/sources", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"active":"hotels","sources":[{"name":"hotels","location":"`+hotelsURL+`"}]}`, w.Body.String())
}

func TestParseSearchParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/search?lat=38.7&lon=-9.1&orderby=price_per_night&page=2&limit=5&json=1&source=backup"+
			"&sources%5Bbackup%5D=https://b.example.com/h.json&sources%5B0%5D=https://x.example.com&other=1", nil)

	q, err := handler.ParseSearchParams(req, 15)
	require.NoError(t, err)
	assert.Equal(t, "38.7", q.Latitude)
	assert.Equal(t, "-9.1", q.Longitude)
	assert.Equal(t, "price_per_night", q.OrderBy)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.Limit)
	assert.True(t, q.Structured)
	assert.Equal(t, "backup", q.SelectSource)
	assert.Equal(t, map[string]string{
		"backup": "https://b.example.com/h.json",
		"0":      "https://x.example.com",
	}, q.AddSources)
}

func TestParseSearchParams_Defaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/search?lat=1&lon=2", nil)

	q, err := handler.ParseSearchParams(req, 15)
	require.NoError(t, err)
	assert.Equal(t, "proximity", q.OrderBy)
	assert.Equal(t, 0, q.Page)
	assert.Equal(t, 15, q.Limit)
	assert.False(t, q.Structured)
	assert.Empty(t, q.AddSources)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, handler.StatusFor(apperrors.Required("Latitude")))
	assert.Equal(t, http.StatusInternalServerError, handler.StatusFor(apperrors.NoSource("x")))
	assert.Equal(t, http.StatusBadGateway, handler.StatusFor(apperrors.NoData()))
	assert.Equal(t, http.StatusInternalServerError, handler.StatusFor(apperrors.Format(errors.New("x"))))
	assert.Equal(t, http.StatusInternalServerError, handler.StatusFor(errors.New("plain")))
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		wantIP     string
	}{
		{
			name:       "X-Forwarded-For single IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195"},
			remoteAddr: "192.168.1.1:12345",
			wantIP:     "203.0.113.195",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			remoteAddr: "192.168.1.1:12345",
			wantIP:     "203.0.113.195",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.50"},
			remoteAddr: "192.168.1.1:12345",
			wantIP:     "203.0.113.50",
		},
		{
			name:       "X-Forwarded-For takes precedence",
			headers:    map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": "2.2.2.2"},
			remoteAddr: "192.168.1.1:12345",
			wantIP:     "1.1.1.1",
		},
		{
			name:       "fallback to RemoteAddr",
			remoteAddr: "192.168.1.1:12345",
			wantIP:     "192.168.1.1",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.1",
			wantIP:     "192.168.1.1",
		},
		{
			name:       "IPv6 RemoteAddr",
			remoteAddr: "[::1]:12345",
			wantIP:     "::1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.wantIP, handler.ExtractIP(req))
		})
	}
}
