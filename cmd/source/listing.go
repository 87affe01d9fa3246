package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

var errSourceUnavailable = errors.New("source unavailable")

// hotel is one listing record: name, latitude, longitude, price per night.
// Coordinates and prices are strings, the way the public listings store them.
type hotel [4]string

// envelope is the response shape every source serves.
type envelope struct {
	Success bool    `json:"success"`
	Message []hotel `json:"message,omitempty"`
}

// Listing serves a fixed hotel listing with random latency and failures.
type Listing struct {
	hotels      []hotel
	minLatency  time.Duration
	maxLatency  time.Duration
	failureRate float64

	mu     sync.Mutex
	rng    *rand.Rand
	logger *slog.Logger
}

// NewListing creates a new Listing. A failure rate of 0 never fails.
func NewListing(hotels []hotel, minLatency, maxLatency time.Duration, failureRate float64, logger *slog.Logger) *Listing {
	if maxLatency < minLatency {
		maxLatency = minLatency
	}
	return &Listing{
		hotels:      hotels,
		minLatency:  minLatency,
		maxLatency:  maxLatency,
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      logger,
	}
}

// fetch simulates a slow, unreliable listing store.
func (l *Listing) fetch(ctx context.Context) ([]hotel, error) {
	l.mu.Lock()
	latency := l.minLatency
	if spread := l.maxLatency - l.minLatency; spread > 0 {
		latency += time.Duration(l.rng.Int63n(int64(spread)))
	}
	fail := l.rng.Float64() < l.failureRate
	l.mu.Unlock()

	select {
	case <-time.After(latency):
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}

	if fail {
		return nil, errSourceUnavailable
	}
	return l.hotels, nil
}

// ServeHTTP handles HTTP requests for this listing. Failures are reported in
// the envelope with a 200 status, as the real sources do.
func (l *Listing) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := envelope{Success: true}

	hotels, err := l.fetch(r.Context())
	if err != nil {
		l.logger.Warn("listing failed", "path", r.URL.Path, "error", err)
		resp = envelope{Success: false}
	} else {
		resp.Message = hotels
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		l.logger.Error("failed to encode response", "error", err)
	}
}

// lisbon and porto are the two built-in listings.
var (
	lisbon = []hotel{
		{"Hotel A", "38.71", "-9.14", "100"},
		{"Hotel B", "38.72", "-9.12", "80"},
		{"Tagus View", "38.7069", "-9.1365", "145.50"},
		{"Alfama Guesthouse", "38.7114", "-9.1300", "62"},
		{"Belem Riverside", "38.6970", "-9.2060", "118"},
	}
	porto = []hotel{
		{"Ribeira Rooms", "41.1407", "-8.6133", "74"},
		{"Clerigos Suites", "41.1456", "-8.6146", "96.90"},
		{"Foz Beach Hotel", "41.1520", "-8.6760", "133"},
		{"Bolhao Hostel", "41.1496", "-8.6060", "29"},
	}
)
