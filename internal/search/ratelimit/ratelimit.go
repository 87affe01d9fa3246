// Package ratelimit throttles search requests per client key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter allows up to a given number of requests per window for each key,
// refilling continuously. A non-positive rate blocks every request.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
	window  time.Duration
	done    chan struct{}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a new Limiter.
func New(requests int, window time.Duration) *Limiter {
	l := &Limiter{
		clients: make(map[string]*client),
		window:  window,
		done:    make(chan struct{}),
	}
	if requests > 0 && window > 0 {
		l.limit = rate.Limit(float64(requests) / window.Seconds())
		l.burst = requests
	}

	go l.cleanup()

	return l
}

// Close stops the background cleanup goroutine.
func (l *Limiter) Close() {
	close(l.done)
}

// Allow checks if a request for the given key is allowed.
func (l *Limiter) Allow(key string) bool {
	if l.burst == 0 {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

// cleanup periodically drops clients idle for more than two windows.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			l.evictIdle(now)
		case <-l.done:
			return
		}
	}
}

func (l *Limiter) evictIdle(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > 2*l.window {
			delete(l.clients, key)
		}
	}
}
