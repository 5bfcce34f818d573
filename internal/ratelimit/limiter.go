// Package ratelimit implements a per-client sliding-window rate limiter.
//
// Each client identifier owns an ordered list of request timestamps inside
// the trailing window. Eviction of stale timestamps and admission of the new
// request happen under one per-client lock, so the check-then-append sequence
// is atomic for a given client while different clients proceed independently.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter tracks recent request timestamps per client identifier and admits
// or rejects requests against a fixed quota within a trailing window.
// State is process-local and cleared on restart.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window

	limit      int
	windowSize time.Duration
	maxClients int

	cleanupEvery time.Duration
	now          func() time.Time
}

// window holds one client's recorded timestamps. Its own mutex serializes
// evict+check+append for that client without blocking other clients.
type window struct {
	mu       sync.Mutex
	stamps   []time.Time
	lastSeen time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithCleanupEvery sets the janitor interval for dropping idle clients.
func WithCleanupEvery(d time.Duration) Option {
	return func(l *Limiter) { l.cleanupEvery = d }
}

// WithClock replaces the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// NewLimiter creates a limiter admitting at most limit requests per client
// within windowSize, tracking at most maxClients distinct clients. When the
// cap is reached the least-recently-seen client is evicted.
func NewLimiter(limit int, windowSize time.Duration, maxClients int, opts ...Option) *Limiter {
	l := &Limiter{
		clients:      make(map[string]*window),
		limit:        limit,
		windowSize:   windowSize,
		maxClients:   maxClients,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records the request and returns true when the client is under its
// quota; otherwise it returns false without recording anything.
func (l *Limiter) Allow(clientID string) bool {
	now := l.now()
	w := l.getWindow(clientID, now)

	w.mu.Lock()
	defer w.mu.Unlock()

	// Evict timestamps that fell out of the trailing window.
	cutoff := now.Add(-l.windowSize)
	kept := w.stamps[:0]
	for _, ts := range w.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= l.limit {
		return false
	}

	w.stamps = append(w.stamps, now)
	return true
}

// Clients returns the number of distinct client identifiers currently tracked.
func (l *Limiter) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// getWindow fetches or creates the window for clientID, evicting the
// least-recently-seen client when the capacity cap is reached.
func (l *Limiter) getWindow(clientID string, now time.Time) *window {
	l.mu.Lock()
	defer l.mu.Unlock()

	if w, ok := l.clients[clientID]; ok {
		w.lastSeen = now
		return w
	}

	if l.maxClients > 0 && len(l.clients) >= l.maxClients {
		l.evictOldestLocked()
	}

	w := &window{lastSeen: now}
	l.clients[clientID] = w
	return w
}

// evictOldestLocked removes the client with the oldest lastSeen.
// Caller must hold l.mu.
func (l *Limiter) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, w := range l.clients {
		if oldestKey == "" || w.lastSeen.Before(oldest) {
			oldestKey = key
			oldest = w.lastSeen
		}
	}
	if oldestKey != "" {
		delete(l.clients, oldestKey)
	}
}

// Cleanup drops clients whose last request is older than the window.
// Their quota is already fully replenished, so no admission decision changes.
func (l *Limiter) Cleanup() {
	cutoff := l.now().Add(-l.windowSize)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.clients {
		if w.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// StartJanitor launches a goroutine that periodically drops idle clients.
// It stops when the context is cancelled.
func (l *Limiter) StartJanitor(ctx context.Context) {
	if l.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(l.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Cleanup()
			}
		}
	}()
}
