// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

// rateLimited counts rejected requests by the budget they were charged to.
var rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "categorytree_rate_limited_total",
	Help: "Requests rejected by the rate limiter",
}, []string{"scope"})

// bucket is one client's token bucket and when it was last charged.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter gives every established editor session a token bucket of
// limit requests per window. Requests that would start a new session are
// charged to their client IP instead, through AdmitSession, before the
// session is written, so dropping the cookie does not buy a fresh budget.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	stopCh  chan struct{}
}

// NewRateLimiter creates a limiter allowing limit requests per window for
// each key, with bursts up to limit. A limit of zero or less disables it.
// Idle buckets are dropped in the background until Stop is called.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(max(window, time.Minute))
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.evictIdle(time.Now())
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background eviction goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *RateLimiter) enabled() bool {
	return rl.limit > 0 && rl.window > 0
}

// allow charges one request to key at now.
func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	rl.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// evictIdle drops buckets not charged for a whole window. Such a bucket
// has refilled completely, so forgetting it changes nothing.
func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.window {
			delete(rl.buckets, key)
		}
	}
}

// AdmitSession reports whether a request may start a new editor session.
// It charges the client IP and is meant to be passed to EditorSession.
func (rl *RateLimiter) AdmitSession(r *http.Request) bool {
	if !rl.enabled() {
		return true
	}
	if rl.allow("ip:"+clientIP(r), time.Now()) {
		return true
	}
	rateLimited.WithLabelValues("new_session").Inc()
	return false
}

// Middleware limits requests of established sessions per editor. Requests
// whose session was created by this very request were already charged by
// AdmitSession and pass through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled() || SessionIsNew(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}

		key, scope := "ip:"+clientIP(r), "ip"
		if sess := SessionFromCtx(r.Context()); sess != nil {
			key, scope = "editor:"+sess.ID, "editor"
		}
		if !rl.allow(key, time.Now()) {
			rateLimited.WithLabelValues(scope).Inc()
			rl.reject(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// reject writes the 429 response.
func (rl *RateLimiter) reject(w http.ResponseWriter) {
	retry := max(1, int(rl.window.Seconds())/max(1, rl.limit))
	w.Header().Set("Retry-After", strconv.Itoa(retry))
	writeJSONError(w, http.StatusTooManyRequests, "too many requests")
}

// clientIP returns the leftmost X-Forwarded-For address, then X-Real-IP,
// then the remote address without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
