package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"categorytree/internal/session"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// editorRequest returns a request carrying an established editor session.
func editorRequest(id, addr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/categories/moves", nil)
	req.RemoteAddr = addr
	return req.WithContext(WithSession(req.Context(), &session.Data{ID: id}))
}

func TestRateLimiterBurstThenRefill(t *testing.T) {
	rl := NewRateLimiter(3, 300*time.Millisecond)
	defer rl.Stop()

	now := time.Now()
	for i := range 3 {
		if !rl.allow("editor:a", now) {
			t.Fatalf("request %d should fit the burst", i+1)
		}
	}
	if rl.allow("editor:a", now) {
		t.Error("4th request in the same instant should be refused")
	}
	if !rl.allow("editor:b", now) {
		t.Error("another key has its own bucket")
	}

	// One token comes back every window/limit.
	if !rl.allow("editor:a", now.Add(100*time.Millisecond)) {
		t.Error("a token should have refilled")
	}
}

func TestRateLimiterPerEditor(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	h := rl.Middleware(okHandler())

	for i := range 2 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, editorRequest("editor-a", "10.0.0.1:5000"))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got %d, want 200", i+1, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, editorRequest("editor-a", "10.0.0.1:5000"))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: got %d, want 429", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After: got %q, want 30", got)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}

	// A second editor behind the same address keeps its own budget.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, editorRequest("editor-b", "10.0.0.1:5000"))
	if rr.Code != http.StatusOK {
		t.Errorf("editor-b: got %d, want 200", rr.Code)
	}
}

func TestRateLimiterChargesNewSessionsByIP(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	for i := range 2 {
		if !rl.AdmitSession(req) {
			t.Fatalf("session %d should be admitted", i+1)
		}
	}
	if rl.AdmitSession(req) {
		t.Error("third new session from the same IP should be refused")
	}

	other := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	other.RemoteAddr = "192.168.1.2:1234"
	if !rl.AdmitSession(other) {
		t.Error("another IP should be admitted")
	}
}

func TestRateLimiterSkipsRequestThatCreatedItsSession(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()
	store := &fakeSessions{}
	h := EditorSession(store, rl.AdmitSession)(rl.Middleware(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.RemoteAddr = "10.1.1.1:80"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("first cookie-less request: got %d, want 200 (charged once)", rr.Code)
	}

	// Dropping the cookie does not buy a new budget.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("second cookie-less request: got %d, want 429", rr.Code)
	}
	if store.created != 1 {
		t.Errorf("sessions written: got %d, want 1", store.created)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	for _, limit := range []int{0, -1} {
		rl := NewRateLimiter(limit, time.Second)
		h := rl.Middleware(okHandler())
		for i := range 5 {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, editorRequest("a", "10.0.0.1:1"))
			if rr.Code != http.StatusOK {
				t.Fatalf("limit %d request %d: got %d", limit, i+1, rr.Code)
			}
			if !rl.AdmitSession(httptest.NewRequest(http.MethodGet, "/", nil)) {
				t.Fatalf("limit %d: new session refused", limit)
			}
		}
		rl.Stop()
	}
}

func TestRateLimiterEvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	defer rl.Stop()

	start := time.Now()
	rl.allow("editor:idle", start)
	rl.allow("editor:busy", start)
	rl.allow("editor:busy", start.Add(50*time.Second))

	rl.evictIdle(start.Add(70 * time.Second))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["editor:idle"]; ok {
		t.Error("idle bucket should be evicted")
	}
	if _, ok := rl.buckets["editor:busy"]; !ok {
		t.Error("recently used bucket should be kept")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff, xri   string
		remoteAddr string
		want       string
	}{
		{name: "forwarded chain", xff: "10.0.0.1, 172.16.0.1", remoteAddr: "192.168.1.1:1234", want: "10.0.0.1"},
		{name: "real ip", xri: " 10.0.0.2 ", remoteAddr: "192.168.1.1:1234", want: "10.0.0.2"},
		{name: "remote addr", remoteAddr: "192.168.1.1:1234", want: "192.168.1.1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
