package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterBlocksAfterLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.allow("10.0.0.1"); !ok {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	ok, retryAfter := rl.allow("10.0.0.1")
	if ok {
		t.Fatal("4th request should be blocked")
	}
	if retryAfter <= 0 {
		t.Fatalf("retryAfter = %v, want positive", retryAfter)
	}
}

func TestLimiterWindowResets(t *testing.T) {
	rl := newRateLimiter(1, 20*time.Millisecond)

	rl.allow("10.0.0.1")
	if ok, _ := rl.allow("10.0.0.1"); ok {
		t.Fatal("second request in window should be blocked")
	}
	time.Sleep(30 * time.Millisecond)
	if ok, _ := rl.allow("10.0.0.1"); !ok {
		t.Fatal("request after window reset should pass")
	}
}

func TestLimiterTracksIPsSeparately(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)

	rl.allow("10.0.0.1")
	if ok, _ := rl.allow("10.0.0.2"); !ok {
		t.Fatal("a different IP must have its own window")
	}
}

func TestLimiterMiddleware429(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	h := rl.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:54321"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("429 must carry Retry-After")
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "127.0.0.1:1000"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")

	if ip := clientIP(req); ip != "203.0.113.9" {
		t.Fatalf("ip = %s, want first forwarded hop", ip)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "192.0.2.4:1000"

	if ip := clientIP(req); ip != "192.0.2.4" {
		t.Fatalf("ip = %s", ip)
	}
}
