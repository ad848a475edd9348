package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterFailureTracking(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	ip := "10.0.0.1"

	if !rl.Allowed(ip) {
		t.Fatal("fresh IP should be allowed")
	}

	for i := 0; i < 3; i++ {
		rl.RecordFailure(ip)
	}
	if rl.Allowed(ip) {
		t.Error("IP at the limit should be blocked")
	}

	// Other IPs are unaffected.
	if !rl.Allowed("10.0.0.2") {
		t.Error("unrelated IP blocked")
	}

	rl.Reset(ip)
	if !rl.Allowed(ip) {
		t.Error("IP should be allowed after reset")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)
	ip := "10.0.0.3"

	rl.RecordFailure(ip)
	if rl.Allowed(ip) {
		t.Fatal("should be blocked inside the window")
	}

	time.Sleep(80 * time.Millisecond)
	if !rl.Allowed(ip) {
		t.Error("should be allowed after the window passes")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.4:5123"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", last)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		expected   string
	}{
		{"remote addr with port", "192.0.2.1:8080", "", "192.0.2.1"},
		{"forwarded single", "10.0.0.1:80", "203.0.113.7", "203.0.113.7"},
		{"forwarded chain", "10.0.0.1:80", "203.0.113.7, 10.0.0.1", "203.0.113.7"},
		{"no port", "192.0.2.9", "", "192.0.2.9"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			if got := ClientIP(req); got != tc.expected {
				t.Errorf("ClientIP = %q, want %q", got, tc.expected)
			}
		})
	}
}
