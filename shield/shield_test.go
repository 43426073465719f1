package shield_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/inkwellhq/inkwell/kit"
	"github.com/inkwellhq/inkwell/shield"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := shield.SecurityHeaders(shield.DefaultHeaders())(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/chat", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy not set")
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = kit.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	shield.RequestID(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/v1/chat", nil))

	if seen == "" {
		t.Error("request id missing from context")
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("header = %q, context = %q", rec.Header().Get("X-Request-ID"), seen)
	}
}

func TestRateLimiterBlocks(t *testing.T) {
	rl := shield.NewRateLimiter(map[string]shield.RateLimitConfig{
		"POST /v1/chat": {MaxRequests: 2, WindowSeconds: 60, Enabled: true},
	})
	h := rl.Middleware(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/v1/chat", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: code = %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/chat", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}

	// A different IP has its own bucket.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/v1/chat", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("other ip code = %d, want 200", rec.Code)
	}
}

func TestRateLimiterExcludes(t *testing.T) {
	rl := shield.NewRateLimiter(map[string]shield.RateLimitConfig{
		"GET /healthz": {MaxRequests: 1, WindowSeconds: 60, Enabled: true},
	}, "/healthz")
	h := rl.Middleware(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("excluded path blocked on request %d", i)
		}
	}
}

func TestRateLimiterUnconfiguredPath(t *testing.T) {
	rl := shield.NewRateLimiter(nil)
	h := rl.Middleware(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/anything", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", rec.Code)
	}
}

func TestHeadToGet(t *testing.T) {
	var method string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	})
	rec := httptest.NewRecorder()
	shield.HeadToGet(inner).ServeHTTP(rec, httptest.NewRequest("HEAD", "/healthz", nil))
	if method != http.MethodGet {
		t.Errorf("method = %q, want GET", method)
	}
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		remoteAddr string
		xff        string
		want       string
	}{
		{"10.0.0.1:1234", "", "10.0.0.1"},
		{"10.0.0.1:1234", "203.0.113.5", "203.0.113.5"},
		{"10.0.0.1:1234", "203.0.113.5, 10.0.0.9", "203.0.113.5"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = tt.remoteAddr
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		if got := shield.ExtractIP(req); got != tt.want {
			t.Errorf("ExtractIP(%q, %q) = %q, want %q", tt.remoteAddr, tt.xff, got, tt.want)
		}
	}
}
