package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwellhq/inkwell/shield"
)

func TestShield_SecurityHeaders(t *testing.T) {
	r := chi.NewRouter()
	r.Use(shield.SecurityHeaders(shield.DefaultHeaders()))
	r.Use(shield.RequestID)
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	checks := map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
	}
	for header, expected := range checks {
		if got := w.Header().Get(header); got != expected {
			t.Errorf("%s: got %q, want %q", header, got, expected)
		}
	}

	requestID := w.Header().Get("X-Request-ID")
	if requestID == "" {
		t.Error("X-Request-ID header missing")
	}
	if len(requestID) != 8 {
		t.Errorf("X-Request-ID: got %q (len %d), want 8 hex chars", requestID, len(requestID))
	}
}

func TestRequireToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-token"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	r := chi.NewRouter()
	r.Use(requireToken(string(hash)))
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer secret-token", 200},
		{"wrong token", "Bearer nope", 401},
		{"missing header", "", 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("got %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequireToken_DisabledWhenUnset(t *testing.T) {
	r := chi.NewRouter()
	r.Use(requireToken(""))
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 200 {
		t.Errorf("got %d, want 200", w.Code)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.defaults()

	if cfg.Listen != ":8086" {
		t.Errorf("listen: got %q", cfg.Listen)
	}
	if cfg.Session.Backend != "sqlite" {
		t.Errorf("session backend: got %q", cfg.Session.Backend)
	}
	if cfg.Session.TTL <= 0 {
		t.Error("session ttl not defaulted")
	}
	if _, ok := cfg.RateLimits["POST /v1/chat"]; !ok {
		t.Error("chat rate limit not defaulted")
	}
}
